package browser

import (
	"strings"
	"testing"
)

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		wantExact string
		wantHTML  []string // substrings that should be present
		wantNot   []string // substrings that should NOT be present
		truncated bool
	}{
		{
			name:      "inline markup kept, copy button removed",
			input:     `<p>Hello <strong>world</strong></p><button class="copy">Copy</button>`,
			wantExact: `<p>Hello <strong>world</strong></p>`,
		},
		{
			name:     "code block language preserved",
			input:    `<pre><div class="toolbar"><span>go</span></div><code class="language-go hljs">fmt.Println(1)</code></pre>`,
			wantHTML: []string{`<code class="language-go hljs">fmt.Println(1)</code>`, "<pre>"},
			wantNot:  []string{"toolbar"},
		},
		{
			name:     "presentation attributes dropped",
			input:    `<div class="markdown prose" data-start="0" style="color:red"><p>Hi</p></div>`,
			wantHTML: []string{"<div>", "<p>Hi</p>", "</div>"},
			wantNot:  []string{"markdown", "data-start", "color:red"},
		},
		{
			name:     "noise elements removed",
			input:    `<p>Answer</p><script>track()</script><svg><path d="M0"/></svg><!-- note -->`,
			wantHTML: []string{"<p>Answer</p>"},
			wantNot:  []string{"track", "<svg>", "note"},
		},
		{
			name:     "links keep href only",
			input:    `<a href="https://go.dev" target="_blank" rel="noopener">Go</a>`,
			wantHTML: []string{`<a href="https://go.dev">Go</a>`},
			wantNot:  []string{"target", "rel"},
		},
		{
			name:     "text is escaped",
			input:    `<p>1 &lt; 2</p>`,
			wantHTML: []string{"1 &lt; 2"},
		},
		{
			name:      "truncation",
			input:     `<p>abcdefghij</p>`,
			maxLength: 5,
			wantHTML:  []string{"<p>ab...</p>"},
			truncated: true,
		},
		{
			name:     "void elements",
			input:    `<p>line<br>next</p><img src="x.png" alt="x" width="10">`,
			wantHTML: []string{"<br>", `<img src="x.png" alt="x">`},
			wantNot:  []string{"</br>", "</img>", "width"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CleanHTML(tt.input, tt.maxLength)
			if err != nil {
				t.Fatalf("CleanHTML() error = %v", err)
			}

			if tt.wantExact != "" && result.HTML != tt.wantExact {
				t.Errorf("HTML = %q, want %q", result.HTML, tt.wantExact)
			}

			if result.Truncated != tt.truncated {
				t.Errorf("Truncated = %v, want %v", result.Truncated, tt.truncated)
			}

			for _, want := range tt.wantHTML {
				if !strings.Contains(result.HTML, want) {
					t.Errorf("HTML missing expected substring: %q\nGot: %s", want, result.HTML)
				}
			}

			for _, notWant := range tt.wantNot {
				if strings.Contains(result.HTML, notWant) {
					t.Errorf("HTML contains unwanted substring: %q\nGot: %s", notWant, result.HTML)
				}
			}
		})
	}
}

func TestShouldPreserveAttribute(t *testing.T) {
	tests := []struct {
		tag   string
		attr  string
		value string
		want  bool
	}{
		{"a", "href", "/x", true},
		{"a", "target", "_blank", false},
		{"img", "src", "x.png", true},
		{"code", "class", "language-python", true},
		{"code", "class", "inline", false},
		{"div", "class", "markdown", false},
		{"div", "id", "main", false},
		{"td", "colspan", "2", true},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"_"+tt.attr, func(t *testing.T) {
			if got := shouldPreserveAttribute(tt.tag, tt.attr, tt.value); got != tt.want {
				t.Errorf("shouldPreserveAttribute(%q, %q, %q) = %v, want %v", tt.tag, tt.attr, tt.value, got, tt.want)
			}
		})
	}
}

package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CleanedHTML is an assistant message's markup with UI noise removed.
type CleanedHTML struct {
	HTML      string
	Truncated bool
}

// CleanHTML parses a message fragment and keeps its semantic structure
// while dropping scripts, styles, buttons and presentation attributes.
// A maxLength of zero or less disables truncation.
func CleanHTML(fragment string, maxLength int) (*CleanedHTML, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c := &cleaner{maxLength: maxLength}
	for _, n := range nodes {
		if c.node(n, 0) {
			c.truncated = true
			break
		}
	}

	return &CleanedHTML{
		HTML:      strings.TrimSpace(c.builder.String()),
		Truncated: c.truncated,
	}, nil
}

type cleaner struct {
	builder   strings.Builder
	length    int
	maxLength int
	truncated bool
}

func (c *cleaner) full() bool {
	return c.maxLength > 0 && c.length >= c.maxLength
}

// node writes n and reports whether output was truncated.
func (c *cleaner) node(n *html.Node, depth int) bool {
	if c.full() {
		return true
	}

	switch n.Type {
	case html.CommentNode:
		return false
	case html.TextNode:
		return c.text(n)
	case html.ElementNode:
		if isSkippedElement(strings.ToLower(n.Data)) {
			return false
		}
		return c.element(n, depth)
	}
	return c.children(n, depth)
}

func (c *cleaner) text(n *html.Node) bool {
	text := n.Data
	if strings.TrimSpace(text) == "" {
		return false
	}
	text = html.EscapeString(text)

	if c.maxLength > 0 && c.length+len(text) > c.maxLength {
		remaining := c.maxLength - c.length
		c.builder.WriteString(text[:remaining])
		c.builder.WriteString("...")
		c.length = c.maxLength
		return true
	}

	c.builder.WriteString(text)
	c.length += len(text)
	return false
}

func (c *cleaner) element(n *html.Node, depth int) bool {
	tagName := strings.ToLower(n.Data)

	if depth > 0 && isBlockElement(tagName) {
		c.builder.WriteString("\n")
		c.builder.WriteString(strings.Repeat("  ", depth))
	}

	c.builder.WriteString("<")
	c.builder.WriteString(tagName)
	for _, attr := range n.Attr {
		if shouldPreserveAttribute(tagName, attr.Key, attr.Val) {
			fmt.Fprintf(&c.builder, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	c.builder.WriteString(">")
	c.length += len(tagName) + 2

	truncated := c.children(n, depth+1)

	if !isVoidElement(tagName) {
		if isBlockElement(tagName) && n.FirstChild != nil && n.FirstChild.Type == html.ElementNode {
			c.builder.WriteString("\n")
			c.builder.WriteString(strings.Repeat("  ", depth))
		}
		c.builder.WriteString("</")
		c.builder.WriteString(tagName)
		c.builder.WriteString(">")
		c.length += len(tagName) + 3
	}

	return truncated
}

func (c *cleaner) children(n *html.Node, depth int) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if c.node(child, depth) {
			return true
		}
	}
	return false
}

// isSkippedElement returns true for elements removed with their content.
// Buttons in a message are the chat UI's copy/feedback controls.
func isSkippedElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg", "button", "template":
		return true
	}
	return false
}

func isBlockElement(tagName string) bool {
	switch tagName {
	case "div", "p", "section", "article", "header", "footer",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "table", "thead", "tbody", "tr", "td", "th",
		"blockquote", "pre":
		return true
	}
	return false
}

func isVoidElement(tagName string) bool {
	switch tagName {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}

// shouldPreserveAttribute keeps only attributes that carry meaning in a message.
func shouldPreserveAttribute(tagName, attrName, value string) bool {
	attrName = strings.ToLower(attrName)

	switch tagName {
	case "a":
		return attrName == "href"
	case "img":
		return attrName == "src" || attrName == "alt"
	case "code":
		// Keeps the highlight language of fenced code blocks
		return attrName == "class" && strings.Contains(value, "language-")
	case "ol":
		return attrName == "start"
	case "td", "th":
		return attrName == "colspan" || attrName == "rowspan"
	}
	return false
}

package browser

import (
	"fmt"
	"sort"
	"strings"
)

// Control names a UI element of the chat page the bridge interacts with.
type Control string

const (
	// ControlInput is the prompt-entry control. Its presence means logged in.
	ControlInput Control = "input"

	// ControlSubmit is the send-action control
	ControlSubmit Control = "submit"

	// ControlStreaming is the transient marker present while a response streams
	ControlStreaming Control = "streaming"

	// ControlAssistantMessage matches every assistant-authored message
	ControlAssistantMessage Control = "assistant_message"
)

// Controls lists every known control.
var Controls = []Control{
	ControlInput,
	ControlSubmit,
	ControlStreaming,
	ControlAssistantMessage,
}

// Selectors maps each control to its structural selector.
type Selectors map[Control]string

// DefaultSelectors returns the selectors for the current chat UI.
func DefaultSelectors() Selectors {
	return Selectors{
		ControlInput:            "#prompt-textarea",
		ControlSubmit:           "button[data-testid='send-button']",
		ControlStreaming:        ".result-streaming",
		ControlAssistantMessage: "div[data-message-author-role='assistant']",
	}
}

// IsKnownControl reports whether c is one of Controls.
func IsKnownControl(c Control) bool {
	for _, known := range Controls {
		if known == c {
			return true
		}
	}
	return false
}

// Get returns the selector for c.
func (s Selectors) Get(c Control) (string, error) {
	sel, ok := s[c]
	if !ok || strings.TrimSpace(sel) == "" {
		return "", fmt.Errorf("no selector configured for control %q", c)
	}
	return sel, nil
}

// Merge returns a copy of s with every non-empty entry of overrides applied.
func (s Selectors) Merge(overrides Selectors) Selectors {
	merged := make(Selectors, len(s))
	for c, sel := range s {
		merged[c] = sel
	}
	for c, sel := range overrides {
		if strings.TrimSpace(sel) != "" {
			merged[c] = sel
		}
	}
	return merged
}

// Validate checks that every control has a selector and no unknown control is set.
func (s Selectors) Validate() error {
	var unknown []string
	for c := range s {
		if !IsKnownControl(c) {
			unknown = append(unknown, string(c))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown controls: %s", strings.Join(unknown, ", "))
	}

	for _, c := range Controls {
		if _, err := s.Get(c); err != nil {
			return err
		}
	}
	return nil
}

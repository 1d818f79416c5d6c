package config

import (
	"sync"

	"github.com/entrhq/chatrelay/pkg/browser"
)

// SectionIDSelectors is the identifier for the selector table section
const SectionIDSelectors = "selectors"

// SelectorsSection holds the structural selectors of the chat UI. Editing it
// is how chatrelay follows UI changes.
type SelectorsSection struct {
	selectors browser.Selectors
	mu        sync.RWMutex
}

// NewSelectorsSection creates a section holding the default selectors.
func NewSelectorsSection() *SelectorsSection {
	return &SelectorsSection{selectors: browser.DefaultSelectors()}
}

// ID returns the section identifier.
func (s *SelectorsSection) ID() string {
	return SectionIDSelectors
}

// Title returns the section title.
func (s *SelectorsSection) Title() string {
	return "UI Selectors"
}

// Description returns the section description.
func (s *SelectorsSection) Description() string {
	return "CSS selectors for the chat input, send button, streaming marker and assistant messages."
}

// Data returns the current configuration data.
func (s *SelectorsSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]interface{}, len(s.selectors))
	for control, sel := range s.selectors {
		data[string(control)] = sel
	}
	return data
}

// SetData merges stored selectors over the current ones.
func (s *SelectorsSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	overrides := make(browser.Selectors, len(data))
	for key, value := range data {
		sel, err := parseString(key, value)
		if err != nil {
			return err
		}
		overrides[browser.Control(key)] = sel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectors = s.selectors.Merge(overrides)
	return nil
}

// Validate validates the current configuration.
func (s *SelectorsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectors.Validate()
}

// Reset resets the section to default configuration.
func (s *SelectorsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectors = browser.DefaultSelectors()
}

// Selectors returns a copy of the selector table.
func (s *SelectorsSection) Selectors() browser.Selectors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectors.Merge(nil)
}

// SetSelector overrides the selector of one control.
func (s *SelectorsSection) SetSelector(control browser.Control, selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectors = s.selectors.Merge(browser.Selectors{control: selector})
}

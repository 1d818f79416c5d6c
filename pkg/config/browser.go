package config

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/entrhq/chatrelay/pkg/browser"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"

	DriverPlaywright = "playwright"
	DriverRod        = "rod"
)

// BrowserSection configures how the chat session's browser is launched.
// BrowserType only applies to the playwright driver; rod always drives Chromium.
type BrowserSection struct {
	Driver      string
	BrowserType string
	TargetURL   string
	ProfileDir  string
	Headless    bool
	RodBin      string
	mu          sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser Settings"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure the automation driver, browser, chat URL and persistent profile directory. Headless mode prevents logging in by hand."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"driver":       s.Driver,
		"browser_type": s.BrowserType,
		"target_url":   s.TargetURL,
		"profile_dir":  s.ProfileDir,
		"headless":     s.Headless,
		"rod_bin":      s.RodBin,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "driver":
			s.Driver, err = parseString(key, value)
		case "browser_type":
			s.BrowserType, err = parseString(key, value)
		case "target_url":
			s.TargetURL, err = parseString(key, value)
		case "profile_dir":
			s.ProfileDir, err = parseString(key, value)
		case "headless":
			s.Headless, err = parseBool(key, value)
		case "rod_bin":
			s.RodBin, err = parseString(key, value)
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Driver {
	case DriverPlaywright, DriverRod:
	default:
		return fmt.Errorf("invalid driver: %s (must be '%s' or '%s')", s.Driver, DriverPlaywright, DriverRod)
	}

	switch s.BrowserType {
	case "firefox", "chromium", "webkit":
	default:
		return fmt.Errorf("invalid browser_type: %s (must be 'firefox', 'chromium' or 'webkit')", s.BrowserType)
	}

	u, err := url.Parse(s.TargetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid target_url: %q", s.TargetURL)
	}

	if s.ProfileDir == "" {
		return fmt.Errorf("profile_dir cannot be empty")
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Driver = DriverPlaywright
	s.BrowserType = browser.DefaultBrowserType
	s.TargetURL = browser.DefaultTargetURL
	s.ProfileDir = browser.DefaultProfileDir
	s.Headless = false
	s.RodBin = ""
}

// Snapshot returns a copy of the settings safe to read without locking.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BrowserSettings{
		Driver:      s.Driver,
		BrowserType: s.BrowserType,
		TargetURL:   s.TargetURL,
		ProfileDir:  s.ProfileDir,
		Headless:    s.Headless,
		RodBin:      s.RodBin,
	}
}

// BrowserSettings is a plain copy of BrowserSection.
type BrowserSettings struct {
	Driver      string
	BrowserType string
	TargetURL   string
	ProfileDir  string
	Headless    bool
	RodBin      string
}

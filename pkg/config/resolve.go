package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/entrhq/chatrelay/pkg/browser"
)

// Environment variables consulted by Resolve.
const (
	EnvProfile   = "CHATRELAY_PROFILE"
	EnvPort      = "CHATRELAY_PORT"
	EnvTargetURL = "CHATRELAY_TARGET_URL"
	EnvDriver    = "CHATRELAY_DRIVER"

	DefaultPort = 5001
)

// Overrides carries values given explicitly on the command line. Empty
// fields are unset.
type Overrides struct {
	ProfileDir string
	Port       int
	TargetURL  string
	Driver     string
}

// Settings is the effective runtime configuration.
type Settings struct {
	Browser         BrowserSettings
	Selectors       browser.Selectors
	ResponseTimeout time.Duration
	PollInterval    time.Duration
	Port            int
}

// Resolve layers flags over environment over the loaded sections of m.
// getenv is usually os.Getenv.
func Resolve(m *Manager, flags Overrides, getenv func(string) string) (*Settings, error) {
	browserSection := BrowserOf(m)
	bridgeSection := BridgeOf(m)
	selectorsSection := SelectorsOf(m)
	if browserSection == nil || bridgeSection == nil || selectorsSection == nil {
		return nil, fmt.Errorf("config manager is missing a required section")
	}

	settings := &Settings{
		Browser:         browserSection.Snapshot(),
		Selectors:       selectorsSection.Selectors(),
		ResponseTimeout: bridgeSection.GetResponseTimeout(),
		PollInterval:    bridgeSection.GetPollInterval(),
		Port:            DefaultPort,
	}

	if getenv != nil {
		if v := getenv(EnvProfile); v != "" {
			settings.Browser.ProfileDir = v
		}
		if v := getenv(EnvTargetURL); v != "" {
			settings.Browser.TargetURL = v
		}
		if v := getenv(EnvDriver); v != "" {
			settings.Browser.Driver = v
		}
		if v := getenv(EnvPort); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
			}
			settings.Port = port
		}
	}

	if flags.ProfileDir != "" {
		settings.Browser.ProfileDir = flags.ProfileDir
	}
	if flags.TargetURL != "" {
		settings.Browser.TargetURL = flags.TargetURL
	}
	if flags.Driver != "" {
		settings.Browser.Driver = flags.Driver
	}
	if flags.Port != 0 {
		settings.Port = flags.Port
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the merged settings with the same rules as the sections.
func (s *Settings) Validate() error {
	check := NewBrowserSection()
	if err := check.SetData(map[string]interface{}{
		"driver":       s.Browser.Driver,
		"browser_type": s.Browser.BrowserType,
		"target_url":   s.Browser.TargetURL,
		"profile_dir":  s.Browser.ProfileDir,
		"headless":     s.Browser.Headless,
		"rod_bin":      s.Browser.RodBin,
	}); err != nil {
		return err
	}
	if err := check.Validate(); err != nil {
		return err
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s *Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

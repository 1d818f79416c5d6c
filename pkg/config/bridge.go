package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDBridge is the identifier for the exchange settings section
	SectionIDBridge = "bridge"

	defaultResponseTimeout = 60 * time.Second
	defaultPollInterval    = 250 * time.Millisecond
	minResponseTimeout     = time.Second
	maxResponseTimeout     = 10 * time.Minute
	minPollInterval        = 10 * time.Millisecond
)

// BridgeSection configures completion detection for exchanges.
type BridgeSection struct {
	ResponseTimeout time.Duration
	PollInterval    time.Duration
	mu              sync.RWMutex
}

// NewBridgeSection creates a bridge section with default settings.
func NewBridgeSection() *BridgeSection {
	return &BridgeSection{
		ResponseTimeout: defaultResponseTimeout,
		PollInterval:    defaultPollInterval,
	}
}

// ID returns the section identifier.
func (s *BridgeSection) ID() string {
	return SectionIDBridge
}

// Title returns the section title.
func (s *BridgeSection) Title() string {
	return "Exchange Settings"
}

// Description returns the section description.
func (s *BridgeSection) Description() string {
	return "Configure how long to wait for a streamed response and how often to poll for completion."
}

// Data returns the current configuration data.
func (s *BridgeSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"response_timeout": s.ResponseTimeout.String(),
		"poll_interval":    s.PollInterval.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *BridgeSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "response_timeout":
			d, err := parseDuration(key, value)
			if err != nil {
				return err
			}
			s.ResponseTimeout = d
		case "poll_interval":
			d, err := parseDuration(key, value)
			if err != nil {
				return err
			}
			s.PollInterval = d
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BridgeSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ResponseTimeout < minResponseTimeout || s.ResponseTimeout > maxResponseTimeout {
		return fmt.Errorf("response_timeout must be between %s and %s, got %s", minResponseTimeout, maxResponseTimeout, s.ResponseTimeout)
	}
	if s.PollInterval < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, s.PollInterval)
	}
	if s.PollInterval >= s.ResponseTimeout {
		return fmt.Errorf("poll_interval (%s) must be shorter than response_timeout (%s)", s.PollInterval, s.ResponseTimeout)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BridgeSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResponseTimeout = defaultResponseTimeout
	s.PollInterval = defaultPollInterval
}

// GetResponseTimeout returns the completion deadline.
func (s *BridgeSection) GetResponseTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ResponseTimeout
}

// GetPollInterval returns the completion poll interval.
func (s *BridgeSection) GetPollInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PollInterval
}

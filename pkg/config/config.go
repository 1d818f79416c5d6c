package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// NewDefaultManager creates a manager over store with the browser, bridge
// and selectors sections registered, without loading.
func NewDefaultManager(store Store) (*Manager, error) {
	manager := NewManager(store)

	if err := manager.RegisterSection(NewBrowserSection()); err != nil {
		return nil, err
	}
	if err := manager.RegisterSection(NewBridgeSection()); err != nil {
		return nil, err
	}
	if err := manager.RegisterSection(NewSelectorsSection()); err != nil {
		return nil, err
	}

	return manager, nil
}

// Initialize creates and initializes the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager, err := NewDefaultManager(store)
	if err != nil {
		return err
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetBrowser returns the browser section from global config.
// Returns nil if config is not initialized.
func GetBrowser() *BrowserSection {
	if !IsInitialized() {
		return nil
	}
	return BrowserOf(Global())
}

// GetBridge returns the bridge section from global config.
// Returns nil if config is not initialized.
func GetBridge() *BridgeSection {
	if !IsInitialized() {
		return nil
	}
	return BridgeOf(Global())
}

// GetSelectors returns the selectors section from global config.
// Returns nil if config is not initialized.
func GetSelectors() *SelectorsSection {
	if !IsInitialized() {
		return nil
	}
	return SelectorsOf(Global())
}

// BrowserOf returns m's browser section, or nil.
func BrowserOf(m *Manager) *BrowserSection {
	section, ok := m.GetSection(SectionIDBrowser)
	if !ok {
		return nil
	}
	browserSection, _ := section.(*BrowserSection)
	return browserSection
}

// BridgeOf returns m's bridge section, or nil.
func BridgeOf(m *Manager) *BridgeSection {
	section, ok := m.GetSection(SectionIDBridge)
	if !ok {
		return nil
	}
	bridgeSection, _ := section.(*BridgeSection)
	return bridgeSection
}

// SelectorsOf returns m's selectors section, or nil.
func SelectorsOf(m *Manager) *SelectorsSection {
	section, ok := m.GetSection(SectionIDSelectors)
	if !ok {
		return nil
	}
	selectorsSection, _ := section.(*SelectorsSection)
	return selectorsSection
}

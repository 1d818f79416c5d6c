package main

import (
	"github.com/entrhq/chatrelay/pkg/browser"
	appconfig "github.com/entrhq/chatrelay/pkg/config"
)

// newDriver returns the automation driver named in settings.
func newDriver(settings appconfig.BrowserSettings) browser.Driver {
	if settings.Driver == appconfig.DriverRod {
		return browser.NewRodDriver(settings.RodBin)
	}
	return browser.NewPlaywrightDriver(browser.WithBrowserType(settings.BrowserType))
}

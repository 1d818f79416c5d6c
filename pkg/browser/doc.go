// Package browser owns the one interactive browser session chatrelay drives.
//
// A Session is bound to a persistent profile directory so that a human can
// log in once in the visible window and the login survives restarts. The
// package exposes readiness detection (is the chat input on the page?) and
// selector-table lookups; the raw page handle never leaves the package.
//
// # Drivers
//
// Browser automation is provided by a Driver:
//
//   - PlaywrightDriver: playwright-go, launches a persistent context (firefox by default)
//   - RodDriver: go-rod over the Chrome DevTools Protocol, for hosts without the playwright driver
//
// # Selectors
//
// Every structural selector lives in a Selectors table keyed by Control.
// The chat UI is third-party and changes without notice, so selectors are
// configuration, not code:
//
//	sels := browser.DefaultSelectors()
//	sels[browser.ControlSubmit] = "button[aria-label='Send prompt']"
//
//	session, err := browser.Open(driver, browser.Options{
//	    ProfileDir: "/tmp/playwright",
//	    TargetURL:  "https://chat.openai.com/",
//	    Selectors:  sels,
//	})
//	if session.IsReady() {
//	    // input control present: logged in
//	}
package browser

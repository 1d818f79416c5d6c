package browser

import "time"

// Element is a handle to one element of the live document.
type Element interface {
	// Click clicks the element, focusing it
	Click() error

	// Fill replaces the element's content with text
	Fill(text string) error

	// InnerText returns the rendered text of the element
	InnerText() (string, error)

	// InnerHTML returns the markup inside the element
	InnerHTML() (string, error)
}

// Page is the document of the controlled browser page.
type Page interface {
	// Goto navigates the page to url
	Goto(url string) error

	// QuerySelector returns the first element matching selector, or nil
	// without an error when nothing matches
	QuerySelector(selector string) (Element, error)

	// QuerySelectorAll returns every element matching selector in document order
	QuerySelectorAll(selector string) ([]Element, error)

	// URL returns the current page URL
	URL() string

	// Close closes the page
	Close() error
}

// Driver launches the browser for a session.
type Driver interface {
	// Name identifies the driver in logs and config
	Name() string

	// Launch starts a browser bound to opts.ProfileDir and returns its one page
	Launch(opts LaunchOptions) (Page, error)

	// Close releases the browser and any driver process
	Close() error
}

// LaunchOptions configures Driver.Launch.
type LaunchOptions struct {
	// ProfileDir is the persistent user data directory
	ProfileDir string

	// Headless hides the browser window. The login flow needs it visible.
	Headless bool

	// Timeout is the default timeout for provider operations
	Timeout time.Duration
}

// Default values for sessions
const (
	DefaultTargetURL   = "https://chat.openai.com/"
	DefaultProfileDir  = "/tmp/playwright"
	DefaultTimeout     = 30 * time.Second
	DefaultBrowserType = "firefox"
)

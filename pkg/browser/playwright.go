package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver launches a persistent browser context through playwright-go.
type PlaywrightDriver struct {
	mu          sync.Mutex
	browserType string
	install     bool
	playwright  *playwright.Playwright
	context     playwright.BrowserContext
}

// PlaywrightOption configures a PlaywrightDriver.
type PlaywrightOption func(*PlaywrightDriver)

// WithBrowserType selects firefox, chromium or webkit.
func WithBrowserType(name string) PlaywrightOption {
	return func(d *PlaywrightDriver) {
		d.browserType = name
	}
}

// WithoutInstall skips installing the playwright driver and browsers.
func WithoutInstall() PlaywrightOption {
	return func(d *PlaywrightDriver) {
		d.install = false
	}
}

// NewPlaywrightDriver creates a driver. Nothing starts until Launch.
func NewPlaywrightDriver(opts ...PlaywrightOption) *PlaywrightDriver {
	d := &PlaywrightDriver{
		browserType: DefaultBrowserType,
		install:     true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the driver name.
func (d *PlaywrightDriver) Name() string {
	return "playwright/" + d.browserType
}

// Launch installs and starts playwright, then launches a persistent context
// rooted at opts.ProfileDir and opens one page in it.
func (d *PlaywrightDriver) Launch(opts LaunchOptions) (Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.context != nil {
		return nil, fmt.Errorf("browser already launched")
	}

	// Keep driver output off stdout, which belongs to the CLI
	runOpts := &playwright.RunOptions{
		Browsers: []string{d.browserType},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if d.install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	d.playwright = pw

	browserType, err := d.selectBrowserType()
	if err != nil {
		return nil, err
	}

	contextOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	ctx, err := browserType.LaunchPersistentContext(opts.ProfileDir, contextOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch persistent context: %w", err)
	}
	d.context = ctx

	page, err := ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if opts.Timeout > 0 {
		page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}

	return &playwrightPage{page: page}, nil
}

func (d *PlaywrightDriver) selectBrowserType() (playwright.BrowserType, error) {
	switch d.browserType {
	case "firefox":
		return d.playwright.Firefox, nil
	case "chromium":
		return d.playwright.Chromium, nil
	case "webkit":
		return d.playwright.WebKit, nil
	default:
		return nil, fmt.Errorf("unsupported browser type: %s", d.browserType)
	}
}

// Close closes the browser context and stops playwright.
func (d *PlaywrightDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.context != nil {
		if err := d.context.Close(); err != nil {
			errs = append(errs, err)
		}
		d.context = nil
	}
	if d.playwright != nil {
		if err := d.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		d.playwright = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing playwright: %v", errs)
	}
	return nil
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(url string) error {
	waitUntil := playwright.WaitUntilStateDomcontentloaded
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{WaitUntil: waitUntil}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) QuerySelector(selector string) (Element, error) {
	handle, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, nil
	}
	return &playwrightElement{handle: handle}, nil
}

func (p *playwrightPage) QuerySelectorAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, &playwrightElement{handle: handle})
	}
	return elements, nil
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) Click() error {
	return e.handle.Click()
}

func (e *playwrightElement) Fill(text string) error {
	return e.handle.Fill(text)
}

func (e *playwrightElement) InnerText() (string, error) {
	return e.handle.InnerText()
}

func (e *playwrightElement) InnerHTML() (string, error) {
	return e.handle.InnerHTML()
}

package browser

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodDriver launches Chromium over the DevTools protocol with go-rod.
type RodDriver struct {
	mu       sync.Mutex
	bin      string
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRodDriver creates a driver. An empty bin looks up a local Chromium and
// falls back to rod's managed download.
func NewRodDriver(bin string) *RodDriver {
	return &RodDriver{bin: bin}
}

// Name returns the driver name.
func (d *RodDriver) Name() string {
	return "rod/chromium"
}

// Launch starts Chromium with opts.ProfileDir as its user data directory and
// opens one page.
func (d *RodDriver) Launch(opts LaunchOptions) (Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser != nil {
		return nil, fmt.Errorf("browser already launched")
	}

	bin := d.bin
	if bin == "" {
		if path, found := launcher.LookPath(); found {
			bin = path
		}
	}

	l := launcher.New().
		UserDataDir(opts.ProfileDir).
		Headless(opts.Headless).
		Leakless(true)
	if bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	d.launcher = l

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		d.launcher = nil
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	d.browser = browser

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &rodPage{page: page}, nil
}

// Close closes the browser and removes the launcher's process.
func (d *RodDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher = nil
	}
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Goto(url string) error {
	if err := p.page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.page.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for load failed: %w", err)
	}
	return nil
}

// QuerySelector uses Has, which does not wait for the element to appear.
func (p *rodPage) QuerySelector(selector string) (Element, error) {
	found, el, err := p.page.Has(selector)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &rodElement{el: el}, nil
}

func (p *rodPage) QuerySelectorAll(selector string) ([]Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(els))
	for _, el := range els {
		elements = append(elements, &rodElement{el: el})
	}
	return elements, nil
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

// Fill clears the element before typing, matching playwright's fill.
func (e *rodElement) Fill(text string) error {
	if err := e.el.SelectAllText(); err == nil {
		if err := e.el.Input(""); err != nil {
			return err
		}
	}
	return e.el.Input(text)
}

func (e *rodElement) InnerText() (string, error) {
	return e.el.Text()
}

func (e *rodElement) InnerHTML() (string, error) {
	res, err := e.el.Eval(`() => this.innerHTML`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

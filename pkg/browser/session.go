package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/entrhq/chatrelay/pkg/logging"
)

// noCopy makes go vet flag copies of a Session.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Options configures Open.
type Options struct {
	// ProfileDir is the persistent profile directory, created if missing
	ProfileDir string

	// TargetURL is the chat page the session is navigated to
	TargetURL string

	// Headless hides the browser window
	Headless bool

	// Timeout is the default provider operation timeout
	Timeout time.Duration

	// Selectors overrides the default selector table
	Selectors Selectors

	Logger *logging.Logger
}

// Session is the single browser page chatrelay drives. Only one exists per
// process and it must not be copied; pass *Session.
type Session struct {
	_ noCopy

	profileDir string
	targetURL  string
	driver     Driver
	page       Page
	selectors  Selectors
	logger     *logging.Logger
	createdAt  time.Time
}

// Open launches the browser through driver, bound to opts.ProfileDir, and
// navigates its page to opts.TargetURL. Every failure is a *StartupError and
// leaves nothing running.
func Open(driver Driver, opts Options) (*Session, error) {
	if opts.ProfileDir == "" {
		opts.ProfileDir = DefaultProfileDir
	}
	if opts.TargetURL == "" {
		opts.TargetURL = DefaultTargetURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	selectors := DefaultSelectors().Merge(opts.Selectors)
	if err := selectors.Validate(); err != nil {
		return nil, &StartupError{Stage: "selectors", Err: err}
	}

	if err := ensureProfileDir(opts.ProfileDir); err != nil {
		return nil, &StartupError{Stage: "profile", Err: err}
	}

	opts.Logger.Infof("launching %s browser with profile %s (headless=%v)", driver.Name(), opts.ProfileDir, opts.Headless)
	page, err := driver.Launch(LaunchOptions{
		ProfileDir: opts.ProfileDir,
		Headless:   opts.Headless,
		Timeout:    opts.Timeout,
	})
	if err != nil {
		_ = driver.Close()
		return nil, &StartupError{Stage: "launch", Err: err}
	}

	if err := page.Goto(opts.TargetURL); err != nil {
		_ = page.Close()
		_ = driver.Close()
		return nil, &StartupError{Stage: "navigate", Err: err}
	}
	opts.Logger.Infof("session open at %s", page.URL())

	return &Session{
		profileDir: opts.ProfileDir,
		targetURL:  opts.TargetURL,
		driver:     driver,
		page:       page,
		selectors:  selectors,
		logger:     opts.Logger,
		createdAt:  time.Now(),
	}, nil
}

func ensureProfileDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(dir, 0700); mkErr != nil {
			return fmt.Errorf("failed to create profile directory: %w", mkErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat profile directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("profile path %q is not a directory", dir)
	}
	return nil
}

// LocateInputControl finds the prompt-entry control. A nil element with a
// nil error means the control is absent, which is the normal state before
// login.
func (s *Session) LocateInputControl() (Element, error) {
	return s.Find(ControlInput)
}

// IsReady reports whether the session can accept a prompt. It never fails:
// lookup errors, transient or not, count as not ready.
func (s *Session) IsReady() bool {
	el, err := s.LocateInputControl()
	if err != nil {
		if !IsTransient(err) {
			s.logger.Warnf("readiness probe failed: %v", err)
		}
		return false
	}
	return el != nil
}

// WaitReady polls IsReady every interval until it is true or ctx is done.
func (s *Session) WaitReady(ctx context.Context, interval time.Duration) error {
	if s.IsReady() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.IsReady() {
				s.logger.Infof("session ready at %s", s.page.URL())
				return nil
			}
		}
	}
}

// Find returns the first element matching the selector for c, or nil when absent.
func (s *Session) Find(c Control) (Element, error) {
	sel, err := s.selectors.Get(c)
	if err != nil {
		return nil, err
	}
	el, err := s.page.QuerySelector(sel)
	if err != nil {
		return nil, fmt.Errorf("query %s (%s): %w", c, sel, classify(err))
	}
	return el, nil
}

// FindAll returns every element matching the selector for c in document order.
func (s *Session) FindAll(c Control) ([]Element, error) {
	sel, err := s.selectors.Get(c)
	if err != nil {
		return nil, err
	}
	els, err := s.page.QuerySelectorAll(sel)
	if err != nil {
		return nil, fmt.Errorf("query all %s (%s): %w", c, sel, classify(err))
	}
	return els, nil
}

// Selector returns the configured selector for c.
func (s *Session) Selector(c Control) string {
	sel, _ := s.selectors.Get(c)
	return sel
}

// ProfileDir returns the profile directory the session is bound to.
func (s *Session) ProfileDir() string {
	return s.profileDir
}

// TargetURL returns the URL the session was opened at.
func (s *Session) TargetURL() string {
	return s.targetURL
}

// CurrentURL returns the page's current URL.
func (s *Session) CurrentURL() string {
	return s.page.URL()
}

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Close closes the page and the browser. Normal operation never calls it;
// process exit releases the session.
func (s *Session) Close() error {
	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.driver.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing session: %v", errs)
	}
	return nil
}

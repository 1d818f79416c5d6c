package browser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionStartup is matched by every error returned from Open
	ErrSessionStartup = errors.New("session startup failed")

	// ErrTransient reports a lookup that failed because the page is in a
	// transient state, e.g. mid-navigation
	ErrTransient = errors.New("page in transient state")
)

// StartupError describes why Open could not produce a session.
type StartupError struct {
	// Stage is the startup step that failed: profile, launch or navigate
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("session startup failed at %s: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSessionStartup) true for any StartupError.
func (e *StartupError) Is(target error) bool {
	return target == ErrSessionStartup
}

// transientMarkers are provider error fragments seen while a page navigates.
var transientMarkers = []string{
	"execution context was destroyed",
	"cannot find context with specified id",
	"frame was detached",
	"most likely because of a navigation",
	"cannot read properties of null",
	"no such property",
}

// classify wraps err with ErrTransient when it looks like a transient page state.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
	}
	return err
}

// IsTransient reports whether err is a transient page-state failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

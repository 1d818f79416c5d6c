package bridge

import (
	"errors"
	"fmt"
)

// Error kinds returned by Exchange. Match them with errors.Is.
var (
	ErrControlNotFound       = errors.New("input control not found")
	ErrInputRejected         = errors.New("input control rejected the prompt")
	ErrSubmitControlNotFound = errors.New("submit control not found")
	ErrResponseTimeout       = errors.New("response did not complete in time")
)

// ExchangeError is the error returned by a failed exchange.
type ExchangeError struct {
	// Kind is one of the Err* kinds above
	Kind error

	// State is how far the exchange got
	State State

	// Selector is the selector involved, when there is one
	Selector string

	Err error
}

func (e *ExchangeError) Error() string {
	msg := e.Kind.Error()
	if e.Selector != "" {
		msg = fmt.Sprintf("%s (selector %q)", msg, e.Selector)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

func (e *ExchangeError) Is(target error) bool {
	return target == e.Kind
}

// KindOf returns the exchange error kind of err, or nil.
func KindOf(err error) error {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Kind
	}
	return nil
}

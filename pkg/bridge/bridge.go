// Package bridge turns a prompt into a response by driving the chat page
// held by a browser session.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/chatrelay/pkg/browser"
	"github.com/entrhq/chatrelay/pkg/logging"
)

const (
	DefaultTimeout      = 60 * time.Second
	DefaultPollInterval = 250 * time.Millisecond

	// NoResponseText is returned, as a successful response, when the stream
	// completed but no assistant message is on the page. Callers cannot tell
	// it apart from a reply with the same text; check Last().Response or the
	// chatrelay_exchanges_total{outcome="no_response"} counter.
	NoResponseText = "No response received"
)

// Session is the part of *browser.Session an exchange needs.
type Session interface {
	Find(c browser.Control) (browser.Element, error)
	FindAll(c browser.Control) ([]browser.Element, error)
}

// selectorSource is implemented by sessions that can name their selectors.
type selectorSource interface {
	Selector(c browser.Control) string
}

// Format selects how the response text is extracted.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// ParseFormat parses a format name. Empty means FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown response format %q (must be %q or %q)", s, FormatText, FormatHTML)
	}
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout bounds how long an exchange waits for the response to finish streaming.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithPollInterval sets how often the streaming marker is checked.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.interval = d
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithClock(c Clock) Option {
	return func(b *Bridge) {
		if c != nil {
			b.clock = c
		}
	}
}

// Bridge runs exchanges one at a time against a single session.
type Bridge struct {
	session  Session
	timeout  time.Duration
	interval time.Duration
	logger   *logging.Logger
	clock    Clock

	// mu serializes exchanges; the page has one input box.
	mu   sync.Mutex
	last Exchange
}

// New creates a bridge over session.
func New(session Session, opts ...Option) *Bridge {
	b := &Bridge{
		session:  session,
		timeout:  DefaultTimeout,
		interval: DefaultPollInterval,
		logger:   logging.Discard(),
		clock:    realClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Timeout returns the completion deadline.
func (b *Bridge) Timeout() time.Duration {
	return b.timeout
}

// readinessSource is implemented by sessions with their own login check.
type readinessSource interface {
	IsReady() bool
}

// IsReady reports whether the input control is present. It shares the
// exchange lock so the check never touches the page during an exchange; an
// exchange in progress already found the input control and counts as ready.
func (b *Bridge) IsReady() bool {
	if !b.mu.TryLock() {
		return true
	}
	defer b.mu.Unlock()

	if src, ok := b.session.(readinessSource); ok {
		return src.IsReady()
	}
	el, err := b.session.Find(browser.ControlInput)
	return err == nil && el != nil
}

// Last returns the most recent exchange record.
func (b *Bridge) Last() Exchange {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Exchange submits prompt and returns the reply as plain text.
func (b *Bridge) Exchange(ctx context.Context, prompt string) (string, error) {
	return b.ExchangeAs(ctx, prompt, FormatText)
}

// ExchangeAs submits prompt and returns the last assistant message in the
// requested format. Concurrent calls queue; each sees the page to itself.
func (b *Bridge) ExchangeAs(ctx context.Context, prompt string, format Format) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ex := &Exchange{
		Prompt:    prompt,
		Format:    format,
		StartedAt: b.clock.Now(),
		State:     StateIdle,
	}

	response, err := b.run(ctx, ex)

	ex.CompletedAt = b.clock.Now()
	b.last = *ex

	outcome := outcomeLabel(err, response)
	metricExchanges.WithLabelValues(outcome).Inc()
	metricExchangeDuration.Observe(ex.Duration().Seconds())
	if ex.Outcome.Polls > 0 {
		metricCompletionPolls.Observe(float64(ex.Outcome.Polls))
	}

	if err != nil {
		b.logger.Warnf("Exchange failed in state %s after %s: %v", ex.State, ex.Duration(), err)
		return "", err
	}
	b.logger.Infof("Exchange %s in %s (%d polls, %d chars)", outcome, ex.Duration(), ex.Outcome.Polls, len(response))
	return response, nil
}

func (b *Bridge) run(ctx context.Context, ex *Exchange) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("exchange not started: %w", err)
	}

	// The input control is looked up fresh every time; the page may have
	// re-rendered since the last exchange.
	input, err := b.session.Find(browser.ControlInput)
	if err != nil {
		return "", b.fail(ErrControlNotFound, ex.State, browser.ControlInput, err)
	}
	if input == nil {
		return "", b.fail(ErrControlNotFound, ex.State, browser.ControlInput, nil)
	}
	ex.State = StateInputLocated

	if err := input.Click(); err != nil {
		return "", b.fail(ErrInputRejected, ex.State, browser.ControlInput, fmt.Errorf("focus: %w", err))
	}
	if err := input.Fill(ex.Prompt); err != nil {
		return "", b.fail(ErrInputRejected, ex.State, browser.ControlInput, fmt.Errorf("fill: %w", err))
	}
	b.logger.Debugf("Filled prompt (%d chars)", len(ex.Prompt))

	submit, err := b.session.Find(browser.ControlSubmit)
	if err != nil {
		return "", b.fail(ErrSubmitControlNotFound, ex.State, browser.ControlSubmit, err)
	}
	if submit == nil {
		return "", b.fail(ErrSubmitControlNotFound, ex.State, browser.ControlSubmit, nil)
	}
	if err := submit.Click(); err != nil {
		return "", b.fail(ErrSubmitControlNotFound, ex.State, browser.ControlSubmit, fmt.Errorf("click: %w", err))
	}
	ex.State = StateSubmitted
	b.logger.Debugf("Prompt submitted, waiting for response to finish streaming")

	ex.State = StateStreaming
	outcome, err := b.awaitCompletion(ctx)
	ex.Outcome = outcome
	if err != nil {
		return "", fmt.Errorf("waiting for completion: %w", err)
	}

	switch outcome.Kind {
	case OutcomeTimedOut:
		ex.State = StateTimedOut
		return "", b.fail(ErrResponseTimeout, ex.State, browser.ControlStreaming,
			fmt.Errorf("still streaming after %s (%d polls)", outcome.Elapsed, outcome.Polls))
	case OutcomeAborted:
		return "", fmt.Errorf("exchange aborted while %s: %w", ex.State, ctx.Err())
	}
	ex.State = StateCompleted

	response, err := b.readResponse(ex.Format)
	if err != nil {
		return "", err
	}
	ex.Response = response
	return response, nil
}

// awaitCompletion polls the streaming marker until it is gone, the timeout
// passes or ctx is done. Only provider errors that are not transient are
// returned as errors.
//
// A marker that has not appeared by the first poll reads as already gone, so
// the exchange completes at once and returns whatever assistant message is
// last on the page, possibly the previous reply.
func (b *Bridge) awaitCompletion(ctx context.Context) (Outcome, error) {
	start := b.clock.Now()
	deadline := start.Add(b.timeout)
	outcome := Outcome{}

	for {
		outcome.Polls++
		marker, err := b.session.Find(browser.ControlStreaming)
		switch {
		case err != nil && browser.IsTransient(err):
			b.logger.Debugf("Transient error polling for completion: %v", err)
		case err != nil:
			outcome.Elapsed = b.clock.Now().Sub(start)
			return outcome, err
		case marker == nil:
			outcome.Kind = OutcomeCompleted
			outcome.Elapsed = b.clock.Now().Sub(start)
			return outcome, nil
		}

		now := b.clock.Now()
		if !now.Before(deadline) {
			outcome.Kind = OutcomeTimedOut
			outcome.Elapsed = now.Sub(start)
			return outcome, nil
		}

		select {
		case <-ctx.Done():
			outcome.Kind = OutcomeAborted
			outcome.Elapsed = b.clock.Now().Sub(start)
			return outcome, nil
		case <-b.clock.After(b.interval):
		}
	}
}

func (b *Bridge) readResponse(format Format) (string, error) {
	messages, err := b.session.FindAll(browser.ControlAssistantMessage)
	if err != nil {
		return "", fmt.Errorf("reading assistant messages: %w", err)
	}
	if len(messages) == 0 {
		b.logger.Warnf("Stream completed but no assistant message was found")
		return NoResponseText, nil
	}
	last := messages[len(messages)-1]

	if format == FormatHTML {
		raw, err := last.InnerHTML()
		if err != nil {
			return "", fmt.Errorf("reading assistant message HTML: %w", err)
		}
		cleaned, err := browser.CleanHTML(raw, 0)
		if err != nil {
			return "", err
		}
		return cleaned.HTML, nil
	}

	text, err := last.InnerText()
	if err != nil {
		return "", fmt.Errorf("reading assistant message text: %w", err)
	}
	return text, nil
}

func (b *Bridge) fail(kind error, state State, c browser.Control, err error) error {
	exErr := &ExchangeError{Kind: kind, State: state, Err: err}
	if src, ok := b.session.(selectorSource); ok {
		exErr.Selector = src.Selector(c)
	}
	return exErr
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

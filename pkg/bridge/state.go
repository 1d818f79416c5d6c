package bridge

import "time"

// State is a step of the exchange state machine:
// Idle -> InputLocated -> Submitted -> Streaming -> Completed | TimedOut.
type State int

const (
	StateIdle State = iota
	StateInputLocated
	StateSubmitted
	StateStreaming
	StateCompleted
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInputLocated:
		return "input_located"
	case StateSubmitted:
		return "submitted"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Exchange records one prompt/response round trip.
type Exchange struct {
	Prompt      string
	Response    string
	Format      Format
	StartedAt   time.Time
	CompletedAt time.Time
	State       State
	Outcome     Outcome
}

// Duration returns how long the exchange took, or zero if it never finished.
func (e Exchange) Duration() time.Duration {
	if e.CompletedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// OutcomeKind is how completion polling ended.
type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeTimedOut
	OutcomeAborted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome is the result of waiting for the streaming marker to clear.
type Outcome struct {
	Kind    OutcomeKind
	Elapsed time.Duration
	Polls   int
}

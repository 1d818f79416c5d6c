package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCompleted  = "completed"
	outcomeNoResponse = "no_response"
	outcomeTimedOut   = "timed_out"
	outcomeAborted    = "aborted"
	outcomeNoInput    = "control_not_found"
	outcomeRejected   = "input_rejected"
	outcomeNoSubmit   = "submit_control_not_found"
	outcomeError      = "error"
)

var (
	metricExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatrelay",
		Name:      "exchanges_total",
		Help:      "Prompt exchanges by outcome.",
	}, []string{"outcome"})

	metricExchangeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chatrelay",
		Name:      "exchange_duration_seconds",
		Help:      "Wall time from locating the input control to reading the response.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
	})

	metricCompletionPolls = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chatrelay",
		Name:      "completion_polls",
		Help:      "Streaming marker polls per exchange.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

func outcomeLabel(err error, response string) string {
	switch KindOf(err) {
	case nil:
	case ErrControlNotFound:
		return outcomeNoInput
	case ErrInputRejected:
		return outcomeRejected
	case ErrSubmitControlNotFound:
		return outcomeNoSubmit
	case ErrResponseTimeout:
		return outcomeTimedOut
	}
	if err != nil {
		if isContextErr(err) {
			return outcomeAborted
		}
		return outcomeError
	}
	if response == NoResponseText {
		return outcomeNoResponse
	}
	return outcomeCompleted
}

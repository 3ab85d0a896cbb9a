package source

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sells-group/property-profile/internal/model"
	"github.com/sells-group/property-profile/internal/resilience"
)

// Failure causes.
const (
	CauseTimeout       = "timeout"
	CauseCanceled      = "canceled"
	CauseHTTPStatus    = "http_status"
	CauseDecode        = "decode"
	CauseTransport     = "transport"
	CauseCircuitOpen   = "circuit_open"
	CausePanic         = "panic"
	CauseNotConfigured = "not_configured"
	CauseNoLocation    = "no_location"
)

// Outcome is the result of one adapter invocation: either a value with its
// provenance, or a failure.
type Outcome[T any] struct {
	Value      T
	Provenance model.Provenance
	Failure    *model.Failure
}

// OK reports whether the outcome is a success.
func (o Outcome[T]) OK() bool { return o.Failure == nil }

// Success builds a successful outcome.
func Success[T any](v T, source, url string) Outcome[T] {
	return Outcome[T]{
		Value: v,
		Provenance: model.Provenance{
			Source:    source,
			URL:       url,
			Timestamp: time.Now().UTC(),
		},
	}
}

// Fail builds a failed outcome.
func Fail[T any](cause, message string) Outcome[T] {
	return Outcome[T]{Failure: &model.Failure{Cause: cause, Message: message}}
}

// FailErr builds a failed outcome from an error.
func FailErr[T any](source string, err error) Outcome[T] {
	f := Classify(source, err)
	return Outcome[T]{Failure: &f}
}

// Classify converts err into a Failure with a machine-readable cause and a
// message that does not leak URLs or payloads.
func Classify(source string, err error) model.Failure {
	var (
		status *resilience.StatusError
		syntax *json.SyntaxError
		typ    *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.Failure{Cause: CauseTimeout, Message: source + " did not answer in time"}
	case errors.Is(err, context.Canceled):
		return model.Failure{Cause: CauseCanceled, Message: source + " request was canceled"}
	case errors.Is(err, resilience.ErrCircuitOpen):
		return model.Failure{Cause: CauseCircuitOpen, Message: source + " is temporarily disabled after repeated failures"}
	case errors.As(err, &status):
		return model.Failure{Cause: CauseHTTPStatus, Message: source + " answered with an error status"}
	case errors.As(err, &syntax), errors.As(err, &typ):
		return model.Failure{Cause: CauseDecode, Message: source + " returned an unreadable payload"}
	default:
		return model.Failure{Cause: CauseTransport, Message: source + " could not be reached"}
	}
}

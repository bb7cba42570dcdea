package dataset

import (
	"context"
	"errors"
)

// Outcome classifies how a single item (page, link, URL, or record file)
// finished. Every item ends in exactly one outcome.
type Outcome string

// Item outcomes.
const (
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeUnavailable   Outcome = "unavailable"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeTruncated     Outcome = "truncated"
	OutcomeTransport     Outcome = "transport"
	OutcomeHTTPStatus    Outcome = "http_status"
	OutcomePremium       Outcome = "premium"
	OutcomeStructure     Outcome = "structure"
	OutcomeIdentity      Outcome = "identity"
	OutcomeLanguage      Outcome = "language"
	OutcomeSerialization Outcome = "serialization"
	OutcomePersist       Outcome = "persist_failed"
	OutcomeCanceled      Outcome = "canceled"
	OutcomeUnknown       Outcome = "unknown"
)

// Outcomes lists every outcome in a stable order for reports.
var Outcomes = []Outcome{
	OutcomeSucceeded,
	OutcomeUnavailable,
	OutcomeSkipped,
	OutcomeTruncated,
	OutcomeTransport,
	OutcomeHTTPStatus,
	OutcomePremium,
	OutcomeStructure,
	OutcomeIdentity,
	OutcomeLanguage,
	OutcomeSerialization,
	OutcomePersist,
	OutcomeCanceled,
	OutcomeUnknown,
}

// Classify maps an error onto the fault taxonomy. It is total: nil is a
// success and anything not in the taxonomy is OutcomeUnknown.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSucceeded
	}
	var (
		transportErr *TransportError
		statusErr    *HTTPStatusError
	)
	switch {
	case errors.As(err, &transportErr):
		if errors.Is(err, context.Canceled) {
			return OutcomeCanceled
		}
		return OutcomeTransport
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.As(err, &statusErr):
		return OutcomeHTTPStatus
	case errors.Is(err, ErrContentPolicy):
		return OutcomePremium
	case errors.Is(err, ErrStructure):
		return OutcomeStructure
	case errors.Is(err, ErrIdentity):
		return OutcomeIdentity
	case errors.Is(err, ErrLanguage):
		return OutcomeLanguage
	case errors.Is(err, ErrSerialization):
		return OutcomeSerialization
	default:
		return OutcomeUnknown
	}
}

package dataset

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "nil", err: nil, want: OutcomeSucceeded},
		{name: "transport", err: &TransportError{URL: "u", Err: errors.New("reset")}, want: OutcomeTransport},
		{name: "wrapped transport", err: fmt.Errorf("fetch: %w", &TransportError{URL: "u", Err: errors.New("x")}), want: OutcomeTransport},
		{name: "transport canceled", err: &TransportError{URL: "u", Err: context.Canceled}, want: OutcomeCanceled},
		{name: "status", err: &HTTPStatusError{URL: "u", StatusCode: 404}, want: OutcomeHTTPStatus},
		{name: "premium", err: fmt.Errorf("extract: %w", ErrContentPolicy), want: OutcomePremium},
		{name: "structure", err: fmt.Errorf("%w: title not found", ErrStructure), want: OutcomeStructure},
		{name: "identity", err: ErrIdentity, want: OutcomeIdentity},
		{name: "language", err: ErrLanguage, want: OutcomeLanguage},
		{name: "serialization", err: ErrSerialization, want: OutcomeSerialization},
		{name: "canceled", err: context.Canceled, want: OutcomeCanceled},
		{name: "unknown", err: errors.New("disk on fire"), want: OutcomeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestHTTPStatusErrorMessage(t *testing.T) {
	t.Parallel()

	err := &HTTPStatusError{URL: "https://example.com", StatusCode: 503}
	assert.Equal(t, "unexpected status 503 for https://example.com", err.Error())
	assert.True(t, IsSuccessStatus(204))
	assert.False(t, IsSuccessStatus(301))
}

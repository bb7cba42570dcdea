package dataset

import (
	"errors"
	"fmt"
)

// Sentinel faults. Wrap them with fmt.Errorf("...: %w", ErrX) to add detail.
var (
	// ErrContentPolicy marks a paywalled (premium) article page.
	ErrContentPolicy = errors.New("content policy: premium page")
	// ErrStructure marks a page missing an expected content element.
	ErrStructure = errors.New("page structure")
	// ErrIdentity marks a URL that does not yield an article identity.
	ErrIdentity = errors.New("article identity")
	// ErrLanguage marks a language detection or tokenization failure.
	ErrLanguage = errors.New("language processing")
	// ErrSerialization marks a stored record that cannot be decoded.
	ErrSerialization = errors.New("record serialization")
)

// TransportError is a network-level failure (dial, TLS, timeout, reset).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a response with a non-2xx status code.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// IsSuccessStatus reports whether code is a 2xx status.
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

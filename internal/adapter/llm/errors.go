package llm

import (
	"errors"
	"fmt"
)

// ErrQuotaExhausted marks a quota/billing failure. Retrying cannot help, so
// the client surfaces it immediately without backoff.
var ErrQuotaExhausted = errors.New("llm: quota exhausted")

// ProviderError is a transient or terminal provider failure, surfaced after
// the client's retries are exhausted.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm: provider error, status %d: %s", e.StatusCode, e.Body)
}

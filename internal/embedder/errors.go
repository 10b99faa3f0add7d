package embedder

import "fmt"

// ServiceError reports a failure of the upstream embedding provider:
// an unreachable endpoint, a non-2xx response, or malformed output.
// It is a retryable condition — the Retrying wrapper retries it with
// backoff up to a bounded attempt count before surfacing it to the caller.
type ServiceError struct {
	// Backend names the embedding backend that failed (e.g. "openai", "ollama").
	Backend string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("embedder: %s: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

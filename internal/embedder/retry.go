package embedder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
)

// DefaultMaxRetries is the number of retry attempts after the initial call.
const DefaultMaxRetries = 3

// RetryingEmbedder wraps a rag.Embedder with bounded exponential backoff.
// Only *ServiceError values are retried; anything else is a programming
// error (bad request construction, cancelled context) and fails immediately.
type RetryingEmbedder struct {
	// inner is the wrapped embedder.
	inner rag.Embedder

	// maxRetries bounds retry attempts after the initial call.
	maxRetries uint64

	// initialInterval is the first backoff delay.
	initialInterval time.Duration
}

// RetryOption configures a RetryingEmbedder.
type RetryOption func(*RetryingEmbedder)

// WithMaxRetries sets the retry attempt bound.
func WithMaxRetries(n uint64) RetryOption {
	return func(r *RetryingEmbedder) { r.maxRetries = n }
}

// WithInitialInterval sets the first backoff delay.
func WithInitialInterval(d time.Duration) RetryOption {
	return func(r *RetryingEmbedder) { r.initialInterval = d }
}

// NewRetrying wraps inner with retry behaviour.
func NewRetrying(inner rag.Embedder, opts ...RetryOption) *RetryingEmbedder {
	r := &RetryingEmbedder{
		inner:           inner,
		maxRetries:      DefaultMaxRetries,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Embed calls the wrapped embedder, retrying *ServiceError failures with
// exponential backoff until the attempt bound or context cancellation.
func (r *RetryingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := logging.FromContext(ctx)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initialInterval

	var result [][]float32
	attempt := 0
	operation := func() error {
		attempt++
		out, err := r.inner.Embed(ctx, texts)
		if err != nil {
			var svcErr *ServiceError
			if !errors.As(err, &svcErr) {
				return backoff.Permanent(err)
			}
			log.Warn("embedding attempt failed",
				slog.Int("attempt", attempt),
				slog.String("backend", svcErr.Backend),
				slog.String("error", svcErr.Err.Error()))
			return err
		}
		result = out
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, r.maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}

package llm

import (
	"context"
	"time"
)

type rateLimitError struct{}

func (e *rateLimitError) Error() string { return "rate limited" }

// retryOnRateLimit runs fn, allowing a single additional attempt when the
// provider answers 429. Every other failure surfaces immediately.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if _, ok := err.(*rateLimitError); !ok {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
	}
	return fn()
}

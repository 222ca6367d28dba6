package llm

import "context"

// Client is the completion-provider abstraction: one prompt in, raw text out.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

package llm

import (
	"context"
)

// Client is the language model gateway: one synchronous chat call with an
// optional system instruction. No retries, no streaming. Implementations
// must honor ctx deadlines; callers treat every failure as transient.
type Client interface {
	Chat(ctx context.Context, prompt string, system string) (string, error)
}

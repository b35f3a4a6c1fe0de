package ai

import "context"

// Provider is the content-generation capability. Implementations must
// be safe to retry: no side effects beyond the returned text.
type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}

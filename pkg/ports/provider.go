package ports

import "context"

// GenerateParams tunes a single model call.
type GenerateParams struct {
	// System is an optional system prompt prepended to the request.
	System string
	// Temperature in [0,2]. Zero value means the provider's default.
	Temperature float64
	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// ModelProvider is the boundary to an external content generator. Providers
// must surface timeouts and upstream errors as ordinary errors; they never
// panic and never block past ctx.
type ModelProvider interface {
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
}

// ProviderFunc adapts a function to the ModelProvider interface.
type ProviderFunc func(ctx context.Context, prompt string, params GenerateParams) (string, error)

func (f ProviderFunc) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	return f(ctx, prompt, params)
}

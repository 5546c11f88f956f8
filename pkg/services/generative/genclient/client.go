// Package genclient defines the narrow text-completion contract implemented
// by each generative provider.
package genclient

import "context"

// Prompt is a system/user prompt pair. Providers that have no native system
// channel prepend the system text to the user text.
type Prompt struct {
	System string
	User   string
}

// Completion is the raw provider output plus token usage when the provider
// reports it. Zero token counts mean the provider did not report usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Options tunes a single completion call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Provider is a single generative model backend.
type Provider interface {
	// Complete runs one prompt and returns the raw text completion. Errors
	// are classified generr errors.
	Complete(ctx context.Context, prompt Prompt, opts Options) (Completion, error)
	// Name returns the provider identifier, e.g. "openai".
	Name() string
	// Model returns the configured model name.
	Model() string
}

package generative

import (
	"fmt"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/config"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/metrics"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/genclient"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/internal/providers/anthropic"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/internal/providers/google"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/internal/providers/ollama"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/internal/providers/openai"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/utils"
)

// NewFromConfig builds a Generator for the configured provider. API keys are
// resolved through the secrets layer (encrypted file, then environment).
func NewFromConfig(cfg *config.Config, recorder metrics.Recorder) (Generator, error) {
	gen := cfg.Generative

	if gen.Provider == config.ProviderMock {
		return NewMockGenerator(), nil
	}

	var provider genclient.Provider
	switch gen.Provider {
	case config.ProviderOpenAI:
		apiKey, err := config.GetSecret(cfg.APIKeyName())
		if err != nil {
			return nil, fmt.Errorf("openai provider: %w", err)
		}
		provider = openai.NewClient(apiKey, gen.Model)
	case config.ProviderAnthropic:
		apiKey, err := config.GetSecret(cfg.APIKeyName())
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		provider = anthropic.NewClient(apiKey, gen.Model)
	case config.ProviderGoogle:
		apiKey, err := config.GetSecret(cfg.APIKeyName())
		if err != nil {
			return nil, fmt.Errorf("google provider: %w", err)
		}
		provider = google.NewClient(apiKey, gen.Model)
	case config.ProviderOllama:
		provider = ollama.NewClient(gen.OllamaHost, gen.Model)
	default:
		return nil, fmt.Errorf("unknown generative provider: %s", gen.Provider)
	}

	counter, err := utils.NewTokenCounter(gen.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to build token counter: %w", err)
	}

	prompts := NewPromptBuilder(counter, gen.PromptBudget)
	opts := genclient.Options{
		MaxTokens:   gen.MaxTokens,
		Temperature: gen.Temperature,
	}

	return NewModelGenerator(provider, prompts, opts, recorder), nil
}

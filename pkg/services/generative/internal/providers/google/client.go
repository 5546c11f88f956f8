// Package google provides the Google Gemini provider implementation.
package google

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/genclient"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/generr"
)

// Client wraps the Google GenAI client. The SDK requires a context to build
// its client, so construction is deferred to the first Complete call.
type Client struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewClient creates a Gemini provider for the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
	}
}

// Complete implements genclient.Provider.
func (c *Client) Complete(ctx context.Context, prompt genclient.Prompt, opts genclient.Options) (genclient.Completion, error) {
	if c.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return genclient.Completion{}, generr.NewErrorWithCause(generr.ErrorTypeTransient, err, "failed to create Gemini client")
		}
		c.client = client
	}

	//nolint:gosec // MaxTokens validated by config, overflow not reachable
	maxTokens := int32(opts.MaxTokens)
	temperature := float32(opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}
	if prompt.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: prompt.System}},
		}
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt.User}},
		},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return genclient.Completion{}, generr.Classify(fmt.Errorf("Gemini API call failed: %w", err))
	}
	if result == nil {
		return genclient.Completion{}, generr.NewError(generr.ErrorTypeEmptyResponse, "empty response from Gemini API")
	}

	text := result.Text()
	if text == "" {
		return genclient.Completion{}, generr.NewError(generr.ErrorTypeEmptyResponse, "Gemini response contained no text")
	}

	completion := genclient.Completion{Text: text}
	if result.UsageMetadata != nil {
		completion.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		completion.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	return completion, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "google"
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

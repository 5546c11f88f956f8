// Package anthropic provides the Anthropic Claude provider implementation.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/genclient"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/generr"
)

// Client wraps the Anthropic API client.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient creates a Claude provider for the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Complete implements genclient.Provider.
func (c *Client) Complete(ctx context.Context, prompt genclient.Prompt, opts genclient.Options) (genclient.Completion, error) {
	params := anthropic.MessageNewParams{
		Model: c.model,
		Messages: []anthropic.MessageParam{
			{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt.User)},
			},
		},
		MaxTokens:   int64(opts.MaxTokens),
		Temperature: anthropic.Float(opts.Temperature),
	}

	if prompt.System != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: prompt.System,
			Type: "text",
		}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return genclient.Completion{}, generr.Classify(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return genclient.Completion{}, generr.NewError(generr.ErrorTypeEmptyResponse, "received empty or nil response from Claude API")
	}

	var text string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return genclient.Completion{}, generr.NewError(generr.ErrorTypeEmptyResponse, "Claude response contained no text blocks")
	}

	return genclient.Completion{
		Text:             text,
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "anthropic"
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return string(c.model)
}

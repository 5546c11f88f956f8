// Package openai provides the OpenAI provider implementation using the
// official OpenAI Go package.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/genclient"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/generr"
)

// Client wraps the official OpenAI Go client.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates an OpenAI provider for the given model.
func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete implements genclient.Provider using the Responses API.
func (c *Client) Complete(ctx context.Context, prompt genclient.Prompt, opts genclient.Options) (genclient.Completion, error) {
	inputText := prompt.User
	if prompt.System != "" {
		inputText = fmt.Sprintf("System: %s\n\n%s", prompt.System, prompt.User)
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(int64(opts.MaxTokens)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(inputText)},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return genclient.Completion{}, generr.Classify(err)
	}
	if resp == nil {
		return genclient.Completion{}, generr.NewError(generr.ErrorTypeEmptyResponse, "empty response from OpenAI Responses API")
	}

	text := resp.OutputText()
	if text == "" {
		return genclient.Completion{}, generr.NewError(generr.ErrorTypeEmptyResponse, "OpenAI response contained no output text")
	}

	return genclient.Completion{
		Text:             text,
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "openai"
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

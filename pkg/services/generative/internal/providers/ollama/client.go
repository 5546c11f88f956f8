// Package ollama provides the Ollama provider implementation for running
// local open-source models.
package ollama

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/genclient"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/generr"
)

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates an Ollama provider. hostURL is the Ollama server URL,
// e.g. "http://localhost:11434".
func NewClient(hostURL, model string) *Client {
	parsedURL, err := url.Parse(hostURL)
	if err != nil {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}

	return &Client{
		client: api.NewClient(parsedURL, http.DefaultClient),
		model:  model,
	}
}

// Complete implements genclient.Provider.
func (c *Client) Complete(ctx context.Context, prompt genclient.Prompt, opts genclient.Options) (genclient.Completion, error) {
	var messages []api.Message
	if prompt.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: prompt.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt.User})

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return genclient.Completion{}, generr.Classify(err)
	}

	if response.Message.Content == "" {
		return genclient.Completion{}, generr.NewError(generr.ErrorTypeEmptyResponse, "Ollama response contained no content")
	}

	return genclient.Completion{
		Text:             response.Message.Content,
		PromptTokens:     response.PromptEvalCount,
		CompletionTokens: response.EvalCount,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "ollama"
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

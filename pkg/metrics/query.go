package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// ProviderUsage represents aggregated generative usage for one provider.
type ProviderUsage struct {
	Provider         string `json:"provider"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
	Fallbacks        int64  `json:"fallbacks"`
}

// QueryService queries aggregated run metrics from a Prometheus server.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a metrics query service against prometheusURL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetProviderUsage retrieves aggregated token and fallback counts for a
// generative provider across all recorded analyses.
func (q *QueryService) GetProviderUsage(ctx context.Context, provider string) (*ProviderUsage, error) {
	usage := &ProviderUsage{Provider: provider}

	promptQuery := fmt.Sprintf(`sum(reia_generative_tokens_total{provider=%q, type="prompt"})`, provider)
	promptResult, _, err := q.queryAPI.Query(ctx, promptQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	if vector, ok := promptResult.(model.Vector); ok && len(vector) > 0 {
		usage.PromptTokens = int64(vector[0].Value)
	}

	completionQuery := fmt.Sprintf(`sum(reia_generative_tokens_total{provider=%q, type="completion"})`, provider)
	completionResult, _, err := q.queryAPI.Query(ctx, completionQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}
	if vector, ok := completionResult.(model.Vector); ok && len(vector) > 0 {
		usage.CompletionTokens = int64(vector[0].Value)
	}

	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	fallbackQuery := fmt.Sprintf(`sum(reia_narrative_fallbacks_total{provider=%q})`, provider)
	fallbackResult, _, err := q.queryAPI.Query(ctx, fallbackQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query fallbacks: %w", err)
	}
	if vector, ok := fallbackResult.(model.Vector); ok && len(vector) > 0 {
		usage.Fallbacks = int64(vector[0].Value)
	}

	return usage, nil
}

// GetAgentErrorRate returns the error fraction for a capability agent role
// over the given lookback window.
func (q *QueryService) GetAgentErrorRate(ctx context.Context, role string, window time.Duration) (float64, error) {
	minutes := int(window.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	query := fmt.Sprintf(
		`sum(increase(reia_agent_calls_total{role=%q, status!="success"}[%dm])) / sum(increase(reia_agent_calls_total{role=%q}[%dm]))`,
		role, minutes, role, minutes,
	)
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to query agent error rate: %w", err)
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return float64(vector[0].Value), nil
	}
	return 0, nil
}

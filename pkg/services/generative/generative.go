// Package generative turns an analysis context into a validated investment
// narrative using a configurable model provider.
package generative

import (
	"context"
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/metrics"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/genclient"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/generr"
)

// NarrativeInput carries everything the narrative model sees: the request
// plus whatever the capability agents produced. Nil sections are rendered as
// unavailable in the prompt.
type NarrativeInput struct {
	Request    *analysis.AnalysisRequest
	Prediction *analysis.Prediction
	MarketDocs []analysis.Document
	Risk       *analysis.RiskAssessment
}

// Generator produces a validated narrative for an analysis.
type Generator interface {
	Generate(ctx context.Context, input NarrativeInput) (*analysis.NarrativeResult, error)
	// ProviderName identifies the backing provider for logs and metrics.
	ProviderName() string
}

// ModelGenerator implements Generator on top of a genclient.Provider: it
// builds the prompt, runs the completion, parses the JSON output, and
// sanitizes the result.
type ModelGenerator struct {
	provider genclient.Provider
	prompts  *PromptBuilder
	opts     genclient.Options
	recorder metrics.Recorder
	logger   *logx.Logger
}

func NewModelGenerator(provider genclient.Provider, prompts *PromptBuilder, opts genclient.Options, recorder metrics.Recorder) *ModelGenerator {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &ModelGenerator{
		provider: provider,
		prompts:  prompts,
		opts:     opts,
		recorder: recorder,
		logger:   logx.NewLogger("generative"),
	}
}

// Generate runs one completion attempt. Structural validation failures come
// back as retryable generr errors so the retry policy can re-prompt.
func (g *ModelGenerator) Generate(ctx context.Context, input NarrativeInput) (*analysis.NarrativeResult, error) {
	prompt := g.prompts.Build(input)

	start := time.Now()
	completion, err := g.provider.Complete(ctx, prompt, g.opts)
	duration := time.Since(start)

	if err != nil {
		g.recorder.ObserveGenerativeCall(g.provider.Name(), g.provider.Model(),
			0, 0, false, generr.TypeOf(err).String(), duration)
		return nil, err
	}

	g.recorder.ObserveGenerativeCall(g.provider.Name(), g.provider.Model(),
		completion.PromptTokens, completion.CompletionTokens, true, "", duration)

	result, err := ParseNarrative(completion.Text)
	if err != nil {
		g.logger.Warn("narrative output failed validation: %v", err)
		return nil, err
	}

	g.logger.Debug("narrative generated: recommendation=%s confidence=%.2f", result.Recommendation, result.Confidence)
	return result, nil
}

// ProviderName identifies the backing provider.
func (g *ModelGenerator) ProviderName() string {
	return g.provider.Name()
}

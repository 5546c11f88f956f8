package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/limiter"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/metrics"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative"
)

// Estimated token cost reserved per narrative attempt when the provider has
// not reported usage yet.
const narrativeTokenEstimate = 4000

// NarrativeRunner wraps the generator with the retry policy, the rate
// limiter, and the rule-based fallback. Run never returns an error: when
// every attempt fails, the fallback narrative is returned with Fallback set.
type NarrativeRunner struct {
	generator      generative.Generator
	policy         RetryPolicy
	attemptTimeout time.Duration
	limiter        *limiter.Limiter
	recorder       metrics.Recorder
	logger         *logx.Logger
}

func NewNarrativeRunner(generator generative.Generator, policy RetryPolicy, attemptTimeout time.Duration, rateLimiter *limiter.Limiter, recorder metrics.Recorder) *NarrativeRunner {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &NarrativeRunner{
		generator:      generator,
		policy:         policy,
		attemptTimeout: attemptTimeout,
		limiter:        rateLimiter,
		recorder:       recorder,
		logger:         logx.NewLogger(string(proto.RoleNarrative)),
	}
}

// Run produces the narrative for the given input, falling back to the
// deterministic rule-based narrative when generation is exhausted. The
// returned attempt count includes the failed attempts that preceded a
// fallback.
func (r *NarrativeRunner) Run(ctx context.Context, input generative.NarrativeInput) (result *analysis.NarrativeResult, attempts int) {
	provider := r.generator.ProviderName()

	onRetry := func(attempt int, err error) {
		r.recorder.IncNarrativeRetry(provider)
		r.logger.Warn("narrative attempt %d failed, retrying: %v", attempt-1, err)
	}

	result, err := Retry(ctx, r.policy, onRetry, func(ctx context.Context, attempt int) (*analysis.NarrativeResult, error) {
		attempts = attempt
		return r.attempt(ctx, input)
	})

	if err != nil {
		r.logger.Error("narrative generation exhausted, using rule-based fallback: %v", err)
		r.recorder.IncNarrativeFallback(provider)
		result = FallbackNarrative(input.Prediction)
	}

	sanitizeNarrative(result, input.Prediction)
	return result, attempts
}

func (r *NarrativeRunner) attempt(ctx context.Context, input generative.NarrativeInput) (*analysis.NarrativeResult, error) {
	if r.limiter != nil {
		if err := r.limiter.Acquire(); err != nil {
			return nil, fmt.Errorf("narrative call rejected: %w", err)
		}
		defer r.limiter.Release()

		if err := r.limiter.Reserve(narrativeTokenEstimate); err != nil {
			return nil, fmt.Errorf("narrative call rejected: %w", err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()

	return r.generator.Generate(attemptCtx, input)
}

// sanitizeNarrative applies final hygiene to a narrative regardless of its
// source: defaults for empty soft fields and a model-confidence disclaimer
// when a valuation is present.
func sanitizeNarrative(result *analysis.NarrativeResult, prediction *analysis.Prediction) {
	result.Confidence = analysis.Clamp01(result.Confidence)

	if result.Sentiment == "" {
		result.Sentiment = "Neutral"
	}
	if len(result.Limitations) == 0 {
		result.Limitations = []string{
			"Market conditions subject to rapid change",
			"Predictions have inherent uncertainty",
			"Independent verification recommended",
		}
	}
	if prediction != nil {
		result.Limitations = append(result.Limitations,
			fmt.Sprintf("Model confidence: %.1f%%", prediction.Confidence*100))
	}
}

package agents

import (
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
)

// Fallback decision thresholds, applied to the valuation output when the
// narrative model is unavailable.
const (
	fallbackYieldHigh  = 3.5 // rental yield (%) at or above which Buy is possible
	fallbackYieldLow   = 2.0 // rental yield (%) below which Avoid
	fallbackConfHigh   = 0.7 // valuation confidence required for Buy
	fallbackConfidence = 0.5 // fixed confidence of every fallback narrative
)

// FallbackNarrative builds the deterministic rule-based narrative used when
// all generation attempts are exhausted. It never fails.
func FallbackNarrative(prediction *analysis.Prediction) *analysis.NarrativeResult {
	recommendation := analysis.RecommendationHold
	if prediction != nil {
		switch {
		case prediction.RentalYieldPct >= fallbackYieldHigh && prediction.Confidence >= fallbackConfHigh:
			recommendation = analysis.RecommendationBuy
		case prediction.RentalYieldPct < fallbackYieldLow:
			recommendation = analysis.RecommendationAvoid
		}
	}

	result := &analysis.NarrativeResult{
		Recommendation: recommendation,
		Confidence:     fallbackConfidence,
		Reasoning:      "Analysis based on predictive models only. Limited contextual data available.",
		Drivers: []string{
			"Quantitative prediction available",
			"Property details verified",
		},
		Risks: []string{
			"Data availability",
			"Market volatility",
			"Regulatory changes",
		},
		Mitigations: []string{
			"Conduct independent due diligence",
			"Verify RERA compliance",
			"Local market research",
		},
		Sentiment: "Neutral",
		Limitations: []string{
			"Generative analysis unavailable",
			"Limited contextual data",
			"Requires expert verification",
		},
		Fallback: true,
	}

	if prediction == nil {
		result.Limitations = append(result.Limitations, "Valuation unavailable")
	}

	return result
}

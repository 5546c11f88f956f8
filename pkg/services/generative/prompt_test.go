package generative

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/genclient"
)

func promptInput() NarrativeInput {
	return NarrativeInput{
		Request: analysis.NewAnalysisRequest(analysis.PropertyDetails{
			City:            "Mumbai",
			Locality:        "Andheri West",
			PropertyType:    "apartment",
			SizeSqft:        1100,
			Bedrooms:        2,
			AgeYears:        5,
			MetroDistanceKM: 1.2,
			Amenities:       []string{"gym", "pool"},
		}, analysis.InvestorContext{
			BudgetINR:    30000000,
			HorizonYears: 7,
			RiskAppetite: "moderate",
			Goal:         "appreciation",
		}),
		Prediction: &analysis.Prediction{
			PredictedPriceINR: 25000000,
			PriceLowINR:       23000000,
			PriceHighINR:      27000000,
			MonthlyRentINR:    75000,
			RentalYieldPct:    3.6,
			Confidence:        0.85,
		},
		MarketDocs: []analysis.Document{
			{ID: "m1", Title: "Andheri price trends", Content: "Prices rose 8% year on year.", Relevance: 0.8},
		},
		Risk: &analysis.RiskAssessment{
			Level:           analysis.RiskLow,
			IdentifiedRisks: nil,
			Documents: []analysis.Document{
				{ID: "r1", Title: "MahaRERA update", Content: "New registration norms.", Relevance: 0.7},
			},
		},
	}
}

func TestPromptBuilder_Sections(t *testing.T) {
	b := NewPromptBuilder(nil, 0)

	prompt := b.Build(promptInput())

	assert.Contains(t, prompt.System, "real estate investment analyst")

	for _, section := range []string{
		"PROPERTY DETAILS:",
		"PREDICTED METRICS:",
		"INVESTOR CONTEXT:",
		"MARKET INTELLIGENCE:",
		"REGULATORY CONTEXT:",
		"IMPORTANT GUIDELINES:",
	} {
		assert.Contains(t, prompt.User, section)
	}

	assert.Contains(t, prompt.User, "City: Mumbai")
	assert.Contains(t, prompt.User, "₹25000000")
	assert.Contains(t, prompt.User, "3.60%")
	assert.Contains(t, prompt.User, "Investment Horizon: 7 years")
	assert.Contains(t, prompt.User, "Andheri price trends")
	assert.Contains(t, prompt.User, "MahaRERA update")
	assert.Contains(t, prompt.User, `"recommendation": "Buy/Hold/Avoid"`)
}

func TestPromptBuilder_MissingValuation(t *testing.T) {
	b := NewPromptBuilder(nil, 0)

	input := promptInput()
	input.Prediction = nil

	prompt := b.Build(input)

	assert.Contains(t, prompt.User, "Valuation unavailable. State this limitation explicitly.")
	assert.NotContains(t, prompt.User, "Predicted Price")
}

func TestPromptBuilder_MissingDocsAndRisk(t *testing.T) {
	b := NewPromptBuilder(nil, 0)

	input := promptInput()
	input.MarketDocs = nil
	input.Risk = nil

	prompt := b.Build(input)

	assert.Contains(t, prompt.User, "Limited market data available.")
	assert.Contains(t, prompt.User, "Risk assessment unavailable. Standard regulatory compliance applies.")
}

func TestPromptBuilder_IdentifiedRisksRendered(t *testing.T) {
	b := NewPromptBuilder(nil, 0)

	input := promptInput()
	input.Risk.Level = analysis.RiskHigh
	input.Risk.IdentifiedRisks = []string{
		"Property age exceeds 20 years - maintenance costs may be higher",
		"Distance to metro > 5km - may impact liquidity and rental demand",
	}

	prompt := b.Build(input)

	assert.Contains(t, prompt.User, "high risk level")
	assert.Contains(t, prompt.User, "Property age exceeds 20 years")
}

func TestPromptBuilder_DocCaps(t *testing.T) {
	b := NewPromptBuilder(nil, 0)

	input := promptInput()
	input.MarketDocs = nil
	for i := 0; i < 6; i++ {
		input.MarketDocs = append(input.MarketDocs, analysis.Document{
			ID:      string(rune('a' + i)),
			Title:   "doc-" + string(rune('a'+i)),
			Content: strings.Repeat("x", 900),
		})
	}

	prompt := b.Build(input)

	included := strings.Count(prompt.User, "Document: doc-")
	assert.Equal(t, 3, included, "market docs are capped at 3")
	assert.NotContains(t, prompt.User, strings.Repeat("x", 501), "doc content is capped at 500 chars")
}

// stubProvider returns a fixed completion.
type stubProvider struct {
	text string
	err  error
}

func (s *stubProvider) Complete(context.Context, genclient.Prompt, genclient.Options) (genclient.Completion, error) {
	if s.err != nil {
		return genclient.Completion{}, s.err
	}
	return genclient.Completion{Text: s.text, PromptTokens: 100, CompletionTokens: 50}, nil
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func genclientOptions() genclient.Options {
	return genclient.Options{MaxTokens: 1500, Temperature: 0.3}
}

func TestModelGenerator_ParsesProviderOutput(t *testing.T) {
	provider := &stubProvider{text: validCompletion}
	gen := NewModelGenerator(provider, NewPromptBuilder(nil, 0), genclientOptions(), nil)

	result, err := gen.Generate(t.Context(), promptInput())

	require.NoError(t, err)
	assert.Equal(t, analysis.RecommendationBuy, result.Recommendation)
	assert.Equal(t, "stub", gen.ProviderName())
}

func TestModelGenerator_InvalidOutputPropagates(t *testing.T) {
	provider := &stubProvider{text: "no json here"}
	gen := NewModelGenerator(provider, NewPromptBuilder(nil, 0), genclientOptions(), nil)

	_, err := gen.Generate(t.Context(), promptInput())

	require.Error(t, err)
}

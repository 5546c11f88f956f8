package generative

import (
	"fmt"
	"strings"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative/genclient"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/utils"
)

const systemPrompt = "You are an expert real estate investment analyst in India. " +
	"Your role is to provide data-backed, transparent investment analysis."

const outputGuidelines = `Based on the above information, provide a comprehensive investment analysis in JSON format:

{
  "recommendation": "Buy/Hold/Avoid",
  "confidence_score": 0.0-1.0,
  "reasoning": "Detailed reasoning in 3-4 sentences",
  "drivers": ["driver1", "driver2", "driver3"],
  "risks": ["risk1", "risk2", "risk3"],
  "mitigations": ["strategy1", "strategy2"],
  "sentiment": "Bullish/Neutral/Bearish",
  "scores": {"location": 0-10, "infrastructure": 0-10, "regulatory_compliance": 0.0-1.0},
  "risk_level": "low/medium/high",
  "limitations": ["limitation1", "limitation2"]
}

IMPORTANT GUIDELINES:
1. Be conservative and transparent about uncertainties
2. Flag any data quality or availability concerns
3. Consider regulatory compliance and legal factors
4. Align analysis with the investor's goals and risk tolerance
5. Base reasoning on the retrieved market intelligence only
6. If information is insufficient, state it clearly in limitations
7. Respond with JSON only, no surrounding prose`

// Doc inclusion caps, matching how much context the model actually benefits
// from before truncation kicks in.
const (
	maxMarketDocs     = 3
	maxRegulatoryDocs = 2
	maxDocChars       = 500
)

// PromptBuilder renders a NarrativeInput into a provider prompt, enforcing a
// token budget on the result.
type PromptBuilder struct {
	counter *utils.TokenCounter
	budget  int
}

func NewPromptBuilder(counter *utils.TokenCounter, budget int) *PromptBuilder {
	return &PromptBuilder{counter: counter, budget: budget}
}

// Build renders the prompt. Unavailable sections are stated explicitly so the
// model accounts for them in its limitations.
func (b *PromptBuilder) Build(input NarrativeInput) genclient.Prompt {
	var sb strings.Builder

	sb.WriteString("PROPERTY DETAILS:\n")
	sb.WriteString(formatProperty(input.Request.Property))

	sb.WriteString("\nPREDICTED METRICS:\n")
	if input.Prediction != nil {
		p := input.Prediction
		fmt.Fprintf(&sb, "- Predicted Price: ₹%.0f\n", p.PredictedPriceINR)
		fmt.Fprintf(&sb, "- Price Range: ₹%.0f - ₹%.0f\n", p.PriceLowINR, p.PriceHighINR)
		fmt.Fprintf(&sb, "- Predicted Monthly Rent: ₹%.0f\n", p.MonthlyRentINR)
		fmt.Fprintf(&sb, "- Predicted Rental Yield: %.2f%%\n", p.RentalYieldPct)
		fmt.Fprintf(&sb, "- Model Confidence: %.0f%%\n", p.Confidence*100)
	} else {
		sb.WriteString("Valuation unavailable. State this limitation explicitly.\n")
	}

	sb.WriteString("\nINVESTOR CONTEXT:\n")
	inv := input.Request.Investor
	fmt.Fprintf(&sb, "- Investment Horizon: %d years\n", inv.HorizonYears)
	fmt.Fprintf(&sb, "- Primary Goal: %s\n", inv.Goal)
	fmt.Fprintf(&sb, "- Risk Tolerance: %s\n", inv.RiskAppetite)
	if inv.BudgetINR > 0 {
		fmt.Fprintf(&sb, "- Budget: ₹%.0f\n", inv.BudgetINR)
	}

	sb.WriteString("\nMARKET INTELLIGENCE:\n")
	sb.WriteString(formatDocs(input.MarketDocs, maxMarketDocs, "Limited market data available."))

	sb.WriteString("\nREGULATORY CONTEXT:\n")
	if input.Risk != nil {
		if len(input.Risk.IdentifiedRisks) > 0 {
			fmt.Fprintf(&sb, "Identified risks (%s risk level): %s\n",
				strings.ToLower(string(input.Risk.Level)), strings.Join(input.Risk.IdentifiedRisks, "; "))
		}
		sb.WriteString(formatDocs(input.Risk.Documents, maxRegulatoryDocs, "Standard regulatory compliance applies."))
	} else {
		sb.WriteString("Risk assessment unavailable. Standard regulatory compliance applies.\n")
	}

	sb.WriteString("\n")
	sb.WriteString(outputGuidelines)

	user := sb.String()
	if b.counter != nil && b.budget > 0 {
		user = b.counter.TruncateToTokenLimit(user, b.budget)
	}

	return genclient.Prompt{
		System: systemPrompt,
		User:   user,
	}
}

func formatProperty(p analysis.PropertyDetails) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "City: %s\n", p.City)
	fmt.Fprintf(&sb, "Locality: %s\n", p.Locality)
	fmt.Fprintf(&sb, "Type: %s\n", p.PropertyType)
	fmt.Fprintf(&sb, "Size: %.0f sq ft\n", p.SizeSqft)
	fmt.Fprintf(&sb, "Bedrooms: %d\n", p.Bedrooms)
	fmt.Fprintf(&sb, "Age: %.0f years\n", p.AgeYears)
	fmt.Fprintf(&sb, "Distance to Metro: %.1f km\n", p.MetroDistanceKM)
	if len(p.Amenities) > 0 {
		fmt.Fprintf(&sb, "Amenities: %s\n", strings.Join(p.Amenities, ", "))
	}
	return sb.String()
}

func formatDocs(docs []analysis.Document, limit int, fallback string) string {
	if len(docs) == 0 {
		return fallback + "\n"
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}

	var sb strings.Builder
	for _, doc := range docs {
		content := doc.Content
		if len(content) > maxDocChars {
			content = content[:maxDocChars]
		}
		fmt.Fprintf(&sb, "Document: %s\n%s\n\n", doc.Title, content)
	}
	return sb.String()
}

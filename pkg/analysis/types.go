// Package analysis defines the domain types for property investment analysis:
// requests, predictions, documents, risk assessments, narratives, and the
// aggregated InvestmentAnalysis.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recommendation is the final investment call.
type Recommendation string

const (
	RecommendationBuy   Recommendation = "Buy"
	RecommendationHold  Recommendation = "Hold"
	RecommendationAvoid Recommendation = "Avoid"
)

// ValidateRecommendation validates if a string is a valid recommendation
func ValidateRecommendation(rec string) (Recommendation, bool) {
	switch Recommendation(rec) {
	case RecommendationBuy, RecommendationHold, RecommendationAvoid:
		return Recommendation(rec), true
	default:
		return "", false
	}
}

// ParseRecommendation parses a string into a Recommendation with validation
func ParseRecommendation(s string) (Recommendation, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	switch normalized {
	case "buy":
		return RecommendationBuy, nil
	case "hold":
		return RecommendationHold, nil
	case "avoid", "sell":
		return RecommendationAvoid, nil
	default:
		if rec, valid := ValidateRecommendation(s); valid {
			return rec, nil
		}
		return "", fmt.Errorf("unknown recommendation: %s", s)
	}
}

// String returns the string representation of Recommendation
func (r Recommendation) String() string {
	return string(r)
}

// RiskLevel grades the overall risk of an investment.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel parses a string into a RiskLevel with validation
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium", "moderate":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("unknown risk level: %s", s)
	}
}

// String returns the string representation of RiskLevel
func (r RiskLevel) String() string {
	return string(r)
}

// DocCategory partitions retrieved documents.
type DocCategory string

const (
	DocMarket     DocCategory = "market"
	DocRegulatory DocCategory = "regulatory"
)

// PropertyDetails describes the property under analysis. Sizes are in square
// feet, distances in kilometres, prices in INR.
type PropertyDetails struct {
	City            string   `json:"city"`
	Locality        string   `json:"locality"`
	PropertyType    string   `json:"property_type"`
	SizeSqft        float64  `json:"size_sqft"`
	Bedrooms        int      `json:"bedrooms"`
	AgeYears        float64  `json:"age_years"`
	MetroDistanceKM float64  `json:"metro_distance_km"`
	Amenities       []string `json:"amenities,omitempty"`
}

// InvestorContext carries the investor's constraints and intent.
type InvestorContext struct {
	BudgetINR    float64 `json:"budget_inr"`
	HorizonYears int     `json:"horizon_years"`
	RiskAppetite string  `json:"risk_appetite"`
	Goal         string  `json:"goal"`
}

// AnalysisRequest is the unit of work submitted to the orchestrator.
type AnalysisRequest struct {
	ID        string          `json:"id"`
	Property  PropertyDetails `json:"property"`
	Investor  InvestorContext `json:"investor"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewAnalysisRequest(property PropertyDetails, investor InvestorContext) *AnalysisRequest {
	return &AnalysisRequest{
		ID:        uuid.NewString(),
		Property:  property,
		Investor:  investor,
		CreatedAt: time.Now().UTC(),
	}
}

func (r *AnalysisRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request ID is required")
	}
	if r.Property.City == "" {
		return fmt.Errorf("property city is required")
	}
	if r.Property.SizeSqft <= 0 {
		return fmt.Errorf("property size must be positive, got %.1f", r.Property.SizeSqft)
	}
	if r.Property.AgeYears < 0 {
		return fmt.Errorf("property age cannot be negative")
	}
	if r.Property.MetroDistanceKM < 0 {
		return fmt.Errorf("metro distance cannot be negative")
	}
	if r.Property.Bedrooms < 0 {
		return fmt.Errorf("bedroom count cannot be negative")
	}
	return nil
}

// Prediction is the valuation agent's output.
type Prediction struct {
	PredictedPriceINR float64 `json:"predicted_price_inr"`
	PriceLowINR       float64 `json:"price_low_inr"`
	PriceHighINR      float64 `json:"price_high_inr"`
	MonthlyRentINR    float64 `json:"monthly_rent_inr"`
	RentalYieldPct    float64 `json:"rental_yield_pct"`
	Confidence        float64 `json:"confidence"`
	ModelVersion      string  `json:"model_version"`
}

// Document is a retrieved market or regulatory snippet with a relevance score.
type Document struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Category  DocCategory `json:"category"`
	City      string      `json:"city,omitempty"`
	Relevance float64     `json:"relevance"`
}

// RiskAssessment is the risk agent's output: deterministic heuristics plus
// regulatory documents relevant to the property.
type RiskAssessment struct {
	Level           RiskLevel  `json:"level"`
	IdentifiedRisks []string   `json:"identified_risks"`
	Documents       []Document `json:"documents,omitempty"`
}

// NarrativeResult is the validated output of the narrative agent.
type NarrativeResult struct {
	Recommendation Recommendation     `json:"recommendation"`
	Confidence     float64            `json:"confidence_score"`
	Reasoning      string             `json:"reasoning"`
	Drivers        []string           `json:"drivers,omitempty"`
	Risks          []string           `json:"risks,omitempty"`
	Mitigations    []string           `json:"mitigations,omitempty"`
	Sentiment      string             `json:"sentiment,omitempty"`
	Scores         map[string]float64 `json:"scores,omitempty"`
	Limitations    []string           `json:"limitations,omitempty"`
	Fallback       bool               `json:"fallback,omitempty"`
}

// InvestmentAnalysis is the aggregated final result for one request.
// Unavailable sections are nil and their roles listed in Missing.
type InvestmentAnalysis struct {
	RequestID         string           `json:"request_id"`
	Recommendation    Recommendation   `json:"recommendation"`
	OverallConfidence float64          `json:"overall_confidence"`
	Reasoning         string           `json:"reasoning"`
	Valuation         *Prediction      `json:"valuation,omitempty"`
	Documents         []Document       `json:"documents,omitempty"`
	Risk              *RiskAssessment  `json:"risk,omitempty"`
	Narrative         *NarrativeResult `json:"narrative,omitempty"`
	Missing           []string         `json:"missing,omitempty"`
	Degraded          bool             `json:"degraded"`
	CompletedAt       time.Time        `json:"completed_at"`
}

// ToJSON serializes the analysis for storage and output.
func (a *InvestmentAnalysis) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// InvestmentAnalysisFromJSON deserializes a stored analysis.
func InvestmentAnalysisFromJSON(data []byte) (*InvestmentAnalysis, error) {
	var a InvestmentAnalysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &a, nil
}

// Clamp01 clamps v to the closed unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

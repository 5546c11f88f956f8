package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		in      string
		want    Recommendation
		wantErr bool
	}{
		{"buy", RecommendationBuy, false},
		{"Buy", RecommendationBuy, false},
		{"HOLD", RecommendationHold, false},
		{" avoid ", RecommendationAvoid, false},
		{"sell", RecommendationAvoid, false},
		{"maybe", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRecommendation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    RiskLevel
		wantErr bool
	}{
		{"low", RiskLow, false},
		{"Medium", RiskMedium, false},
		{"moderate", RiskMedium, false},
		{"HIGH", RiskHigh, false},
		{"catastrophic", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRiskLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestAnalysisRequest_Validate(t *testing.T) {
	valid := func() *AnalysisRequest {
		return NewAnalysisRequest(PropertyDetails{
			City:            "Mumbai",
			Locality:        "Andheri West",
			PropertyType:    "apartment",
			SizeSqft:        1100,
			Bedrooms:        2,
			AgeYears:        5,
			MetroDistanceKM: 1.2,
		}, InvestorContext{
			BudgetINR:    30000000,
			HorizonYears: 7,
			RiskAppetite: "moderate",
			Goal:         "appreciation",
		})
	}

	req := valid()
	require.NoError(t, req.Validate())
	assert.NotEmpty(t, req.ID)
	assert.False(t, req.CreatedAt.IsZero())

	tests := []struct {
		name   string
		mutate func(*AnalysisRequest)
	}{
		{"missing id", func(r *AnalysisRequest) { r.ID = "" }},
		{"missing city", func(r *AnalysisRequest) { r.Property.City = "" }},
		{"zero size", func(r *AnalysisRequest) { r.Property.SizeSqft = 0 }},
		{"negative size", func(r *AnalysisRequest) { r.Property.SizeSqft = -100 }},
		{"negative age", func(r *AnalysisRequest) { r.Property.AgeYears = -1 }},
		{"negative metro distance", func(r *AnalysisRequest) { r.Property.MetroDistanceKM = -0.5 }},
		{"negative bedrooms", func(r *AnalysisRequest) { r.Property.Bedrooms = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestInvestmentAnalysis_JSONRoundTrip(t *testing.T) {
	original := &InvestmentAnalysis{
		RequestID:         "req-42",
		Recommendation:    RecommendationBuy,
		OverallConfidence: 0.838,
		Reasoning:         "Strong yield and metro proximity.",
		Valuation:         &Prediction{PredictedPriceINR: 25000000, Confidence: 0.85},
		Risk:              &RiskAssessment{Level: RiskLow},
		Degraded:          false,
	}

	data, err := original.ToJSON()
	require.NoError(t, err)

	restored, err := InvestmentAnalysisFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, original.RequestID, restored.RequestID)
	assert.Equal(t, original.Recommendation, restored.Recommendation)
	assert.InDelta(t, original.OverallConfidence, restored.OverallConfidence, 1e-9)
	require.NotNil(t, restored.Valuation)
	assert.Equal(t, 0.85, restored.Valuation.Confidence)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.3))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.42, Clamp01(0.42))
}

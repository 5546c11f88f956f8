package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/predictor"
)

// stubSource records queries and returns a scripted document list.
type stubSource struct {
	docs     []analysis.Document
	err      error
	lastText string
	lastCity string
	lastCat  analysis.DocCategory
	lastK    int
}

func (s *stubSource) QueryDocuments(_ context.Context, text string, k int, city string, category analysis.DocCategory) ([]analysis.Document, error) {
	s.lastText = text
	s.lastK = k
	s.lastCity = city
	s.lastCat = category
	return s.docs, s.err
}

func handlerRequest() *analysis.AnalysisRequest {
	return analysis.NewAnalysisRequest(analysis.PropertyDetails{
		City:            "Mumbai",
		Locality:        "Andheri West",
		PropertyType:    "apartment",
		SizeSqft:        1100,
		Bedrooms:        2,
		AgeYears:        5,
		MetroDistanceKM: 1.2,
	}, analysis.InvestorContext{})
}

func TestValuationAgent_Handle(t *testing.T) {
	agent := NewValuationAgent(predictor.NewHedonicModel())
	assert.Equal(t, proto.RoleValuation, agent.Role())

	result, err := agent.Handle(context.Background(), handlerRequest())

	require.NoError(t, err)
	require.NotNil(t, result.Prediction)
	assert.Greater(t, result.Prediction.PredictedPriceINR, 0.0)
	assert.Greater(t, result.Prediction.RentalYieldPct, 0.0)
	assert.Greater(t, result.Prediction.Confidence, 0.0)
	assert.LessOrEqual(t, result.Prediction.Confidence, 1.0)
}

func TestValuationAgent_PropagatesModelError(t *testing.T) {
	agent := NewValuationAgent(predictor.NewHedonicModel())

	req := handlerRequest()
	req.Property.SizeSqft = 50 // below the model's supported range

	_, err := agent.Handle(context.Background(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, predictor.ErrOutOfDomain)
}

func TestMarketAgent_Handle(t *testing.T) {
	source := &stubSource{docs: []analysis.Document{
		{ID: "m1", Category: analysis.DocMarket, Relevance: 0.8},
		{ID: "m2", Category: analysis.DocMarket, Relevance: 0.6},
	}}
	agent := NewMarketAgent(source)
	assert.Equal(t, proto.RoleMarketIntel, agent.Role())

	result, err := agent.Handle(context.Background(), handlerRequest())

	require.NoError(t, err)
	assert.Len(t, result.Documents, 2)
	assert.Equal(t, "Mumbai", source.lastCity)
	assert.Equal(t, analysis.DocMarket, source.lastCat)
	assert.Equal(t, 5, source.lastK)
	assert.Contains(t, source.lastText, "Andheri West")
	assert.Contains(t, source.lastText, "market")
}

func TestMarketAgent_SourceError(t *testing.T) {
	agent := NewMarketAgent(&stubSource{err: errors.New("fts offline")})

	_, err := agent.Handle(context.Background(), handlerRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "market intelligence retrieval failed")
}

func TestRiskAgent_Handle(t *testing.T) {
	source := &stubSource{docs: []analysis.Document{
		{ID: "r1", Category: analysis.DocRegulatory, Relevance: 0.7},
	}}
	agent := NewRiskAgent(source)
	assert.Equal(t, proto.RoleRisk, agent.Role())

	result, err := agent.Handle(context.Background(), handlerRequest())

	require.NoError(t, err)
	require.NotNil(t, result.Risk)
	assert.Equal(t, analysis.RiskLow, result.Risk.Level)
	assert.Empty(t, result.Risk.IdentifiedRisks)
	assert.Len(t, result.Risk.Documents, 1)
	assert.Equal(t, analysis.DocRegulatory, source.lastCat)
	assert.Contains(t, source.lastText, "RERA")
}

func TestAssessBasicRisks(t *testing.T) {
	tests := []struct {
		name      string
		property  analysis.PropertyDetails
		wantRisks int
		wantLevel analysis.RiskLevel
	}{
		{
			"clean property",
			analysis.PropertyDetails{AgeYears: 5, MetroDistanceKM: 1, SizeSqft: 1100},
			0, analysis.RiskLow,
		},
		{
			"old property",
			analysis.PropertyDetails{AgeYears: 25, MetroDistanceKM: 1, SizeSqft: 1100},
			1, analysis.RiskMedium,
		},
		{
			"old and far from metro",
			analysis.PropertyDetails{AgeYears: 25, MetroDistanceKM: 7, SizeSqft: 1100},
			2, analysis.RiskHigh,
		},
		{
			"all three heuristics fire",
			analysis.PropertyDetails{AgeYears: 30, MetroDistanceKM: 8, SizeSqft: 4000},
			3, analysis.RiskHigh,
		},
		{
			"thresholds are exclusive",
			analysis.PropertyDetails{AgeYears: 20, MetroDistanceKM: 5, SizeSqft: 3000},
			0, analysis.RiskLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risks := AssessBasicRisks(tt.property)
			assert.Len(t, risks, tt.wantRisks)
			assert.Equal(t, tt.wantLevel, riskLevel(risks))
		})
	}
}

func TestAssessBasicRisks_Messages(t *testing.T) {
	risks := AssessBasicRisks(analysis.PropertyDetails{
		AgeYears:        30,
		MetroDistanceKM: 8,
		SizeSqft:        4000,
	})

	require.Len(t, risks, 3)
	assert.Equal(t, "Property age exceeds 20 years - maintenance costs may be higher", risks[0])
	assert.Equal(t, "Distance to metro > 5km - may impact liquidity and rental demand", risks[1])
	assert.Equal(t, "Large property size - limited buyer pool, higher holding costs", risks[2])
}

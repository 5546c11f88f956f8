package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
)

const regulatoryDocLimit = 3

// Deterministic risk heuristic thresholds.
const (
	riskAgeYears    = 20
	riskMetroKM     = 5
	riskSizeSqft    = 3000
)

// RiskAgent combines deterministic property heuristics with retrieved
// regulatory documents.
type RiskAgent struct {
	source DocumentSource
	logger *logx.Logger
}

func NewRiskAgent(source DocumentSource) *RiskAgent {
	return &RiskAgent{
		source: source,
		logger: logx.NewLogger(string(proto.RoleRisk)),
	}
}

// Role identifies this agent.
func (a *RiskAgent) Role() proto.Role {
	return proto.RoleRisk
}

// Handle implements the Agent contract.
func (a *RiskAgent) Handle(ctx context.Context, req *analysis.AnalysisRequest) (*Result, error) {
	risks := AssessBasicRisks(req.Property)

	query := regulatoryQuery(req.Property)
	docs, err := a.source.QueryDocuments(ctx, query, regulatoryDocLimit, req.Property.City, analysis.DocRegulatory)
	if err != nil {
		return nil, fmt.Errorf("regulatory retrieval failed: %w", err)
	}

	assessment := &analysis.RiskAssessment{
		Level:           riskLevel(risks),
		IdentifiedRisks: risks,
		Documents:       docs,
	}

	a.logger.Info("risk assessment complete: level=%s risks=%d regulatory_docs=%d",
		assessment.Level, len(risks), len(docs))

	return &Result{Risk: assessment}, nil
}

// AssessBasicRisks derives deterministic risk strings from property
// characteristics.
func AssessBasicRisks(property analysis.PropertyDetails) []string {
	var risks []string

	if property.AgeYears > riskAgeYears {
		risks = append(risks, "Property age exceeds 20 years - maintenance costs may be higher")
	}
	if property.MetroDistanceKM > riskMetroKM {
		risks = append(risks, "Distance to metro > 5km - may impact liquidity and rental demand")
	}
	if property.SizeSqft > riskSizeSqft {
		risks = append(risks, "Large property size - limited buyer pool, higher holding costs")
	}

	return risks
}

func riskLevel(risks []string) analysis.RiskLevel {
	switch {
	case len(risks) >= 2:
		return analysis.RiskHigh
	case len(risks) == 1:
		return analysis.RiskMedium
	default:
		return analysis.RiskLow
	}
}

func regulatoryQuery(property analysis.PropertyDetails) string {
	parts := []string{property.City, "RERA", "regulation", "compliance", "approval"}
	if property.PropertyType != "" {
		parts = append(parts, property.PropertyType)
	}
	return strings.Join(parts, " ")
}

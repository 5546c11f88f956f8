package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
)

const marketDocLimit = 5

// DocumentSource is the retrieval surface the market and risk agents query.
// Satisfied by *docstore.Store.
type DocumentSource interface {
	QueryDocuments(ctx context.Context, text string, k int, city string, category analysis.DocCategory) ([]analysis.Document, error)
}

// MarketAgent retrieves market intelligence documents relevant to the
// property's city and locality.
type MarketAgent struct {
	source DocumentSource
	logger *logx.Logger
}

func NewMarketAgent(source DocumentSource) *MarketAgent {
	return &MarketAgent{
		source: source,
		logger: logx.NewLogger(string(proto.RoleMarketIntel)),
	}
}

// Role identifies this agent.
func (a *MarketAgent) Role() proto.Role {
	return proto.RoleMarketIntel
}

// Handle implements the Agent contract.
func (a *MarketAgent) Handle(ctx context.Context, req *analysis.AnalysisRequest) (*Result, error) {
	query := marketQuery(req.Property)

	docs, err := a.source.QueryDocuments(ctx, query, marketDocLimit, req.Property.City, analysis.DocMarket)
	if err != nil {
		return nil, fmt.Errorf("market intelligence retrieval failed: %w", err)
	}

	a.logger.Info("retrieved %d market documents for %s", len(docs), req.Property.City)
	return &Result{Documents: docs}, nil
}

func marketQuery(property analysis.PropertyDetails) string {
	parts := []string{property.City}
	if property.Locality != "" {
		parts = append(parts, property.Locality)
	}
	if property.PropertyType != "" {
		parts = append(parts, property.PropertyType)
	}
	parts = append(parts, "market", "price", "trends", "infrastructure")
	return strings.Join(parts, " ")
}

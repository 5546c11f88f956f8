package agents

import (
	"context"
	"fmt"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/predictor"
)

// ValuationAgent runs the pricing model and reports the prediction with its
// confidence interval.
type ValuationAgent struct {
	model  predictor.Predictor
	logger *logx.Logger
}

func NewValuationAgent(model predictor.Predictor) *ValuationAgent {
	return &ValuationAgent{
		model:  model,
		logger: logx.NewLogger(string(proto.RoleValuation)),
	}
}

// Role identifies this agent.
func (a *ValuationAgent) Role() proto.Role {
	return proto.RoleValuation
}

// Handle implements the Agent contract.
func (a *ValuationAgent) Handle(ctx context.Context, req *analysis.AnalysisRequest) (*Result, error) {
	prediction, err := a.model.Predict(ctx, req.Property)
	if err != nil {
		return nil, fmt.Errorf("valuation failed: %w", err)
	}

	a.logger.Info("valuation complete: price=%.0f yield=%.2f%% confidence=%.2f",
		prediction.PredictedPriceINR, prediction.RentalYieldPct, prediction.Confidence)

	return &Result{Prediction: prediction}, nil
}

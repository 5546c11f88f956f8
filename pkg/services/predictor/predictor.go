// Package predictor provides property price and rent prediction for the
// valuation agent.
package predictor

import (
	"context"
	"errors"
	"fmt"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
)

// ErrOutOfDomain is returned when property features fall outside the model's
// trained domain.
var ErrOutOfDomain = errors.New("property features outside model domain")

// PredictionError wraps a model failure with the offending feature.
type PredictionError struct {
	Feature string
	Value   float64
	Err     error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed on %s=%.1f: %v", e.Feature, e.Value, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// Predictor produces a price and rent prediction for a property.
type Predictor interface {
	Predict(ctx context.Context, property analysis.PropertyDetails) (*analysis.Prediction, error)
}

package predictor

import (
	"context"
	"math"
	"strings"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
)

const modelVersion = "hedonic-v2"

// Model domain limits. Properties outside these bounds get ErrOutOfDomain
// rather than a wild extrapolation.
const (
	minSizeSqft = 150
	maxSizeSqft = 20000
	maxAgeYears = 100
)

// City base rates in INR per square foot, with a rent factor expressing the
// monthly rent per sqft as a share of the price per sqft.
type cityRates struct {
	pricePerSqft float64
	rentFactor   float64
}

//nolint:gochecknoglobals // Static model coefficients
var cityTable = map[string]cityRates{
	"mumbai":    {pricePerSqft: 28000, rentFactor: 0.0028},
	"delhi":     {pricePerSqft: 18000, rentFactor: 0.0030},
	"bangalore": {pricePerSqft: 12500, rentFactor: 0.0035},
	"bengaluru": {pricePerSqft: 12500, rentFactor: 0.0035},
	"hyderabad": {pricePerSqft: 9500, rentFactor: 0.0036},
	"pune":      {pricePerSqft: 10500, rentFactor: 0.0033},
	"chennai":   {pricePerSqft: 9800, rentFactor: 0.0032},
	"kolkata":   {pricePerSqft: 7500, rentFactor: 0.0034},
}

var defaultRates = cityRates{pricePerSqft: 8000, rentFactor: 0.0032}

// HedonicModel is a deterministic local pricing model: a city base rate
// adjusted for size, age, metro proximity, and amenities.
type HedonicModel struct {
	logger *logx.Logger
}

func NewHedonicModel() *HedonicModel {
	return &HedonicModel{logger: logx.NewLogger("predictor")}
}

// Predict returns a price, range, rent, and yield estimate for the property.
func (m *HedonicModel) Predict(_ context.Context, property analysis.PropertyDetails) (*analysis.Prediction, error) {
	if property.SizeSqft < minSizeSqft || property.SizeSqft > maxSizeSqft {
		return nil, &PredictionError{Feature: "size_sqft", Value: property.SizeSqft, Err: ErrOutOfDomain}
	}
	if property.AgeYears > maxAgeYears {
		return nil, &PredictionError{Feature: "age_years", Value: property.AgeYears, Err: ErrOutOfDomain}
	}

	rates, known := cityTable[strings.ToLower(property.City)]
	if !known {
		rates = defaultRates
	}

	rate := rates.pricePerSqft

	// Depreciation: 0.8% per year, floored at 60% of the base rate.
	depreciation := math.Max(0.60, 1.0-0.008*property.AgeYears)
	rate *= depreciation

	// Metro proximity premium decays with distance; beyond ~8km it is gone.
	metroPremium := 1.0 + 0.10*math.Exp(-property.MetroDistanceKM/3.0)
	rate *= metroPremium

	// Large units trade at a small per-sqft discount.
	if property.SizeSqft > 2000 {
		rate *= 0.95
	}

	if len(property.Amenities) > 0 {
		amenityBoost := 1.0 + math.Min(0.06, 0.015*float64(len(property.Amenities)))
		rate *= amenityBoost
	}

	price := rate * property.SizeSqft
	rent := rates.rentFactor * rates.pricePerSqft * property.SizeSqft
	yield := 0.0
	if price > 0 {
		yield = (rent * 12 / price) * 100
	}

	confidence := m.confidence(property, known)

	// Range width narrows as confidence rises.
	spread := 0.25 * (1.0 - 0.5*confidence)

	prediction := &analysis.Prediction{
		PredictedPriceINR: round2(price),
		PriceLowINR:       round2(price * (1 - spread)),
		PriceHighINR:      round2(price * (1 + spread)),
		MonthlyRentINR:    round2(rent),
		RentalYieldPct:    round2(yield),
		Confidence:        confidence,
		ModelVersion:      modelVersion,
	}

	m.logger.Debug("predicted %s/%s: price=%.0f yield=%.2f%% confidence=%.2f",
		property.City, property.Locality, prediction.PredictedPriceINR, prediction.RentalYieldPct, confidence)

	return prediction, nil
}

// confidence reflects feature completeness and whether the city is in the
// trained table.
func (m *HedonicModel) confidence(property analysis.PropertyDetails, knownCity bool) float64 {
	confidence := 0.55
	if knownCity {
		confidence += 0.20
	}
	if property.Locality != "" {
		confidence += 0.05
	}
	if property.Bedrooms > 0 {
		confidence += 0.05
	}
	if property.MetroDistanceKM > 0 {
		confidence += 0.05
	}
	if len(property.Amenities) > 0 {
		confidence += 0.03
	}
	return analysis.Clamp01(math.Round(confidence*100) / 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
)

func mumbaiProperty() analysis.PropertyDetails {
	return analysis.PropertyDetails{
		City:            "Mumbai",
		Locality:        "Andheri West",
		PropertyType:    "apartment",
		SizeSqft:        1100,
		Bedrooms:        2,
		AgeYears:        5,
		MetroDistanceKM: 1.2,
		Amenities:       []string{"gym", "pool"},
	}
}

func TestHedonicModel_Predict(t *testing.T) {
	m := NewHedonicModel()

	p, err := m.Predict(context.Background(), mumbaiProperty())

	require.NoError(t, err)
	assert.Equal(t, "hedonic-v2", p.ModelVersion)
	assert.Greater(t, p.PredictedPriceINR, 0.0)
	assert.Less(t, p.PriceLowINR, p.PredictedPriceINR)
	assert.Greater(t, p.PriceHighINR, p.PredictedPriceINR)
	assert.Greater(t, p.MonthlyRentINR, 0.0)
	assert.Greater(t, p.RentalYieldPct, 0.0)
	assert.GreaterOrEqual(t, p.Confidence, 0.0)
	assert.LessOrEqual(t, p.Confidence, 1.0)
}

func TestHedonicModel_Deterministic(t *testing.T) {
	m := NewHedonicModel()

	first, err := m.Predict(context.Background(), mumbaiProperty())
	require.NoError(t, err)
	second, err := m.Predict(context.Background(), mumbaiProperty())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHedonicModel_DomainLimits(t *testing.T) {
	m := NewHedonicModel()

	tests := []struct {
		name    string
		mutate  func(*analysis.PropertyDetails)
		feature string
	}{
		{"too small", func(p *analysis.PropertyDetails) { p.SizeSqft = 100 }, "size_sqft"},
		{"too large", func(p *analysis.PropertyDetails) { p.SizeSqft = 25000 }, "size_sqft"},
		{"too old", func(p *analysis.PropertyDetails) { p.AgeYears = 150 }, "age_years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			property := mumbaiProperty()
			tt.mutate(&property)

			_, err := m.Predict(context.Background(), property)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrOutOfDomain)

			var perr *PredictionError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.feature, perr.Feature)
		})
	}
}

func TestHedonicModel_CityRates(t *testing.T) {
	m := NewHedonicModel()

	property := mumbaiProperty()
	mumbai, err := m.Predict(context.Background(), property)
	require.NoError(t, err)

	property.City = "Kolkata"
	kolkata, err := m.Predict(context.Background(), property)
	require.NoError(t, err)

	assert.Greater(t, mumbai.PredictedPriceINR, kolkata.PredictedPriceINR,
		"Mumbai base rate far exceeds Kolkata's")
}

func TestHedonicModel_UnknownCityLowersConfidence(t *testing.T) {
	m := NewHedonicModel()

	known := mumbaiProperty()
	unknown := mumbaiProperty()
	unknown.City = "Shillong"

	kp, err := m.Predict(context.Background(), known)
	require.NoError(t, err)
	up, err := m.Predict(context.Background(), unknown)
	require.NoError(t, err)

	assert.Greater(t, kp.Confidence, up.Confidence)
}

func TestHedonicModel_BengaluruAlias(t *testing.T) {
	m := NewHedonicModel()

	property := mumbaiProperty()
	property.City = "bangalore"
	a, err := m.Predict(context.Background(), property)
	require.NoError(t, err)

	property.City = "Bengaluru"
	b, err := m.Predict(context.Background(), property)
	require.NoError(t, err)

	assert.Equal(t, a.PredictedPriceINR, b.PredictedPriceINR)
}

func TestHedonicModel_AgeDepreciation(t *testing.T) {
	m := NewHedonicModel()

	fresh := mumbaiProperty()
	fresh.AgeYears = 0
	aged := mumbaiProperty()
	aged.AgeYears = 30

	fp, err := m.Predict(context.Background(), fresh)
	require.NoError(t, err)
	ap, err := m.Predict(context.Background(), aged)
	require.NoError(t, err)

	assert.Greater(t, fp.PredictedPriceINR, ap.PredictedPriceINR)
	// Depreciation is floored: a 90 year old property still keeps 60% of base.
	ancient := mumbaiProperty()
	ancient.AgeYears = 90
	xp, err := m.Predict(context.Background(), ancient)
	require.NoError(t, err)
	assert.Greater(t, xp.PredictedPriceINR, 0.55*fp.PredictedPriceINR)
}

func TestHedonicModel_MetroPremiumDecays(t *testing.T) {
	m := NewHedonicModel()

	near := mumbaiProperty()
	near.MetroDistanceKM = 0.5
	far := mumbaiProperty()
	far.MetroDistanceKM = 9

	np, err := m.Predict(context.Background(), near)
	require.NoError(t, err)
	fp, err := m.Predict(context.Background(), far)
	require.NoError(t, err)

	assert.Greater(t, np.PredictedPriceINR, fp.PredictedPriceINR)
}

package types

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceObservationValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		o := PriceObservation{Month: "2026-03", Price: 0.21, Source: PriceSourcePublished}
		assert.NoError(t, o.Validate())
	})

	t.Run("band edges inclusive", func(t *testing.T) {
		assert.NoError(t, PriceObservation{Month: "2026-03", Price: MinWholesalePrice, Source: PriceSourceEstimated}.Validate())
		assert.NoError(t, PriceObservation{Month: "2026-03", Price: MaxWholesalePrice, Source: PriceSourceEstimated}.Validate())
	})

	t.Run("bad price", func(t *testing.T) {
		for _, p := range []float64{0.04, 0.81, -1, 0, math.NaN(), math.Inf(1)} {
			err := PriceObservation{Month: "2026-03", Price: p, Source: PriceSourceEstimated}.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "price %v", p)
			assert.Equal(t, "price", verr.Field)
		}
	})

	t.Run("bad month", func(t *testing.T) {
		for _, m := range []string{"2026-3", "2026-13", "26-03", "2026/03", "", "2026-03-01"} {
			err := PriceObservation{Month: m, Price: 0.2, Source: PriceSourceEstimated}.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "month %q", m)
			assert.Equal(t, "month", verr.Field)
		}
	})

	t.Run("bad source", func(t *testing.T) {
		err := PriceObservation{Month: "2026-03", Price: 0.2, Source: "guess"}.Validate()
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "source", verr.Field)
	})
}

func TestParsePriceSource(t *testing.T) {
	s, err := ParsePriceSource("published")
	require.NoError(t, err)
	assert.Equal(t, PriceSourcePublished, s)

	s, err = ParsePriceSource("SingleBuyer")
	require.NoError(t, err)
	assert.Equal(t, PriceSourcePublished, s)

	s, err = ParsePriceSource("")
	require.NoError(t, err)
	assert.Equal(t, PriceSourceEstimated, s)

	_, err = ParsePriceSource("rumour")
	assert.Error(t, err)
}

func TestFacilityProfileMarginalTariff(t *testing.T) {
	p := FacilityProfile{BlendedTariff: 0.334}
	assert.Equal(t, 0.334, p.MarginalTariff())
	p.PeakTariff = 0.365
	assert.Equal(t, 0.365, p.MarginalTariff())
}

func TestFinancialProjectionBaseScenario(t *testing.T) {
	f := FinancialProjection{
		Scenarios: []SavingsScenario{{Name: "a"}, {Name: "b"}},
		Base:      1,
	}
	assert.Equal(t, "b", f.BaseScenario().Name)
	f.Base = 5
	assert.Equal(t, SavingsScenario{}, f.BaseScenario())
}

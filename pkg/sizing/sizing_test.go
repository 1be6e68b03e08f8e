package sizing

import (
	"context"
	"testing"

	"github.com/powerroof/powerroof/pkg/facility"
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/prices"
	"github.com/powerroof/powerroof/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateDemo(t *testing.T) {
	ctx := context.Background()
	stats := prices.Statistics(nil, prices.DefaultWindow)

	rec, err := Evaluate(ctx, facility.Demo(), policy.Default(), stats)
	require.NoError(t, err)

	assert.True(t, rec.Eligible)
	assert.Len(t, rec.Criteria, 5)
	assert.Equal(t, 350.0, rec.CapacityCapKW)
	assert.InDelta(t, 262.5, rec.OptimalLowKWp, 1e-9)
	assert.InDelta(t, 297.5, rec.OptimalHighKWp, 1e-9)
	assert.Equal(t, 280.0, rec.RecommendedKWp)
	assert.InDelta(t, 364000, rec.AnnualGenerationKWh, 1e-6)
	assert.Equal(t, 16800.0, rec.RoofAreaSqft)

	t.Run("oversizing", func(t *testing.T) {
		o := rec.Oversizing
		assert.Equal(t, 350.0, o.SizeKWp)
		assert.InDelta(t, 455000, o.GenerationKWh, 1e-6)
		assert.InDelta(t, 91000, o.IncrementalExportKWh, 1e-6)
		assert.InDelta(t, 91000*(0.365-0.20), o.AnnualValueLoss, 1e-6)
	})
}

func TestEvaluateBounds(t *testing.T) {
	ctx := context.Background()
	stats := prices.Statistics(nil, prices.DefaultWindow)
	pol := policy.Default()

	for _, md := range []float64{10, 72, 180, 350, 999, 1000, 1500, 5000} {
		p := facility.Demo()
		p.MaximumDemandKW = md
		p.CandidateSizeKWp = 0
		rec, err := Evaluate(ctx, p, pol, stats)
		require.NoError(t, err)
		require.True(t, rec.Eligible)

		assert.Greater(t, rec.RecommendedKWp, 0.0)
		assert.LessOrEqual(t, rec.RecommendedKWp, min(md, pol.CapacityCeilingKW))
		assert.GreaterOrEqual(t, rec.RecommendedKWp, rec.OptimalLowKWp)
		assert.LessOrEqual(t, rec.RecommendedKWp, rec.OptimalHighKWp)
		assert.LessOrEqual(t, rec.OptimalHighKWp, rec.CapacityCapKW)
	}
}

func TestEvaluateCandidateClamped(t *testing.T) {
	p := facility.Demo()
	p.CandidateSizeKWp = 340
	rec, err := Evaluate(context.Background(), p, policy.Default(), types.PriceStatistics{Average: 0.2})
	require.NoError(t, err)
	assert.InDelta(t, 297.5, rec.RecommendedKWp, 1e-9)

	p.CandidateSizeKWp = 100
	rec, err = Evaluate(context.Background(), p, policy.Default(), types.PriceStatistics{Average: 0.2})
	require.NoError(t, err)
	assert.InDelta(t, 262.5, rec.RecommendedKWp, 1e-9)
}

func TestEvaluateGenerationOverride(t *testing.T) {
	p := facility.Demo()
	p.AnnualGenerationKWh = 350000
	rec, err := Evaluate(context.Background(), p, policy.Default(), types.PriceStatistics{Average: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 350000.0, rec.AnnualGenerationKWh)
	assert.InDelta(t, 350000*350.0/280.0, rec.Oversizing.GenerationKWh, 1e-6)
}

func TestEvaluateClampedCandidateWithOverride(t *testing.T) {
	p := facility.Demo()
	p.CandidateSizeKWp = 400
	p.AnnualGenerationKWh = 520000
	rec, err := Evaluate(context.Background(), p, policy.Default(), types.PriceStatistics{Average: 0.2})
	require.NoError(t, err)

	assert.InDelta(t, 297.5, rec.RecommendedKWp, 1e-9)
	assert.InDelta(t, 520000*297.5/400, rec.AnnualGenerationKWh, 1e-6)
	assert.InDelta(t, 1300, rec.AnnualGenerationKWh/rec.RecommendedKWp, 1e-9)
	assert.InDelta(t, 455000, rec.Oversizing.GenerationKWh, 1e-6)
	assert.InDelta(t, 455000-386750, rec.Oversizing.IncrementalExportKWh, 1e-6)

	t.Run("candidate inside band keeps override", func(t *testing.T) {
		p.CandidateSizeKWp = 280
		p.AnnualGenerationKWh = 390000
		rec, err := Evaluate(context.Background(), p, policy.Default(), types.PriceStatistics{Average: 0.2})
		require.NoError(t, err)
		assert.Equal(t, 390000.0, rec.AnnualGenerationKWh)
	})
}

func TestOversizingZeroRecommended(t *testing.T) {
	o := oversizing(facility.Demo(), types.SizingRecommendation{CapacityCapKW: 350}, types.PriceStatistics{Average: 0.2})
	assert.Equal(t, 350.0, o.SizeKWp)
	assert.Zero(t, o.GenerationKWh)
	assert.Zero(t, o.IncrementalExportKWh)
	assert.Zero(t, o.AnnualValueLoss)
}

func TestEvaluateInvalid(t *testing.T) {
	ctx := context.Background()

	t.Run("zero md", func(t *testing.T) {
		p := facility.Demo()
		p.MaximumDemandKW = 0
		rec, err := Evaluate(ctx, p, policy.Default(), types.PriceStatistics{})
		var perr *types.InvalidProfileError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "maximum_demand_kw", perr.Field)
		assert.Empty(t, rec.Criteria)
	})

	t.Run("zero ceiling", func(t *testing.T) {
		pol := policy.Default()
		pol.CapacityCeilingKW = 0
		_, err := Evaluate(ctx, facility.Demo(), pol, types.PriceStatistics{})
		var perr *types.InvalidProfileError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "capacity_ceiling_kw", perr.Field)
	})
}

func TestEvaluateIneligible(t *testing.T) {
	p := facility.Demo()
	p.SingleTenant = false
	p.OwnerOccupied = false

	rec, err := Evaluate(context.Background(), p, policy.Default(), types.PriceStatistics{})
	require.NoError(t, err)
	assert.False(t, rec.Eligible)
	// every criterion still reported
	require.Len(t, rec.Criteria, 5)
	assert.Equal(t, types.CriterionFail, rec.Criteria[0].Status)
	assert.Equal(t, types.CriterionFail, rec.Criteria[2].Status)
	assert.Zero(t, rec.RecommendedKWp)
}

func TestCriteria(t *testing.T) {
	pol := policy.Default()

	t.Run("demo", func(t *testing.T) {
		c := Criteria(facility.Demo(), pol)
		require.Len(t, c, 5)
		want := []types.CriterionStatus{
			types.CriterionPass,
			types.CriterionPass,
			types.CriterionPass,
			types.CriterionNote,
			types.CriterionPass,
		}
		for i, s := range want {
			assert.Equal(t, s, c[i].Status, c[i].Name)
		}
		assert.Equal(t, "Maximum demand vs 1 MW ceiling", c[1].Name)
	})

	t.Run("md above ceiling is a note", func(t *testing.T) {
		p := facility.Demo()
		p.MaximumDemandKW = 1200
		c := Criteria(p, pol)
		assert.Equal(t, types.CriterionNote, c[1].Status)
		assert.Contains(t, c[1].Detail, "capped at 1 MW")
	})

	t.Run("landlord consent", func(t *testing.T) {
		p := facility.Demo()
		p.OwnerOccupied = false
		p.LandlordConsent = true
		c := Criteria(p, pol)
		assert.Equal(t, types.CriterionPass, c[2].Status)
	})

	t.Run("excluded sector", func(t *testing.T) {
		pol := policy.Default()
		pol.ExcludedSectors = []string{"Plastics Manufacturing"}
		c := Criteria(facility.Demo(), pol)
		assert.Equal(t, types.CriterionFail, c[4].Status)
	})
}

// Package sensitivity measures how the base-case economics move with the
// wholesale price paid for exported energy.
package sensitivity

import (
	"math"
	"sort"

	"github.com/powerroof/powerroof/pkg/finance"
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/types"
)

// dedupTolerance merges sensitivity prices closer than half a sen.
const dedupTolerance = 0.005

type candidate struct {
	price     float64
	isAverage bool
}

// Prices returns the ordered, deduplicated wholesale prices evaluated for
// stats: the average shifted by each policy offset (floored at the lowest
// accepted price) plus the historical maximum.
func Prices(stats types.PriceStatistics, pol policy.Policy) []types.SensitivityPoint {
	cands := make([]candidate, 0, len(pol.SensitivityOffsets)+1)
	for _, off := range pol.SensitivityOffsets {
		cands = append(cands, candidate{
			price:     max(types.MinWholesalePrice, stats.Average+off),
			isAverage: off == 0,
		})
	}
	cands = append(cands, candidate{price: stats.Max})
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].price < cands[j].price
	})

	var points []types.SensitivityPoint
	for _, c := range cands {
		if n := len(points); n > 0 && math.Abs(c.price-points[n-1].Price) < dedupTolerance {
			if c.isAverage {
				points[n-1] = types.SensitivityPoint{Price: c.price, IsAverage: true}
			}
			continue
		}
		points = append(points, types.SensitivityPoint{Price: c.price, IsAverage: c.isAverage})
	}
	return points
}

// Analyze evaluates the base-case scenario of the facility at each
// sensitivity price and over the full historical band. The base case is
// recomputed exactly as the financial projector does, with only the
// wholesale price substituted.
func Analyze(p types.FacilityProfile, rec types.SizingRecommendation, stats types.PriceStatistics, pol policy.Policy) types.SensitivityEnvelope {
	capex := finance.Capex(p, rec.RecommendedKWp, pol).Mid
	fraction := min(max(p.SelfConsumption, 0), 1)
	base := finance.Scenario(finance.ScenarioBase, fraction, rec.AnnualGenerationKWh, p.BlendedTariff, stats.Average, capex)
	savingsAt := func(price float64) float64 {
		return base.SelfConsumedValue + base.ExportedKWh*price
	}

	env := types.SensitivityEnvelope{
		Points:         Prices(stats, pol),
		ExportedKWh:    base.ExportedKWh,
		ThresholdYears: pol.RobustPaybackSpreadYears,
	}
	for i := range env.Points {
		pt := &env.Points[i]
		pt.ExportRevenue = base.ExportedKWh * pt.Price
		pt.AnnualSavings = savingsAt(pt.Price)
		pt.PaybackYears = finance.Payback(capex, pt.AnnualSavings)
		pt.DeltaVsAverage = pt.AnnualSavings - base.AnnualSavings
	}

	env.Swing = base.ExportedKWh * (stats.Max - stats.Min)
	if base.AnnualSavings > 0 {
		env.SwingPercent = env.Swing / base.AnnualSavings * 100
	}

	// a higher wholesale price means more revenue and a shorter payback
	env.PaybackMinYears = finance.Payback(capex, savingsAt(stats.Max))
	env.PaybackMaxYears = finance.Payback(capex, savingsAt(stats.Min))
	if env.PaybackMinYears != nil && env.PaybackMaxYears != nil {
		spread := *env.PaybackMaxYears - *env.PaybackMinYears
		env.PaybackSpreadYears = &spread
	}
	env.Verdict = Verdict(env.PaybackSpreadYears, pol)
	return env
}

// Verdict classifies a payback spread. An undefined spread is exposed.
func Verdict(spread *float64, pol policy.Policy) types.SensitivityVerdict {
	switch {
	case spread == nil:
		return types.VerdictExposed
	case *spread < pol.RobustPaybackSpreadYears:
		return types.VerdictRobust
	case *spread < pol.ModeratePaybackSpreadYears:
		return types.VerdictModerate
	default:
		return types.VerdictExposed
	}
}

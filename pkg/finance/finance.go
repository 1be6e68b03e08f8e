// Package finance projects the installed cost, annual savings and
// multi-year cashflow of a sized rooftop system.
package finance

import (
	"math"

	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/types"
)

// Scenario names in ascending self-consumption order.
const (
	ScenarioConservative = "Conservative"
	ScenarioBase         = "Base"
	ScenarioOptimistic   = "Optimistic"
)

// Project builds the financial model for an eligible sizing recommendation.
// Values are computed in full precision; rounding is left to presentation.
func Project(p types.FacilityProfile, rec types.SizingRecommendation, stats types.PriceStatistics, pol policy.Policy) (types.FinancialProjection, error) {
	if !rec.Eligible || rec.RecommendedKWp <= 0 {
		return types.FinancialProjection{}, &types.InvalidProfileError{
			Field:  "eligibility",
			Reason: "facility is not eligible, nothing to project",
		}
	}

	proj := types.FinancialProjection{
		Capex:           Capex(p, rec.RecommendedKWp, pol),
		DegradationRate: pol.DegradationRate,
		Base:            1,
	}

	fractions := []struct {
		name string
		f    float64
	}{
		{ScenarioConservative, clamp01(p.SelfConsumption - pol.ScenarioSpread)},
		{ScenarioBase, clamp01(p.SelfConsumption)},
		{ScenarioOptimistic, clamp01(p.SelfConsumption + pol.ScenarioSpread)},
	}
	for _, fr := range fractions {
		proj.Scenarios = append(proj.Scenarios, Scenario(fr.name, fr.f, rec.AnnualGenerationKWh, p.BlendedTariff, stats.Average, proj.Capex.Mid))
	}

	base := proj.BaseScenario().AnnualSavings
	proj.Cashflow = Cashflow(proj.Capex.Mid, base, pol.DegradationRate, pol.HorizonYears)
	proj.BreakevenYear = Breakeven(proj.Cashflow)
	proj.PaybackLowYears = Payback(proj.Capex.Low, base)
	proj.PaybackHighYears = Payback(proj.Capex.High, base)

	last := proj.Cashflow[len(proj.Cashflow)-1]
	proj.NetBenefit = last.Cumulative
	proj.LifetimeSavings = last.Cumulative + proj.Capex.Mid
	return proj, nil
}

// Capex prices a system of sizeKWp including the connection assessment fee
// and the structural assessment range.
func Capex(p types.FacilityProfile, sizeKWp float64, pol policy.Policy) types.CapexEstimate {
	c := types.CapexEstimate{
		PVLow:          sizeKWp * p.CapexPerKWpLow,
		PVHigh:         sizeKWp * p.CapexPerKWpHigh,
		StructuralLow:  pol.StructuralLow,
		StructuralHigh: pol.StructuralHigh,
	}
	c.FeeLabel, c.Fee = pol.Fee(sizeKWp, p.HighVoltage)
	c.Low = c.PVLow + c.Fee + c.StructuralLow
	c.High = c.PVHigh + c.Fee + c.StructuralHigh
	if p.CapexMid > 0 {
		c.Mid = p.CapexMid
	} else {
		c.Mid = (c.Low + c.High) / 2
	}
	return c
}

// Scenario computes year-1 savings for one self-consumption fraction.
func Scenario(name string, fraction, generationKWh, tariff, wholesale, capex float64) types.SavingsScenario {
	s := types.SavingsScenario{
		Name:            name,
		SelfConsumption: fraction,
		SelfConsumedKWh: generationKWh * fraction,
	}
	s.ExportedKWh = generationKWh - s.SelfConsumedKWh
	s.SelfConsumedValue = s.SelfConsumedKWh * tariff
	s.ExportValue = s.ExportedKWh * wholesale
	s.AnnualSavings = s.SelfConsumedValue + s.ExportValue
	s.PaybackYears = Payback(capex, s.AnnualSavings)
	return s
}

// Payback returns capex / savings, or nil when savings never recover the
// investment.
func Payback(capex, annualSavings float64) *float64 {
	if annualSavings <= 0 {
		return nil
	}
	v := capex / annualSavings
	return &v
}

// Cashflow returns horizon+1 points. Year 0 is -capex; each later year adds
// the year-1 savings degraded by rate compounding annually.
func Cashflow(capex, year1Savings, rate float64, horizon int) []types.CashflowPoint {
	points := make([]types.CashflowPoint, 0, horizon+1)
	cum := -capex
	points = append(points, types.CashflowPoint{Year: 0, Cumulative: cum})
	for y := 1; y <= horizon; y++ {
		s := year1Savings * math.Pow(1-rate, float64(y-1))
		cum += s
		points = append(points, types.CashflowPoint{Year: y, AnnualSavings: s, Cumulative: cum})
	}
	return points
}

// Breakeven finds the fractional year where the cumulative cashflow first
// crosses zero, interpolating linearly inside the crossing year. It returns
// nil when the horizon ends below zero.
func Breakeven(points []types.CashflowPoint) *float64 {
	if len(points) == 0 {
		return nil
	}
	if points[0].Cumulative >= 0 {
		v := float64(points[0].Year)
		return &v
	}
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if cur.Cumulative >= 0 && prev.Cumulative < 0 {
			v := float64(prev.Year) + (-prev.Cumulative)/(cur.Cumulative-prev.Cumulative)
			return &v
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

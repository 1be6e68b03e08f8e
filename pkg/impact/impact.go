// Package impact derives the supporting facts shown alongside the financial
// model: avoided emissions, forfeiture exposure, load overlap, panel layout
// and the solar fit score.
package impact

import (
	"math"

	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/types"
)

// Summarize computes every impact fact for an eligible sizing result.
func Summarize(p types.FacilityProfile, rec types.SizingRecommendation, stats types.PriceStatistics, pol policy.Policy) types.ImpactSummary {
	return types.ImpactSummary{
		Carbon:     Carbon(p, rec, pol),
		Forfeiture: Forfeiture(p, rec, stats, pol),
		Load:       Load(p, rec),
		Layout:     Layout(rec, pol),
		Fit:        Fit(p.FitScore),
	}
}

// Carbon converts annual generation to avoided grid emissions. The lifetime
// figure follows the same degradation curve as the cashflow.
func Carbon(p types.FacilityProfile, rec types.SizingRecommendation, pol policy.Policy) types.CarbonImpact {
	factor := pol.EmissionFactorKgPerKWh
	if p.EmissionFactorKgPerKWh > 0 {
		factor = p.EmissionFactorKgPerKWh
	}
	c := types.CarbonImpact{
		EmissionFactor: factor,
		AnnualTonnes:   rec.AnnualGenerationKWh * factor / 1000,
	}
	for y := 0; y < pol.HorizonYears; y++ {
		c.LifetimeTonnes += c.AnnualTonnes * math.Pow(1-pol.DegradationRate, float64(y))
	}
	if pol.CarTonnesPerYear > 0 {
		c.CarsEquivalent = c.AnnualTonnes / pol.CarTonnesPerYear
	}
	if pol.TreeTonnesPerYear > 0 {
		c.TreesEquivalent = c.AnnualTonnes / pol.TreeTonnesPerYear
	}
	return c
}

// Forfeiture prices each low-load period as generation exported at the
// wholesale average instead of displacing the blended tariff.
func Forfeiture(p types.FacilityProfile, rec types.SizingRecommendation, stats types.PriceStatistics, pol policy.Policy) types.ForfeitureAssessment {
	f := types.ForfeitureAssessment{
		DailyKWh: rec.AnnualGenerationKWh / 365,
		Spread:   max(p.BlendedTariff-stats.Average, 0),
	}
	for _, ev := range pol.ForfeitureEvents {
		r := types.ForfeitureRisk{
			Name:        ev.Name,
			Probability: ev.Probability,
			DaysLow:     ev.DaysLow,
			DaysHigh:    ev.DaysHigh,
			CostLow:     ev.DaysLow * f.DailyKWh * f.Spread,
			CostHigh:    ev.DaysHigh * f.DailyKWh * f.Spread,
			Mitigation:  ev.Mitigation,
		}
		f.TotalLow += r.CostLow
		f.TotalHigh += r.CostHigh
		f.Risks = append(f.Risks, r)
	}
	if gross := rec.AnnualGenerationKWh * p.BlendedTariff; gross > 0 {
		f.PercentOfGross = [2]float64{f.TotalLow / gross * 100, f.TotalHigh / gross * 100}
	}
	return f
}

// Layout estimates the panel count and roof footprint.
func Layout(rec types.SizingRecommendation, pol policy.Policy) types.PanelLayout {
	l := types.PanelLayout{
		PanelWatts:     pol.PanelWatts,
		UsableRoofSqft: rec.RoofAreaSqft,
		FootprintSqft:  rec.RoofAreaSqft * pol.FootprintFactor,
	}
	if pol.PanelWatts > 0 {
		l.PanelCount = int(math.Ceil(rec.RecommendedKWp * 1000 / pol.PanelWatts))
	}
	return l
}

// Fit totals the fit components as a score out of 100 and grades it.
func Fit(components []types.FitComponent) types.FitScore {
	f := types.FitScore{Components: components}
	var score, maxScore float64
	for _, c := range components {
		score += c.Score
		maxScore += c.Max
	}
	if maxScore <= 0 {
		return f
	}
	f.Total = score / maxScore * 100
	switch {
	case f.Total >= 80:
		f.Grade = "A"
	case f.Total >= 60:
		f.Grade = "B"
	default:
		f.Grade = "C"
	}
	return f
}

// Package sizing decides whether a facility qualifies under ATAP and how
// large its rooftop system should be.
package sizing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/types"
)

// Evaluate runs every eligibility criterion and, for an eligible facility,
// sizes the system within the policy band. A non-positive maximum demand or
// capacity cap is an InvalidProfileError and produces no result at all.
func Evaluate(ctx context.Context, p types.FacilityProfile, pol policy.Policy, stats types.PriceStatistics) (types.SizingRecommendation, error) {
	if p.MaximumDemandKW <= 0 {
		return types.SizingRecommendation{}, &types.InvalidProfileError{
			Field:  "maximum_demand_kw",
			Reason: fmt.Sprintf("must be positive, got %v", p.MaximumDemandKW),
		}
	}
	capKW := min(p.MaximumDemandKW, pol.CapacityCeilingKW)
	if capKW <= 0 {
		return types.SizingRecommendation{}, &types.InvalidProfileError{
			Field:  "capacity_ceiling_kw",
			Reason: fmt.Sprintf("capacity cap must be positive, got %v", capKW),
		}
	}

	rec := types.SizingRecommendation{
		Criteria: Criteria(p, pol),
		Eligible: true,
	}
	for _, c := range rec.Criteria {
		if c.Status == types.CriterionFail {
			rec.Eligible = false
		}
	}
	if !rec.Eligible {
		log.Ctx(ctx).InfoContext(ctx, "facility not eligible", slog.String("company", p.CompanyName))
		return rec, nil
	}

	rec.CapacityCapKW = capKW
	rec.OptimalLowKWp = pol.BandLow * capKW
	rec.OptimalHighKWp = pol.BandHigh * capKW
	rec.SpecificYield = pol.SpecificYield

	if p.CandidateSizeKWp > 0 {
		rec.RecommendedKWp = min(max(p.CandidateSizeKWp, rec.OptimalLowKWp), rec.OptimalHighKWp)
		if rec.RecommendedKWp != p.CandidateSizeKWp {
			log.Ctx(ctx).WarnContext(
				ctx,
				"candidate size outside optimal band, clamping",
				slog.Float64("candidateKWp", p.CandidateSizeKWp),
				slog.Float64("recommendedKWp", rec.RecommendedKWp),
			)
		}
	} else {
		rec.RecommendedKWp = pol.RecommendedFraction * capKW
	}

	switch {
	case p.AnnualGenerationKWh > 0 && p.CandidateSizeKWp > 0 && rec.RecommendedKWp != p.CandidateSizeKWp:
		// the override describes the candidate system, not the clamped one
		rec.AnnualGenerationKWh = p.AnnualGenerationKWh * rec.RecommendedKWp / p.CandidateSizeKWp
		log.Ctx(ctx).WarnContext(
			ctx,
			"rescaling generation override to clamped size",
			slog.Float64("overrideKWh", p.AnnualGenerationKWh),
			slog.Float64("generationKWh", rec.AnnualGenerationKWh),
		)
	case p.AnnualGenerationKWh > 0:
		rec.AnnualGenerationKWh = p.AnnualGenerationKWh
	default:
		rec.AnnualGenerationKWh = rec.RecommendedKWp * pol.SpecificYield
	}

	if p.RoofAreaSqft > 0 {
		rec.RoofAreaSqft = p.RoofAreaSqft
	} else {
		rec.RoofAreaSqft = rec.RecommendedKWp * pol.RoofSqftPerKWp
	}

	rec.Oversizing = oversizing(p, rec, stats)
	return rec, nil
}

// oversizing models building to the full cap. Generation scales linearly
// with size and every additional kWh is assumed to be exported at the
// wholesale average instead of displacing the marginal tariff.
func oversizing(p types.FacilityProfile, rec types.SizingRecommendation, stats types.PriceStatistics) types.OversizingScenario {
	o := types.OversizingScenario{
		SizeKWp:        rec.CapacityCapKW,
		MarginalTariff: p.MarginalTariff(),
		WholesalePrice: stats.Average,
	}
	if rec.RecommendedKWp <= 0 {
		// a policy that skipped Validate can leave the band at zero
		return o
	}
	o.GenerationKWh = rec.AnnualGenerationKWh * rec.CapacityCapKW / rec.RecommendedKWp
	o.IncrementalExportKWh = o.GenerationKWh - rec.AnnualGenerationKWh
	o.AnnualValueLoss = o.IncrementalExportKWh * (o.MarginalTariff - o.WholesalePrice)
	return o
}

// Criteria evaluates every eligibility rule without short-circuiting.
func Criteria(p types.FacilityProfile, pol policy.Policy) []types.EligibilityCriterion {
	criteria := make([]types.EligibilityCriterion, 0, 5)

	tenant := types.EligibilityCriterion{Name: "Single-tenant premise"}
	if p.SingleTenant {
		tenant.Status = types.CriterionPass
		tenant.Detail = "Single occupant on one TNB account"
	} else {
		tenant.Status = types.CriterionFail
		tenant.Detail = "Multi-tenant premises cannot share an ATAP installation"
	}
	criteria = append(criteria, tenant)

	md := types.EligibilityCriterion{Name: fmt.Sprintf("Maximum demand vs %s ceiling", formatKW(pol.CapacityCeilingKW))}
	if p.MaximumDemandKW <= pol.CapacityCeilingKW {
		md.Status = types.CriterionPass
		md.Detail = fmt.Sprintf("%s maximum demand is within the ceiling", formatKW(p.MaximumDemandKW))
	} else {
		md.Status = types.CriterionNote
		md.Detail = fmt.Sprintf("%s maximum demand exceeds the ceiling, capacity capped at %s", formatKW(p.MaximumDemandKW), formatKW(pol.CapacityCeilingKW))
	}
	criteria = append(criteria, md)

	own := types.EligibilityCriterion{Name: "Ownership / TNB consent"}
	switch {
	case p.OwnerOccupied:
		own.Status = types.CriterionPass
		own.Detail = "Owner-occupied premise"
	case p.LandlordConsent:
		own.Status = types.CriterionPass
		own.Detail = "Landlord consent obtained"
	default:
		own.Status = types.CriterionFail
		own.Detail = "Tenant without landlord consent"
	}
	criteria = append(criteria, own)

	hours := types.EligibilityCriterion{Name: "Operating hours", Status: types.CriterionNote}
	switch p.Pattern {
	case types.OperatingPatternExtended:
		hours.Detail = "Extended hours, partial overlap with solar generation"
	case types.OperatingPatternNight:
		hours.Detail = "Night-dominant load, limited self-consumption"
	default:
		hours.Detail = "Day-dominant operations align with solar generation"
	}
	criteria = append(criteria, hours)

	sector := types.EligibilityCriterion{Name: "Sector eligibility"}
	if pol.ExcludesSector(p.Sector) {
		sector.Status = types.CriterionFail
		sector.Detail = fmt.Sprintf("%s is excluded from ATAP", p.Sector)
	} else {
		sector.Status = types.CriterionPass
		sector.Detail = "No sector exclusion applies"
	}
	criteria = append(criteria, sector)

	return criteria
}

func formatKW(kw float64) string {
	if kw >= 1000 {
		return fmt.Sprintf("%g MW", kw/1000)
	}
	return fmt.Sprintf("%g kW", kw)
}

package feasibility

import (
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/types"
)

// Indicator labels shown on the executive snapshot.
const (
	IndicatorTechnicalFit       = "Technical Fit"
	IndicatorFinancialViability = "Financial Viability"
	IndicatorPriceSensitivity   = "SMP Sensitivity"
	IndicatorPolicyCompliance   = "Policy Compliance"
)

// Snapshot derives the executive snapshot headline figures and traffic
// lights from a modeled dossier.
func Snapshot(d types.Dossier, pol policy.Policy) types.Snapshot {
	s := types.Snapshot{
		RecommendedKWp:     d.Sizing.RecommendedKWp,
		Eligible:           d.Sizing.Eligible,
		ShowIndicators:     d.Tier != types.TierBasic,
		CallToActionUpsell: d.Tier == types.TierBasic,
	}

	if d.Sizing.Eligible && len(d.Financial.Scenarios) > 0 {
		base := d.Financial.BaseScenario()
		s.SavingsLow, s.SavingsHigh = base.AnnualSavings, base.AnnualSavings
		for _, pt := range d.Sensitivity.Points {
			s.SavingsLow = min(s.SavingsLow, pt.AnnualSavings)
			s.SavingsHigh = max(s.SavingsHigh, pt.AnnualSavings)
		}
		s.PaybackLowYears = d.Financial.PaybackLowYears
		s.PaybackHighYears = d.Financial.PaybackHighYears
		if gen := base.SelfConsumedKWh + base.ExportedKWh; gen > 0 {
			s.ExportExposure = base.ExportedKWh / gen
		}
		s.ForfeitureLow = d.Impact.Forfeiture.TotalLow
		s.ForfeitureHigh = d.Impact.Forfeiture.TotalHigh
	}

	s.Indicators = []types.Indicator{
		{Label: IndicatorTechnicalFit, Light: technicalLight(d)},
		{Label: IndicatorFinancialViability, Light: financialLight(d, pol)},
		{Label: IndicatorPriceSensitivity, Light: sensitivityLight(d)},
		{Label: IndicatorPolicyCompliance, Light: complianceLight(d.Sizing.Criteria)},
	}
	return s
}

func technicalLight(d types.Dossier) types.Light {
	if !d.Sizing.Eligible {
		return types.LightRed
	}
	switch d.Impact.Fit.Grade {
	case "A", "":
		return types.LightGreen
	case "B":
		return types.LightAmber
	default:
		return types.LightRed
	}
}

func financialLight(d types.Dossier, pol policy.Policy) types.Light {
	if !d.Sizing.Eligible {
		return types.LightRed
	}
	pb := d.Financial.BaseScenario().PaybackYears
	switch {
	case pb == nil:
		return types.LightRed
	case *pb <= pol.ViablePaybackYears:
		return types.LightGreen
	case *pb <= pol.MarginalPaybackYears:
		return types.LightAmber
	default:
		return types.LightRed
	}
}

func sensitivityLight(d types.Dossier) types.Light {
	if !d.Sizing.Eligible {
		return types.LightRed
	}
	switch d.Sensitivity.Verdict {
	case types.VerdictRobust:
		return types.LightGreen
	case types.VerdictModerate:
		return types.LightAmber
	default:
		return types.LightRed
	}
}

func complianceLight(criteria []types.EligibilityCriterion) types.Light {
	light := types.LightGreen
	for _, c := range criteria {
		switch c.Status {
		case types.CriterionFail:
			return types.LightRed
		case types.CriterionNote:
			light = types.LightAmber
		}
	}
	return light
}

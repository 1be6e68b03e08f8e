// Package tier decides which sections each report tier contains and in what
// order. It is a static table; paid tiers are verified at init to be strict
// supersets of the tiers below them.
package tier

import (
	"fmt"
	"slices"
	"strings"

	"github.com/powerroof/powerroof/pkg/types"
)

// Tiers lists every tier from least to most detailed.
var Tiers = []types.Tier{types.TierBasic, types.TierPro, types.TierPremium}

// Info is the presentation metadata of a tier.
type Info struct {
	Title    string
	Subtitle string
	Tagline  string
	Audience string
	Sections []types.SectionKind
}

var titles = map[types.SectionKind]string{
	types.SectionCover:                   "Cover",
	types.SectionExecutiveSnapshot:       "Executive Snapshot",
	types.SectionMethodology:             "Report Methodology",
	types.SectionFacilityIntelligence:    "Facility Intelligence Overview",
	types.SectionRoofIntelligence:        "Roof Intelligence Analysis",
	types.SectionLayoutConcept:           "Preliminary Layout Concept",
	types.SectionEligibility:             "ATAP Eligibility",
	types.SectionSizing:                  "System Sizing",
	types.SectionEnergyFlow:              "Energy Flow",
	types.SectionLoadProfile:             "Load Profile Overlap",
	types.SectionFinancial:               "Financial Analysis",
	types.SectionCashflow:                "25-Year Cumulative Cashflow",
	types.SectionPriceSensitivity:        "Wholesale Price Sensitivity",
	types.SectionForfeiture:              "Monthly Forfeiture Risk Assessment",
	types.SectionCarbonESG:               "Carbon & ESG Impact",
	types.SectionRoadmap:                 "Implementation Roadmap",
	types.SectionStrategicRecommendation: "Strategic Recommendation",
	types.SectionDisclaimer:              "Disclaimer",
}

var table = map[types.Tier]Info{
	types.TierBasic: {
		Title:    "Solar ATAP",
		Subtitle: "Quick Fit Snapshot",
		Tagline:  "Preliminary Solar Suitability Check",
		Audience: "Non-binding indicative assessment",
		Sections: []types.SectionKind{
			types.SectionCover,
			types.SectionExecutiveSnapshot,
			types.SectionEligibility,
			types.SectionRoadmap,
			types.SectionDisclaimer,
		},
	},
	types.TierPro: {
		Title:    "Solar ATAP",
		Subtitle: "Feasibility Assessment",
		Tagline:  "Pre-Engineering Financial & Policy Review",
		Audience: "Confidential, prepared for internal decision-making",
		Sections: []types.SectionKind{
			types.SectionCover,
			types.SectionExecutiveSnapshot,
			types.SectionFacilityIntelligence,
			types.SectionEligibility,
			types.SectionSizing,
			types.SectionEnergyFlow,
			types.SectionLoadProfile,
			types.SectionFinancial,
			types.SectionCashflow,
			types.SectionPriceSensitivity,
			types.SectionForfeiture,
			types.SectionRoadmap,
			types.SectionDisclaimer,
		},
	},
	types.TierPremium: {
		Title:    "Solar ATAP",
		Subtitle: "Intelligence Dossier",
		Tagline:  "Independent Roof & Energy Feasibility Analysis",
		Audience: "Decision-grade strategic report",
		Sections: []types.SectionKind{
			types.SectionCover,
			types.SectionExecutiveSnapshot,
			types.SectionMethodology,
			types.SectionFacilityIntelligence,
			types.SectionRoofIntelligence,
			types.SectionLayoutConcept,
			types.SectionEligibility,
			types.SectionSizing,
			types.SectionEnergyFlow,
			types.SectionLoadProfile,
			types.SectionFinancial,
			types.SectionCashflow,
			types.SectionPriceSensitivity,
			types.SectionForfeiture,
			types.SectionCarbonESG,
			types.SectionRoadmap,
			types.SectionStrategicRecommendation,
			types.SectionDisclaimer,
		},
	},
}

// imagerySections render site imagery in the premium tier.
var imagerySections = []types.SectionKind{
	types.SectionRoofIntelligence,
	types.SectionLayoutConcept,
}

func init() {
	if err := Verify(); err != nil {
		panic(err)
	}
}

// Parse converts user input into a Tier.
func Parse(s string) (types.Tier, error) {
	t := types.Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := table[t]; !ok {
		return "", &types.ValidationError{Field: "tier", Value: s, Reason: "must be basic, pro, or premium"}
	}
	return t, nil
}

// Lookup returns the metadata for t.
func Lookup(t types.Tier) (Info, bool) {
	info, ok := table[t]
	return info, ok
}

// Facts carries the conditions that influence composition.
type Facts struct {
	HasImagery bool
}

// Compose returns the ordered sections for t. Unknown tiers yield nil.
func Compose(t types.Tier, facts Facts) []types.Section {
	info, ok := table[t]
	if !ok {
		return nil
	}
	sections := make([]types.Section, 0, len(info.Sections))
	for _, kind := range info.Sections {
		s := types.Section{
			Kind:    kind,
			Title:   titles[kind],
			Imagery: types.ImageryNone,
		}
		if slices.Contains(imagerySections, kind) {
			if facts.HasImagery {
				s.Imagery = types.ImageryReal
			} else {
				s.Imagery = types.ImageryPlaceholder
			}
		}
		// the free tier shows the short roadmap
		if t == types.TierBasic && kind == types.SectionRoadmap {
			s.Condensed = true
		}
		sections = append(sections, s)
	}
	return sections
}

// Verify checks that every tier contains all sections of the tiers before
// it, plus at least one more, and that shared sections keep their relative
// order.
func Verify() error {
	for i := 1; i < len(Tiers); i++ {
		lower, higher := table[Tiers[i-1]].Sections, table[Tiers[i]].Sections
		if len(higher) <= len(lower) {
			return fmt.Errorf("tier %s is not a strict superset of %s", Tiers[i], Tiers[i-1])
		}
		last := -1
		for _, kind := range lower {
			idx := slices.Index(higher, kind)
			if idx < 0 {
				return fmt.Errorf("tier %s is missing section %s from %s", Tiers[i], kind, Tiers[i-1])
			}
			if idx < last {
				return fmt.Errorf("tier %s reorders section %s relative to %s", Tiers[i], kind, Tiers[i-1])
			}
			last = idx
		}
	}
	for _, info := range table {
		for _, kind := range info.Sections {
			if _, ok := titles[kind]; !ok {
				return fmt.Errorf("section %s has no title", kind)
			}
		}
	}
	return nil
}

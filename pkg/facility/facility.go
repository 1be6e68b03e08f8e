// Package facility loads and validates facility profiles.
package facility

import (
	"fmt"
	"os"

	"github.com/levenlabs/go-lflag"
	"github.com/powerroof/powerroof/pkg/types"
	"gopkg.in/yaml.v3"
)

// Demo returns the reference prospect used when no facility file is given.
func Demo() types.FacilityProfile {
	lat, lng := 3.0658, 101.5183
	return types.FacilityProfile{
		CompanyName:   "Mega Plastics Industries Sdn Bhd",
		Location:      "Shah Alam, Selangor",
		Zone:          "Shah Alam, Selangor (Seksyen 26)",
		Sector:        "Plastics Manufacturing",
		TariffType:    "Non-domestic (C1/C2 tariff)",
		DecisionMaker: "En. Ahmad Razak, Director",
		Latitude:      &lat,
		Longitude:     &lng,
		Pattern:       types.OperatingPatternDay,

		MaximumDemandKW:  350,
		CandidateSizeKWp: 280,
		SelfConsumption:  0.80,
		RoofAreaSqft:     16800,

		BlendedTariff: 0.334,
		PeakTariff:    0.365,

		CapexPerKWpLow:  1800,
		CapexPerKWpHigh: 2200,
		CapexMid:        570000,

		SingleTenant:  true,
		OwnerOccupied: true,

		FitScore: []types.FitComponent{
			{Name: "ATAP Regulatory Compliance", Score: 27, Max: 30},
			{Name: "Operational Suitability", Score: 17, Max: 20},
			{Name: "Asset Control (Ownership)", Score: 20, Max: 20},
			{Name: "Decision-Maker Access", Score: 13, Max: 15},
			{Name: "Trigger Signals", Score: 7, Max: 15},
		},
	}
}

// Load reads a facility profile from a YAML file. Omitted keys are zero;
// an omitted self-consumption fraction or operating pattern is defaulted.
func Load(path string) (types.FacilityProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.FacilityProfile{}, fmt.Errorf("failed to read facility file: %w", err)
	}
	var p types.FacilityProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return types.FacilityProfile{}, fmt.Errorf("failed to parse facility file: %w", err)
	}
	applyDefaults(&p)
	if err := Validate(p); err != nil {
		return types.FacilityProfile{}, err
	}
	return p, nil
}

func applyDefaults(p *types.FacilityProfile) {
	if p.SelfConsumption == 0 {
		p.SelfConsumption = 0.80
	}
	if p.Pattern == "" {
		p.Pattern = types.OperatingPatternDay
	}
}

// Validate rejects profiles that the modeling engine cannot work with.
// Maximum demand is checked by the sizing evaluator itself.
func Validate(p types.FacilityProfile) error {
	switch {
	case p.CompanyName == "":
		return &types.InvalidProfileError{Field: "company_name", Reason: "is required"}
	case p.SelfConsumption < 0 || p.SelfConsumption > 1:
		return &types.InvalidProfileError{Field: "self_consumption", Reason: "must be between 0 and 1"}
	case p.BlendedTariff <= 0:
		return &types.InvalidProfileError{Field: "blended_tariff", Reason: "must be positive"}
	case p.PeakTariff < 0:
		return &types.InvalidProfileError{Field: "peak_tariff", Reason: "must not be negative"}
	case p.CapexPerKWpLow <= 0 || p.CapexPerKWpHigh < p.CapexPerKWpLow:
		return &types.InvalidProfileError{Field: "capex_per_kwp", Reason: "must satisfy 0 < low <= high"}
	case p.CandidateSizeKWp < 0 || p.AnnualGenerationKWh < 0 || p.RoofAreaSqft < 0:
		return &types.InvalidProfileError{Field: "size", Reason: "must not be negative"}
	case (p.Latitude == nil) != (p.Longitude == nil):
		return &types.InvalidProfileError{Field: "coordinates", Reason: "latitude and longitude must be given together"}
	}
	switch p.Pattern {
	case types.OperatingPatternDay, types.OperatingPatternExtended, types.OperatingPatternNight:
	default:
		return &types.InvalidProfileError{Field: "operating_pattern", Reason: fmt.Sprintf("unknown pattern %q", p.Pattern)}
	}
	return nil
}

// Configured registers the facility-file flag and returns the resolved
// profile, falling back to the demo facility.
func Configured() *types.FacilityProfile {
	path := lflag.String("facility-file", "", "YAML facility profile (defaults to the demo facility)")

	p := Demo()

	lflag.Do(func() {
		if *path == "" {
			return
		}
		loaded, err := Load(*path)
		if err != nil {
			panic(fmt.Sprintf("facility load failed: %v", err))
		}
		p = loaded
	})

	return &p
}

// Package policy holds the regulatory and modeling constants that the
// feasibility engine applies. Values default to the current ATAP rules and
// can be overridden from a YAML file.
package policy

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"
)

// FeeBand is one row of the connection assessment (CAS) fee schedule. A
// system of size s falls into the band when AboveKW < s <= UpToKW.
type FeeBand struct {
	AboveKW float64 `yaml:"above_kw" json:"aboveKW"`
	UpToKW  float64 `yaml:"up_to_kw" json:"upToKW"`
	Fee     float64 `yaml:"fee" json:"fee"`
	Label   string  `yaml:"label" json:"label"`
}

// ForfeitureEvent is a recurring period when the facility load drops and
// generation is exported instead of self-consumed.
type ForfeitureEvent struct {
	Name        string  `yaml:"name" json:"name"`
	Probability string  `yaml:"probability" json:"probability"`
	DaysLow     float64 `yaml:"days_low" json:"daysLow"`
	DaysHigh    float64 `yaml:"days_high" json:"daysHigh"`
	Mitigation  string  `yaml:"mitigation" json:"mitigation"`
}

// Policy is the full set of regulatory and modeling constants.
type Policy struct {
	CapacityCeilingKW float64 `yaml:"capacity_ceiling_kw" json:"capacityCeilingKW"`
	BandLow           float64 `yaml:"band_low" json:"bandLow"`
	BandHigh          float64 `yaml:"band_high" json:"bandHigh"`
	// RecommendedFraction of the capacity cap is used when a facility has no
	// configured candidate size.
	RecommendedFraction float64 `yaml:"recommended_fraction" json:"recommendedFraction"`
	SpecificYield       float64 `yaml:"specific_yield" json:"specificYield"`
	RoofSqftPerKWp      float64 `yaml:"roof_sqft_per_kwp" json:"roofSqftPerKWp"`

	FeeSchedule         []FeeBand `yaml:"fee_schedule" json:"feeSchedule"`
	HighVoltageFee      float64   `yaml:"high_voltage_fee" json:"highVoltageFee"`
	HighVoltageFeeLabel string    `yaml:"high_voltage_fee_label" json:"highVoltageFeeLabel"`
	StructuralLow       float64   `yaml:"structural_low" json:"structuralLow"`
	StructuralHigh      float64   `yaml:"structural_high" json:"structuralHigh"`

	ExcludedSectors []string `yaml:"excluded_sectors" json:"excludedSectors"`

	DegradationRate float64 `yaml:"degradation_rate" json:"degradationRate"`
	HorizonYears    int     `yaml:"horizon_years" json:"horizonYears"`
	ScenarioSpread  float64 `yaml:"scenario_spread" json:"scenarioSpread"`

	SensitivityOffsets         []float64 `yaml:"sensitivity_offsets" json:"sensitivityOffsets"`
	RobustPaybackSpreadYears   float64   `yaml:"robust_payback_spread_years" json:"robustPaybackSpreadYears"`
	ModeratePaybackSpreadYears float64   `yaml:"moderate_payback_spread_years" json:"moderatePaybackSpreadYears"`
	ViablePaybackYears         float64   `yaml:"viable_payback_years" json:"viablePaybackYears"`
	MarginalPaybackYears       float64   `yaml:"marginal_payback_years" json:"marginalPaybackYears"`

	EmissionFactorKgPerKWh float64 `yaml:"emission_factor_kg_per_kwh" json:"emissionFactorKgPerKWh"`
	CarTonnesPerYear       float64 `yaml:"car_tonnes_per_year" json:"carTonnesPerYear"`
	TreeTonnesPerYear      float64 `yaml:"tree_tonnes_per_year" json:"treeTonnesPerYear"`

	PanelWatts      float64 `yaml:"panel_watts" json:"panelWatts"`
	FootprintFactor float64 `yaml:"footprint_factor" json:"footprintFactor"`

	ForfeitureEvents []ForfeitureEvent `yaml:"forfeiture_events" json:"forfeitureEvents"`
}

// Default returns the policy currently in force.
func Default() Policy {
	return Policy{
		CapacityCeilingKW:   1000,
		BandLow:             0.75,
		BandHigh:            0.85,
		RecommendedFraction: 0.80,
		SpecificYield:       1300,
		RoofSqftPerKWp:      60,

		FeeSchedule: []FeeBand{
			{AboveKW: 0, UpToKW: 72, Fee: 0, Label: "Up to 72 kW"},
			{AboveKW: 72, UpToKW: 180, Fee: 1000, Label: ">72 kW to 180 kW"},
			{AboveKW: 180, UpToKW: 425, Fee: 5000, Label: ">180 kW to 425 kW"},
			{AboveKW: 425, UpToKW: 1000, Fee: 8000, Label: ">425 kW to 1 MW"},
		},
		HighVoltageFee:      15000,
		HighVoltageFeeLabel: "HV / PSS connection",
		StructuralLow:       3000,
		StructuralHigh:      8000,

		DegradationRate: 0.005,
		HorizonYears:    25,
		ScenarioSpread:  0.10,

		SensitivityOffsets:         []float64{-0.05, 0, 0.05, 0.10},
		RobustPaybackSpreadYears:   0.5,
		ModeratePaybackSpreadYears: 1.5,
		ViablePaybackYears:         7,
		MarginalPaybackYears:       10,

		EmissionFactorKgPerKWh: 0.7,
		CarTonnesPerYear:       4.6,
		TreeTonnesPerYear:      0.0637,

		PanelWatts:      550,
		FootprintFactor: 1.1,

		ForfeitureEvents: []ForfeitureEvent{
			{Name: "Hari Raya shutdown", Probability: "High", DaysLow: 7, DaysHigh: 14, Mitigation: "Factor into annual model"},
			{Name: "CNY factory closure", Probability: "Medium", DaysLow: 3, DaysHigh: 5, Mitigation: "Short closure, minimal impact"},
			{Name: "Weekend generation excess", Probability: "Low", Mitigation: "Sizing accounts for a 5-day week"},
			{Name: "Unplanned downtime", Probability: "Low", Mitigation: "Buffer built into sizing band"},
		},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values; lists present in the file replace the defaults.
func Load(path string) (Policy, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks the internal consistency of the policy.
func (p Policy) Validate() error {
	var errs []error
	if p.CapacityCeilingKW <= 0 {
		errs = append(errs, errors.New("capacity_ceiling_kw must be positive"))
	}
	if p.BandLow <= 0 || p.BandHigh > 1 || p.BandLow > p.BandHigh {
		errs = append(errs, fmt.Errorf("sizing band [%v, %v] must satisfy 0 < low <= high <= 1", p.BandLow, p.BandHigh))
	}
	if p.RecommendedFraction < p.BandLow || p.RecommendedFraction > p.BandHigh {
		errs = append(errs, fmt.Errorf("recommended_fraction %v outside sizing band", p.RecommendedFraction))
	}
	if p.SpecificYield <= 0 {
		errs = append(errs, errors.New("specific_yield must be positive"))
	}
	if p.StructuralLow > p.StructuralHigh {
		errs = append(errs, errors.New("structural_low must not exceed structural_high"))
	}
	if p.DegradationRate < 0 || p.DegradationRate >= 1 {
		errs = append(errs, errors.New("degradation_rate must be in [0, 1)"))
	}
	if p.HorizonYears <= 0 {
		errs = append(errs, errors.New("horizon_years must be positive"))
	}
	if p.RobustPaybackSpreadYears <= 0 || p.ModeratePaybackSpreadYears < p.RobustPaybackSpreadYears {
		errs = append(errs, errors.New("payback spread thresholds must be positive and ascending"))
	}
	if !slices.Contains(p.SensitivityOffsets, 0) {
		errs = append(errs, errors.New("sensitivity_offsets must include 0"))
	}
	for i := 1; i < len(p.FeeSchedule); i++ {
		if p.FeeSchedule[i].AboveKW < p.FeeSchedule[i-1].UpToKW {
			errs = append(errs, fmt.Errorf("fee_schedule band %d overlaps the previous band", i))
		}
	}
	return errors.Join(errs...)
}

// Fee returns the connection assessment fee for a system of sizeKW.
func (p Policy) Fee(sizeKW float64, highVoltage bool) (string, float64) {
	if highVoltage {
		return p.HighVoltageFeeLabel, p.HighVoltageFee
	}
	for _, b := range p.FeeSchedule {
		if sizeKW > b.AboveKW && sizeKW <= b.UpToKW {
			return b.Label, b.Fee
		}
	}
	// above the last band only happens with a ceiling past the schedule
	if n := len(p.FeeSchedule); n > 0 && sizeKW > p.FeeSchedule[n-1].UpToKW {
		return p.HighVoltageFeeLabel, p.HighVoltageFee
	}
	return "", 0
}

// ExcludesSector reports whether sector is on the exclusion list.
func (p Policy) ExcludesSector(sector string) bool {
	sector = strings.TrimSpace(sector)
	for _, s := range p.ExcludedSectors {
		if strings.EqualFold(s, sector) {
			return true
		}
	}
	return false
}

// Configured registers the policy-file flag and returns the resolved policy.
func Configured() *Policy {
	path := lflag.String("policy-file", "", "YAML file overriding the default regulatory policy")

	p := Default()

	lflag.Do(func() {
		if *path == "" {
			return
		}
		loaded, err := Load(*path)
		if err != nil {
			panic(fmt.Sprintf("policy load failed: %v", err))
		}
		p = loaded
	})

	return &p
}

package types

// CapexEstimate is the installed cost band in RM.
type CapexEstimate struct {
	PVLow          float64 `json:"pvLow"`
	PVHigh         float64 `json:"pvHigh"`
	FeeLabel       string  `json:"feeLabel"`
	Fee            float64 `json:"fee"`
	StructuralLow  float64 `json:"structuralLow"`
	StructuralHigh float64 `json:"structuralHigh"`
	Low            float64 `json:"low"`
	Mid            float64 `json:"mid"`
	High           float64 `json:"high"`
}

// SavingsScenario is one self-consumption assumption and its year-1 result.
type SavingsScenario struct {
	Name              string  `json:"name"`
	SelfConsumption   float64 `json:"selfConsumption"`
	SelfConsumedKWh   float64 `json:"selfConsumedKWh"`
	ExportedKWh       float64 `json:"exportedKWh"`
	SelfConsumedValue float64 `json:"selfConsumedValue"`
	ExportValue       float64 `json:"exportValue"`
	AnnualSavings     float64 `json:"annualSavings"`
	// PaybackYears is nil when the scenario never pays back.
	PaybackYears *float64 `json:"paybackYears"`
}

// CashflowPoint is one year of the cumulative cashflow series. Year 0 is the
// installation year and carries only the negative CAPEX.
type CashflowPoint struct {
	Year          int     `json:"year"`
	AnnualSavings float64 `json:"annualSavings"`
	Cumulative    float64 `json:"cumulative"`
}

// FinancialProjection is the full financial model for one facility.
type FinancialProjection struct {
	Capex     CapexEstimate     `json:"capex"`
	Scenarios []SavingsScenario `json:"scenarios"`
	// Base indexes the base-case scenario in Scenarios.
	Base int `json:"base"`

	DegradationRate float64         `json:"degradationRate"`
	Cashflow        []CashflowPoint `json:"cashflow"`
	BreakevenYear   *float64        `json:"breakevenYear"`

	PaybackLowYears  *float64 `json:"paybackLowYears"`
	PaybackHighYears *float64 `json:"paybackHighYears"`

	LifetimeSavings float64 `json:"lifetimeSavings"`
	NetBenefit      float64 `json:"netBenefit"`
}

// BaseScenario returns the base-case scenario.
func (f FinancialProjection) BaseScenario() SavingsScenario {
	if f.Base < 0 || f.Base >= len(f.Scenarios) {
		return SavingsScenario{}
	}
	return f.Scenarios[f.Base]
}

// SensitivityVerdict classifies how exposed the payback is to wholesale price
// movement.
type SensitivityVerdict string

const (
	VerdictRobust   SensitivityVerdict = "robust"
	VerdictModerate SensitivityVerdict = "moderate"
	VerdictExposed  SensitivityVerdict = "exposed"
)

// SensitivityPoint is the base-case economics evaluated at one wholesale
// price.
type SensitivityPoint struct {
	Price          float64  `json:"price"`
	ExportRevenue  float64  `json:"exportRevenue"`
	AnnualSavings  float64  `json:"annualSavings"`
	PaybackYears   *float64 `json:"paybackYears"`
	DeltaVsAverage float64  `json:"deltaVsAverage"`
	IsAverage      bool     `json:"isAverage,omitempty"`
}

// SensitivityEnvelope is the wholesale price sensitivity of the base case.
type SensitivityEnvelope struct {
	Points      []SensitivityPoint `json:"points"`
	ExportedKWh float64            `json:"exportedKWh"`

	Swing        float64 `json:"swing"`
	SwingPercent float64 `json:"swingPercent"`

	PaybackMinYears    *float64           `json:"paybackMinYears"`
	PaybackMaxYears    *float64           `json:"paybackMaxYears"`
	// PaybackSpreadYears is nil when either end of the band never pays back.
	PaybackSpreadYears *float64           `json:"paybackSpreadYears"`
	ThresholdYears     float64            `json:"thresholdYears"`
	Verdict            SensitivityVerdict `json:"verdict"`
}

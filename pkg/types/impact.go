package types

// CarbonImpact is the avoided grid emissions of the recommended system.
type CarbonImpact struct {
	EmissionFactor  float64 `json:"emissionFactor"`
	AnnualTonnes    float64 `json:"annualTonnes"`
	LifetimeTonnes  float64 `json:"lifetimeTonnes"`
	CarsEquivalent  float64 `json:"carsEquivalent"`
	TreesEquivalent float64 `json:"treesEquivalent"`
}

// ForfeitureRisk is one source of generation exported at the wholesale price
// instead of being self-consumed, typically a shutdown period.
type ForfeitureRisk struct {
	Name        string  `json:"name"`
	Probability string  `json:"probability"`
	DaysLow     float64 `json:"daysLow"`
	DaysHigh    float64 `json:"daysHigh"`
	CostLow     float64 `json:"costLow"`
	CostHigh    float64 `json:"costHigh"`
	Mitigation  string  `json:"mitigation"`
}

// ForfeitureAssessment totals the monthly forfeiture risks.
type ForfeitureAssessment struct {
	Risks          []ForfeitureRisk `json:"risks"`
	DailyKWh       float64          `json:"dailyKWh"`
	Spread         float64          `json:"spread"`
	TotalLow       float64          `json:"totalLow"`
	TotalHigh      float64          `json:"totalHigh"`
	PercentOfGross [2]float64       `json:"percentOfGross"`
}

// HourlyLoad is one hour of the typical-day profile in kW.
type HourlyLoad struct {
	Hour    int     `json:"hour"`
	LoadKW  float64 `json:"loadKW"`
	SolarKW float64 `json:"solarKW"`
}

// LoadProfile compares a typical facility load against solar output.
type LoadProfile struct {
	Hours          []HourlyLoad `json:"hours"`
	PeakSolarKW    float64      `json:"peakSolarKW"`
	OverlapPercent float64      `json:"overlapPercent"`
}

// PanelLayout is the indicative panel arrangement for the roof.
type PanelLayout struct {
	PanelWatts     float64 `json:"panelWatts"`
	PanelCount     int     `json:"panelCount"`
	UsableRoofSqft float64 `json:"usableRoofSqft"`
	FootprintSqft  float64 `json:"footprintSqft"`
}

// FitScore is the aggregate solar fit score out of 100.
type FitScore struct {
	Components []FitComponent `json:"components"`
	Total      float64        `json:"total"`
	Grade      string         `json:"grade"`
}

// ImpactSummary groups the supporting facts derived from a sizing result.
type ImpactSummary struct {
	Carbon     CarbonImpact         `json:"carbon"`
	Forfeiture ForfeitureAssessment `json:"forfeiture"`
	Load       LoadProfile          `json:"load"`
	Layout     PanelLayout          `json:"layout"`
	Fit        FitScore             `json:"fit"`
}

package types

// OperatingPattern describes when a facility draws most of its load.
type OperatingPattern string

const (
	OperatingPatternDay      OperatingPattern = "day"
	OperatingPatternExtended OperatingPattern = "extended"
	OperatingPatternNight    OperatingPattern = "night"
)

// FacilityProfile is everything known about a single commercial or
// industrial site. It is passed explicitly through every modeling step.
type FacilityProfile struct {
	CompanyName   string           `json:"companyName" yaml:"company_name"`
	Location      string           `json:"location" yaml:"location"`
	Zone          string           `json:"zone" yaml:"zone"`
	Sector        string           `json:"sector" yaml:"sector"`
	TariffType    string           `json:"tariffType" yaml:"tariff_type"`
	DecisionMaker string           `json:"decisionMaker,omitempty" yaml:"decision_maker"`
	Latitude      *float64         `json:"latitude,omitempty" yaml:"latitude"`
	Longitude     *float64         `json:"longitude,omitempty" yaml:"longitude"`
	Pattern       OperatingPattern `json:"operatingPattern" yaml:"operating_pattern"`

	MaximumDemandKW float64 `json:"maximumDemandKW" yaml:"maximum_demand_kw"`
	// CandidateSizeKWp is the configured recommended system size. Zero means
	// the policy's recommended fraction of the capacity cap is used.
	CandidateSizeKWp float64 `json:"candidateSizeKWp,omitempty" yaml:"candidate_size_kwp"`
	// AnnualGenerationKWh overrides size × specific yield when set.
	AnnualGenerationKWh float64 `json:"annualGenerationKWh,omitempty" yaml:"annual_generation_kwh"`
	SelfConsumption     float64 `json:"selfConsumption" yaml:"self_consumption"`
	RoofAreaSqft        float64 `json:"roofAreaSqft,omitempty" yaml:"roof_area_sqft"`
	// EmissionFactorKgPerKWh overrides the policy grid emission factor.
	EmissionFactorKgPerKWh float64 `json:"emissionFactorKgPerKWh,omitempty" yaml:"emission_factor_kg_per_kwh"`

	BlendedTariff float64 `json:"blendedTariff" yaml:"blended_tariff"`
	// PeakTariff is the marginal tariff displaced by extra generation. It
	// defaults to BlendedTariff.
	PeakTariff float64 `json:"peakTariff,omitempty" yaml:"peak_tariff"`

	CapexPerKWpLow  float64 `json:"capexPerKWpLow" yaml:"capex_per_kwp_low"`
	CapexPerKWpHigh float64 `json:"capexPerKWpHigh" yaml:"capex_per_kwp_high"`
	// CapexMid is an explicit midpoint; zero means the mean of low and high.
	CapexMid float64 `json:"capexMid,omitempty" yaml:"capex_mid"`

	SingleTenant    bool `json:"singleTenant" yaml:"single_tenant"`
	OwnerOccupied   bool `json:"ownerOccupied" yaml:"owner_occupied"`
	LandlordConsent bool `json:"landlordConsent" yaml:"landlord_consent"`
	HighVoltage     bool `json:"highVoltage" yaml:"high_voltage"`

	FitScore []FitComponent `json:"fitScore,omitempty" yaml:"fit_score"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (p FacilityProfile) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// MarginalTariff returns the peak tariff, or the blended tariff when no
// peak tariff is configured.
func (p FacilityProfile) MarginalTariff() float64 {
	if p.PeakTariff > 0 {
		return p.PeakTariff
	}
	return p.BlendedTariff
}

// FitComponent is one factor of the solar fit score. Its weight in the total
// is Max relative to the sum of all maxima.
type FitComponent struct {
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
	Max   float64 `json:"max" yaml:"max"`
}

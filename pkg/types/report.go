package types

import "time"

// Tier is the depth of a generated report.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// SectionKind identifies one section of a report.
type SectionKind string

const (
	SectionCover                   SectionKind = "cover"
	SectionExecutiveSnapshot       SectionKind = "executive_snapshot"
	SectionMethodology             SectionKind = "methodology"
	SectionFacilityIntelligence    SectionKind = "facility_intelligence"
	SectionRoofIntelligence        SectionKind = "roof_intelligence"
	SectionLayoutConcept           SectionKind = "layout_concept"
	SectionEligibility             SectionKind = "eligibility"
	SectionSizing                  SectionKind = "sizing"
	SectionEnergyFlow              SectionKind = "energy_flow"
	SectionLoadProfile             SectionKind = "load_profile"
	SectionFinancial               SectionKind = "financial"
	SectionCashflow                SectionKind = "cashflow"
	SectionPriceSensitivity        SectionKind = "price_sensitivity"
	SectionForfeiture              SectionKind = "forfeiture"
	SectionCarbonESG               SectionKind = "carbon_esg"
	SectionRoadmap                 SectionKind = "roadmap"
	SectionStrategicRecommendation SectionKind = "strategic_recommendation"
	SectionDisclaimer              SectionKind = "disclaimer"
)

// ImageryMode says how a section renders site imagery.
type ImageryMode string

const (
	ImageryNone        ImageryMode = "none"
	ImageryPlaceholder ImageryMode = "placeholder"
	ImageryReal        ImageryMode = "real"
)

// Section is one entry of a composed report, in render order.
type Section struct {
	Kind    SectionKind `json:"kind"`
	Title   string      `json:"title"`
	Imagery ImageryMode `json:"imagery"`
	// Condensed marks sections rendered in their short form.
	Condensed bool `json:"condensed,omitempty"`
}

// Light is a traffic-light rating used in the executive snapshot.
type Light string

const (
	LightGreen Light = "green"
	LightAmber Light = "amber"
	LightRed   Light = "red"
)

// Indicator is one labelled traffic light.
type Indicator struct {
	Label string `json:"label"`
	Light Light  `json:"light"`
}

// Snapshot holds the headline figures shown on the executive snapshot.
type Snapshot struct {
	RecommendedKWp     float64     `json:"recommendedKWp"`
	SavingsLow         float64     `json:"savingsLow"`
	SavingsHigh        float64     `json:"savingsHigh"`
	PaybackLowYears    *float64    `json:"paybackLowYears"`
	PaybackHighYears   *float64    `json:"paybackHighYears"`
	ExportExposure     float64     `json:"exportExposure"`
	ForfeitureLow      float64     `json:"forfeitureLow"`
	ForfeitureHigh     float64     `json:"forfeitureHigh"`
	Eligible           bool        `json:"eligible"`
	Indicators         []Indicator `json:"indicators"`
	ShowIndicators     bool        `json:"showIndicators"`
	CallToActionUpsell bool        `json:"callToActionUpsell"`
}

// Branding controls the white-label presentation of a report.
type Branding struct {
	Name   string `json:"name"`
	Footer string `json:"footer"`
	Label  string `json:"label,omitempty"`
}

// Dossier is a fully modeled report ready to be handed to a renderer.
type Dossier struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`
	Tier        Tier      `json:"tier"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Tagline     string    `json:"tagline"`
	Audience    string    `json:"audience"`
	Branding    Branding  `json:"branding"`

	Facility    FacilityProfile      `json:"facility"`
	Statistics  PriceStatistics      `json:"statistics"`
	Sizing      SizingRecommendation `json:"sizing"`
	Financial   FinancialProjection  `json:"financial"`
	Sensitivity SensitivityEnvelope  `json:"sensitivity"`
	Impact      ImpactSummary        `json:"impact"`
	Snapshot    Snapshot             `json:"snapshot"`

	Sections []Section `json:"sections"`
	// HasImagery is true when real satellite imagery was obtained.
	HasImagery bool `json:"hasImagery"`
}

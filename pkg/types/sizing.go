package types

// CriterionStatus is the outcome of a single eligibility check.
type CriterionStatus string

const (
	CriterionPass CriterionStatus = "PASS"
	CriterionFail CriterionStatus = "FAIL"
	CriterionNote CriterionStatus = "NOTE"
)

// EligibilityCriterion is one row of the eligibility checklist.
type EligibilityCriterion struct {
	Name   string          `json:"name"`
	Status CriterionStatus `json:"status"`
	Detail string          `json:"detail"`
}

// OversizingScenario compares the recommended size against building to the
// regulatory cap.
type OversizingScenario struct {
	SizeKWp              float64 `json:"sizeKWp"`
	GenerationKWh        float64 `json:"generationKWh"`
	IncrementalExportKWh float64 `json:"incrementalExportKWh"`
	MarginalTariff       float64 `json:"marginalTariff"`
	WholesalePrice       float64 `json:"wholesalePrice"`
	AnnualValueLoss      float64 `json:"annualValueLoss"`
}

// SizingRecommendation is the output of eligibility evaluation and sizing.
// When Eligible is false only Criteria is populated.
type SizingRecommendation struct {
	Criteria []EligibilityCriterion `json:"criteria"`
	Eligible bool                   `json:"eligible"`

	CapacityCapKW       float64            `json:"capacityCapKW"`
	OptimalLowKWp       float64            `json:"optimalLowKWp"`
	OptimalHighKWp      float64            `json:"optimalHighKWp"`
	RecommendedKWp      float64            `json:"recommendedKWp"`
	SpecificYield       float64            `json:"specificYield"`
	AnnualGenerationKWh float64            `json:"annualGenerationKWh"`
	RoofAreaSqft        float64            `json:"roofAreaSqft"`
	Oversizing          OversizingScenario `json:"oversizing"`
}

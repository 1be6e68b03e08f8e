package types

import (
	"fmt"
	"strings"
	"time"
)

const (
	CurrentPriceObservationVersion = 1

	// MinWholesalePrice and MaxWholesalePrice bound an accepted monthly
	// wholesale price in RM/kWh, inclusive.
	MinWholesalePrice = 0.05
	MaxWholesalePrice = 0.80

	// MonthLayout is the reference layout for a month token.
	MonthLayout = "2006-01"
)

// PriceSource records whether a monthly price was published by the single
// buyer or estimated by an operator.
type PriceSource string

const (
	PriceSourcePublished PriceSource = "published"
	PriceSourceEstimated PriceSource = "estimated"
)

// ParsePriceSource converts user input into a PriceSource. The legacy
// "singlebuyer" label is accepted as published.
func ParsePriceSource(s string) (PriceSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PriceSourcePublished), "singlebuyer", "single_buyer":
		return PriceSourcePublished, nil
	case string(PriceSourceEstimated), "":
		return PriceSourceEstimated, nil
	default:
		return "", &ValidationError{Field: "source", Value: s, Reason: "must be published or estimated"}
	}
}

// PriceObservation is one month of the wholesale (SMP) price log.
type PriceObservation struct {
	Month     string      `json:"month"`
	Price     float64     `json:"price"`
	Source    PriceSource `json:"source"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt,omitzero"`
}

// Validate checks the month token and the price band.
func (o PriceObservation) Validate() error {
	if err := ValidateMonth(o.Month); err != nil {
		return err
	}
	if !(o.Price >= MinWholesalePrice && o.Price <= MaxWholesalePrice) {
		return &ValidationError{
			Field:  "price",
			Value:  fmt.Sprintf("%.4f", o.Price),
			Reason: fmt.Sprintf("must be between %.2f and %.2f RM/kWh", MinWholesalePrice, MaxWholesalePrice),
		}
	}
	switch o.Source {
	case PriceSourcePublished, PriceSourceEstimated:
	default:
		return &ValidationError{Field: "source", Value: string(o.Source), Reason: "must be published or estimated"}
	}
	return nil
}

// ValidateMonth returns a ValidationError unless month is a YYYY-MM token.
func ValidateMonth(month string) error {
	if len(month) != len(MonthLayout) {
		return &ValidationError{Field: "month", Value: month, Reason: "must be formatted as YYYY-MM"}
	}
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return &ValidationError{Field: "month", Value: month, Reason: "must be formatted as YYYY-MM"}
	}
	return nil
}

// PriceStatistics summarizes a recent window of the price log.
type PriceStatistics struct {
	Average      float64            `json:"average"`
	Min          float64            `json:"min"`
	Max          float64            `json:"max"`
	Latest       float64            `json:"latest"`
	LatestMonth  string             `json:"latestMonth"`
	WindowSize   int                `json:"windowSize"`
	AllEstimated bool               `json:"allEstimated"`
	Fallback     bool               `json:"fallback,omitempty"`
	Observations []PriceObservation `json:"observations,omitempty"`
}

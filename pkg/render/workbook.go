package render

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/powerroof/powerroof/pkg/metrics"
	"github.com/powerroof/powerroof/pkg/types"
)

// Sheet names of the workbook, in tab order.
const (
	SheetSummary     = "Summary"
	SheetEligibility = "Eligibility"
	SheetScenarios   = "Scenarios"
	SheetCashflow    = "Cashflow"
	SheetSensitivity = "Sensitivity"
	SheetPrices      = "Price History"
)

type sheet struct {
	f    *excelize.File
	name string
	row  int
	bold int
	err  error
}

func (s *sheet) append(header bool, values ...any) {
	if s.err != nil {
		return
	}
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetSheetRow(s.name, cell, &values); err != nil {
		s.err = fmt.Errorf("failed to write %s row %d: %w", s.name, s.row, err)
		return
	}
	if header && s.bold != 0 {
		last, _ := excelize.CoordinatesToCellName(len(values), s.row)
		s.err = s.f.SetCellStyle(s.name, cell, last, s.bold)
	}
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// Workbook renders the dossier's figures as an XLSX workbook with one sheet
// per table so the numbers can be reworked by hand.
func Workbook(d types.Dossier) ([]byte, error) {
	b, err := workbook(d)
	metrics.ObserveRender("xlsx", err)
	return b, err
}

func workbook(d types.Dossier) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	sheets := map[string]*sheet{}
	for _, name := range []string{SheetSummary, SheetEligibility, SheetScenarios, SheetCashflow, SheetSensitivity, SheetPrices} {
		if name != SheetSummary {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
			}
		}
		sheets[name] = &sheet{f: f, name: name, bold: bold}
	}

	summary := sheets[SheetSummary]
	summary.append(true, d.Title+" "+d.Subtitle, d.Facility.CompanyName)
	summary.append(false, "Report ID", d.ID)
	summary.append(false, "Generated", d.GeneratedAt.Format("2006-01-02 15:04"))
	summary.append(false, "Tier", string(d.Tier))
	summary.append(false, "Zone", d.Facility.Zone)
	summary.append(false, "Maximum Demand (kW)", d.Facility.MaximumDemandKW)
	summary.append(false, "Eligible", d.Sizing.Eligible)
	summary.append(false, "Average SMP (RM/kWh)", d.Statistics.Average)
	summary.append(false, "SMP Window (months)", d.Statistics.WindowSize)
	summary.append(false, "SMP Fallback", d.Statistics.Fallback)
	if d.Sizing.Eligible {
		base := d.Financial.BaseScenario()
		summary.append(false, "Capacity Cap (kW)", d.Sizing.CapacityCapKW)
		summary.append(false, "Recommended Size (kWp)", d.Sizing.RecommendedKWp)
		summary.append(false, "Annual Generation (kWh)", d.Sizing.AnnualGenerationKWh)
		summary.append(false, "CAPEX Low (RM)", d.Financial.Capex.Low)
		summary.append(false, "CAPEX Mid (RM)", d.Financial.Capex.Mid)
		summary.append(false, "CAPEX High (RM)", d.Financial.Capex.High)
		summary.append(false, "Base Annual Savings (RM)", base.AnnualSavings)
		summary.append(false, "Breakeven Year", optional(d.Financial.BreakevenYear))
		summary.append(false, "Lifetime Savings (RM)", d.Financial.LifetimeSavings)
		summary.append(false, "Net Benefit (RM)", d.Financial.NetBenefit)
		summary.append(false, "SMP Sensitivity", string(d.Sensitivity.Verdict))
		summary.append(false, "Annual CO2 Avoided (t)", d.Impact.Carbon.AnnualTonnes)
	}

	elig := sheets[SheetEligibility]
	elig.append(true, "Criterion", "Status", "Detail")
	for _, c := range d.Sizing.Criteria {
		elig.append(false, c.Name, string(c.Status), c.Detail)
	}

	scen := sheets[SheetScenarios]
	scen.append(true, "Scenario", "Self-Consumption", "Self-Consumed (kWh)", "Exported (kWh)",
		"Self-Consumed Value (RM)", "Export Value (RM)", "Annual Savings (RM)", "Payback (yrs)")
	for _, s := range d.Financial.Scenarios {
		scen.append(false, s.Name, s.SelfConsumption, s.SelfConsumedKWh, s.ExportedKWh,
			s.SelfConsumedValue, s.ExportValue, s.AnnualSavings, optional(s.PaybackYears))
	}

	cash := sheets[SheetCashflow]
	cash.append(true, "Year", "Annual Savings (RM)", "Cumulative (RM)")
	for _, p := range d.Financial.Cashflow {
		cash.append(false, p.Year, p.AnnualSavings, p.Cumulative)
	}

	sens := sheets[SheetSensitivity]
	sens.append(true, "SMP (RM/kWh)", "Export Revenue (RM)", "Annual Savings (RM)", "Payback (yrs)", "Delta vs Average (RM)", "Average")
	for _, p := range d.Sensitivity.Points {
		sens.append(false, p.Price, p.ExportRevenue, p.AnnualSavings, optional(p.PaybackYears), p.DeltaVsAverage, p.IsAverage)
	}

	prices := sheets[SheetPrices]
	prices.append(true, "Month", "SMP (RM/kWh)", "Source")
	for _, o := range d.Statistics.Observations {
		prices.append(false, o.Month, o.Price, string(o.Source))
	}

	for _, s := range sheets {
		if s.err != nil {
			return nil, s.err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Package render turns an assembled dossier into documents: a paginated PDF,
// an XLSX workbook and a Markdown summary. Section content is built once as
// format-neutral blocks and drawn by each backend.
package render

import (
	"fmt"
	"strconv"

	"github.com/powerroof/powerroof/pkg/types"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockCallout
	blockTable
	blockBullets
	blockImage
	blockChart
	blockLights
	blockSmall
)

type tone int

const (
	toneInfo tone = iota
	toneGood
	toneWarn
	toneBad
)

type imageRole int

const (
	imageSatellite imageRole = iota
	imageOverlay
)

type series struct {
	name   string
	values []float64
	color  rgb
}

type chart struct {
	labels []string
	series []series
	unit   string
}

type block struct {
	kind   blockKind
	text   string
	tone   tone
	header []string
	rows   [][]string
	// widths are relative column weights
	widths []float64
	items  []string

	image       imageRole
	placeholder bool
	caption     string

	chart  *chart
	lights []types.Indicator
}

func para(s string) block {
	return block{kind: blockParagraph, text: s}
}

func small(s string) block {
	return block{kind: blockSmall, text: s}
}

func heading(s string) block {
	return block{kind: blockHeading, text: s}
}

func callout(t tone, s string) block {
	return block{kind: blockCallout, tone: t, text: s}
}

func table(header []string, widths []float64, rows ...[]string) block {
	return block{kind: blockTable, header: header, widths: widths, rows: rows}
}

const disclaimerText = "DISCLAIMER: This report is based on estimated data and publicly available benchmarks. " +
	"Actual system sizing, generation, and financial returns depend on site-specific conditions " +
	"confirmed during physical survey. TNB tariff uses a blended effective rate; actual bill " +
	"structure varies by consumption pattern. SMP export rates are conservative estimates, with " +
	"actual rates published monthly by Single Buyer (www.singlebuyer.com.my). Solar irradiance " +
	"data sourced from PVGIS/SolarGIS; actual yield may vary. CAPEX range reflects market " +
	"variation and does not constitute a quotation. This report does not constitute financial " +
	"advice. All figures should be validated by the installing EPC contractor."

var roadmapPhases = []struct {
	phase, duration, description string
}{
	{"1. Site Survey", "2–3 weeks", "Physical roof inspection, structural load assessment, TNB meter verification."},
	{"2. Detailed Design", "2–3 weeks", "Panel layout, inverter sizing, cable routing, single-line diagram."},
	{"3. ATAP Application", "4–8 weeks", "Submit to TNB with CAS approval. Capacity subject to Government availability, first-come-first-served."},
	{"4. Installation", "6–8 weeks", "Panel mounting, inverter installation, wiring for the %s system."},
	{"5. Commissioning", "1–2 weeks", "TNB inspection, meter installation, COD issuance."},
}

func patternLabel(p types.OperatingPattern) string {
	switch p {
	case types.OperatingPatternExtended:
		return "Extended hours (6am–10pm)"
	case types.OperatingPatternNight:
		return "Night-dominant"
	default:
		return "Day-dominant (7am–6pm)"
	}
}

// sectionBlocks returns the body of s. The cover is drawn separately by each
// backend and yields no blocks.
func sectionBlocks(d types.Dossier, s types.Section) []block {
	if !d.Sizing.Eligible {
		switch s.Kind {
		case types.SectionSizing, types.SectionEnergyFlow, types.SectionLoadProfile,
			types.SectionFinancial, types.SectionCashflow, types.SectionPriceSensitivity,
			types.SectionForfeiture, types.SectionCarbonESG, types.SectionLayoutConcept:
			return []block{callout(toneBad, "Not modeled: the facility does not pass the ATAP eligibility gates.")}
		}
	}

	switch s.Kind {
	case types.SectionExecutiveSnapshot:
		return snapshotBlocks(d)
	case types.SectionMethodology:
		return methodologyBlocks(d)
	case types.SectionFacilityIntelligence:
		return facilityBlocks(d)
	case types.SectionRoofIntelligence:
		return roofBlocks(d, s)
	case types.SectionLayoutConcept:
		return layoutBlocks(d, s)
	case types.SectionEligibility:
		return eligibilityBlocks(d)
	case types.SectionSizing:
		return sizingBlocks(d)
	case types.SectionEnergyFlow:
		return energyFlowBlocks(d)
	case types.SectionLoadProfile:
		return loadProfileBlocks(d)
	case types.SectionFinancial:
		return financialBlocks(d)
	case types.SectionCashflow:
		return cashflowBlocks(d)
	case types.SectionPriceSensitivity:
		return sensitivityBlocks(d)
	case types.SectionForfeiture:
		return forfeitureBlocks(d)
	case types.SectionCarbonESG:
		return carbonBlocks(d)
	case types.SectionRoadmap:
		return roadmapBlocks(d, s)
	case types.SectionStrategicRecommendation:
		return strategyBlocks(d)
	case types.SectionDisclaimer:
		return []block{small(disclaimerText), small(d.Branding.Footer + " | Confidential")}
	}
	return nil
}

func snapshotBlocks(d types.Dossier) []block {
	var out []block
	snap := d.Snapshot
	if d.Tier == types.TierBasic {
		out = append(out, para("Preliminary assessment based on publicly available benchmarks and estimated load assumptions."))
	}

	verdict := "PASS"
	if !snap.Eligible {
		verdict = "FAIL"
	}
	rows := [][]string{}
	if snap.Eligible {
		rows = append(rows,
			[]string{"Recommended Size", kwp(snap.RecommendedKWp)},
			[]string{"Annual Savings Range", rm(snap.SavingsLow) + " – " + rm(snap.SavingsHigh)},
			[]string{"Payback Range", yearRange(snap.PaybackLowYears, snap.PaybackHighYears)},
			[]string{"Export Exposure", pct(snap.ExportExposure)},
			[]string{"Forfeiture Risk", rmRange(snap.ForfeitureLow, snap.ForfeitureHigh) + "/yr"},
		)
	}
	rows = append(rows, []string{"ATAP Eligibility", verdict})
	out = append(out, table(nil, []float64{1, 2}, rows...))

	if snap.ShowIndicators {
		out = append(out, block{kind: blockLights, lights: snap.Indicators})
	}
	if snap.CallToActionUpsell {
		out = append(out,
			callout(toneWarn, "This snapshot is based on publicly available benchmarks and estimated load assumptions. "+
				"A detailed feasibility dossier is required for financial validation and system optimisation."),
			para("To proceed with a full feasibility dossier including roof analysis, layout concept, "+
				"and SMP sensitivity modelling, request our detailed assessment."),
		)
	}
	return out
}

func sensitivityBand(d types.Dossier) string {
	pts := d.Sensitivity.Points
	if len(pts) == 0 {
		return "across the observed range"
	}
	return fmt.Sprintf("(RM %.2f–%.2f)", pts[0].Price, pts[len(pts)-1].Price)
}

func methodologyBlocks(d types.Dossier) []block {
	return []block{
		para("This report is produced by an independent solar acquisition intelligence engine. " +
			"It is not an EPC sales proposal. The methodology is designed to protect the " +
			"building owner from common industry pitfalls."),
		heading("How this differs from a conventional EPC quote"),
		table(
			[]string{"Dimension", d.Branding.Name + " " + d.Subtitle, "Typical EPC Quote"},
			[]float64{1, 2, 2},
			[]string{"Sizing logic", "75–85% of MD to minimise forfeiture", "Roof-max to maximise equipment sale"},
			[]string{"Export modelling", "SMP sensitivity across full range " + sensitivityBand(d), "Often omitted or assumed favourable"},
			[]string{"Forfeiture risk", "Monthly forfeiture quantified (Hari Raya, CNY, weekends)", "Rarely discussed"},
			[]string{"ATAP compliance", "Hard gate validation before sizing", "Assumed or deferred to application"},
			[]string{"Financial bias", "No equipment markup, independent assessment", "Bundled with equipment pricing"},
			[]string{"Oversizing warning", "Quantified value loss at roof-max vs optimised size", "Not disclosed, larger system = higher margin"},
		),
		callout(toneGood, "This methodology ensures the building owner receives decision-grade intelligence "+
			"before committing to any EPC contractor. The assessment fee is deductible upon "+
			"project award, aligning incentives with the owner, not the installer."),
	}
}

func facilityBlocks(d types.Dossier) []block {
	p := d.Facility
	out := []block{
		table(nil, []float64{1, 2},
			[]string{"Industry", p.Sector},
			[]string{"Operation Pattern", patternLabel(p.Pattern)},
			[]string{"Tariff Type", p.TariffType},
			[]string{"Estimated Maximum Demand", kw(p.MaximumDemandKW)},
			[]string{"Decision Maker", p.DecisionMaker},
		),
	}
	fit := d.Impact.Fit
	if len(fit.Components) == 0 {
		return out
	}
	out = append(out, heading(fmt.Sprintf("Solar Fit Score: %s/100 (Tier %s)", trimFloat(fit.Total), fit.Grade)))
	var maxTotal float64
	for _, c := range fit.Components {
		maxTotal += c.Max
	}
	rows := make([][]string, 0, len(fit.Components)+1)
	for _, c := range fit.Components {
		weight := "-"
		if maxTotal > 0 {
			weight = pct(c.Max / maxTotal)
		}
		rows = append(rows, []string{c.Name, trimFloat(c.Score), trimFloat(c.Max), weight})
	}
	rows = append(rows, []string{"TOTAL", trimFloat(fit.Total), trimFloat(maxTotal), "100%"})
	out = append(out, table([]string{"Component", "Score", "Max", "Weight"}, []float64{3, 1, 1, 1}, rows...))
	return out
}

func roofBlocks(d types.Dossier, s types.Section) []block {
	roof := d.Sizing.RoofAreaSqft
	if roof == 0 {
		roof = d.Facility.RoofAreaSqft
	}
	img := block{
		kind:        blockImage,
		image:       imageSatellite,
		placeholder: s.Imagery != types.ImageryReal,
		caption:     "Source: Google Static Maps API · Satellite imagery for reference only · Subject to site verification",
	}
	if img.placeholder {
		img.text = "SATELLITE ROOF IMAGE\nAnnotated satellite image showing usable panel area, obstruction zones, and north orientation marker."
	}
	return []block{
		para(fmt.Sprintf("Using satellite analysis and site geometry estimation, the facility provides "+
			"approximately %s of usable roof area suitable for PV installation.", sqft(roof))),
		img,
		table([]string{"Parameter", "Value"}, []float64{1, 2},
			[]string{"Estimated total roof footprint", "~" + sqft(d.Impact.Layout.FootprintSqft)},
			[]string{"Usable after obstructions", sqft(roof)},
			[]string{"Roof type (estimated)", "Metal deck (industrial profile)"},
			[]string{"Structural risk level", "Low–Moderate (to verify on site)"},
			[]string{"Tilt assumption", "5–10° metal deck pitch"},
			[]string{"Orientation", "North–South alignment (optimal for equatorial)"},
		),
	}
}

func layoutBlocks(d types.Dossier, s types.Section) []block {
	panels := d.Impact.Layout.PanelCount
	watts := trimFloat(d.Impact.Layout.PanelWatts)
	img := block{
		kind:        blockImage,
		image:       imageOverlay,
		placeholder: s.Imagery != types.ImageryReal,
		caption: fmt.Sprintf("Conceptual layout: ~%d x %sW panels · Amber = panel zones · "+
			"Green = inverter cluster · Subject to site verification", panels, watts),
	}
	if img.placeholder {
		img.text = fmt.Sprintf("PANEL LAYOUT OVERLAY\nRoof overlay showing %d panels in grid formation with row spacing, inverter cluster position, and cable routing.", panels)
	}
	return []block{
		para("The conceptual layout illustrates panel alignment oriented to maximise " +
			"daytime generation while maintaining safe maintenance corridors and inverter " +
			"clustering efficiency."),
		img,
		table(nil, []float64{1, 2},
			[]string{"Panel count", fmt.Sprintf("~%d x %sW panels", panels, watts)},
			[]string{"Row spacing", "1.0m maintenance corridor"},
			[]string{"Inverter cluster", "Central location (minimise DC cable run)"},
			[]string{"AC routing", "To main switchboard (shortest path)"},
		),
		small("This layout is indicative and subject to physical survey validation. " +
			"Final design will account for roof penetrations, drainage paths, and structural load limits."),
	}
}

func eligibilityBlocks(d types.Dossier) []block {
	rows := make([][]string, 0, len(d.Sizing.Criteria))
	for _, c := range d.Sizing.Criteria {
		rows = append(rows, []string{c.Name, string(c.Status), c.Detail})
	}
	verdict := callout(toneGood, "VERDICT: ATAP ELIGIBLE. All hard gates passed. Proceed to system sizing.")
	if !d.Sizing.Eligible {
		verdict = callout(toneBad, "VERDICT: NOT ELIGIBLE. At least one hard gate failed; no system can be sized under ATAP.")
	}
	return []block{
		small("Based on GP/ST/No.60/2025 (Solar ATAP Guidelines effective January 2026)."),
		table([]string{"Criteria", "Status", "Detail"}, []float64{2, 1, 4}, rows...),
		verdict,
	}
}

func sizingBlocks(d types.Dossier) []block {
	r := d.Sizing
	o := r.Oversizing
	base := d.Financial.BaseScenario()
	overExport := o.GenerationKWh * (1 - base.SelfConsumption)
	return []block{
		para(fmt.Sprintf("Solar ATAP mandates system capacity at or below 100%% of Maximum Demand, capped at the "+
			"regulatory ceiling. To minimise monthly energy forfeiture (no credit carry-forward under ATAP), "+
			"optimal sizing targets %s–%s of the %s capacity cap.",
			pct(r.OptimalLowKWp/r.CapacityCapKW), pct(r.OptimalHighKWp/r.CapacityCapKW), kw(r.CapacityCapKW))),
		table([]string{"Parameter", "Value", "Basis"}, []float64{2, 1.5, 3},
			[]string{"Estimated Maximum Demand", kw(d.Facility.MaximumDemandKW), "TNB bill band + sector benchmark"},
			[]string{"ATAP capacity cap", kw(r.CapacityCapKW), "Lower of maximum demand and regulatory ceiling"},
			[]string{"Optimal sizing range", kwp(r.OptimalLowKWp) + " – " + kwp(r.OptimalHighKWp), "Policy band of the capacity cap"},
			[]string{"Recommended system size", kwp(r.RecommendedKWp), "Sweet spot for self-consumption"},
			[]string{"Estimated annual generation", kwh(r.AnnualGenerationKWh), fmt.Sprintf("%s x %s kWh/kWp", kwp(r.RecommendedKWp), trimFloat(r.SpecificYield))},
			[]string{"Estimated roof area required", sqft(r.RoofAreaSqft), "Indicative area per kWp"},
		),
		heading("Sizing Comparison"),
		table([]string{"Size", "Self-Use", "Export", "Annual Export", "Value Loss vs Optimal"}, []float64{2, 1, 1, 1.5, 2},
			[]string{kwp(r.RecommendedKWp) + " (recommended)", pct(base.SelfConsumption), pct(1 - base.SelfConsumption), kwh(base.ExportedKWh), "-"},
			[]string{kwp(o.SizeKWp) + " (roof-max)", pct(base.SelfConsumption), pct(1 - base.SelfConsumption), kwh(overExport), "~" + rm(o.AnnualValueLoss) + "/yr"},
		),
		callout(toneWarn, fmt.Sprintf("OVERSIZING WARNING: A %s system built to the capacity cap would generate "+
			"an estimated %s/year. The additional %s would be settled at SMP (%s) rather than displacing "+
			"the TNB tariff (%s), a net value loss of %s/year. Under ATAP's no-rollover rule, "+
			"months with low load would also risk outright forfeiture.",
			kwp(o.SizeKWp), kwh(o.GenerationKWh), kwh(o.IncrementalExportKWh), rate(o.WholesalePrice),
			rate(o.MarginalTariff), rm(o.AnnualValueLoss))),
	}
}

func energyFlowBlocks(d types.Dossier) []block {
	base := d.Financial.BaseScenario()
	return []block{
		para(fmt.Sprintf("At %s self-consumption, the majority of generated energy displaces the TNB tariff "+
			"directly, with controlled export exposure settled at SMP rates.", pct(base.SelfConsumption))),
		{kind: blockChart, chart: &chart{
			labels: []string{"Self-consumed", "Exported"},
			series: []series{{name: "kWh/yr", values: []float64{base.SelfConsumedKWh, base.ExportedKWh}, color: amber}},
			unit:   "kWh",
		}},
		table([]string{"Flow", "Energy", "Value"}, []float64{2, 1.5, 1.5},
			[]string{"Self-consumed (tariff displacement)", kwh(base.SelfConsumedKWh), rm(base.SelfConsumedValue)},
			[]string{"Exported (settled at SMP)", kwh(base.ExportedKWh), rm(base.ExportValue)},
		),
		callout(toneInfo, "ROI stability is primarily driven by tariff displacement rather than export dependency."),
	}
}

func loadProfileBlocks(d types.Dossier) []block {
	lp := d.Impact.Load
	labels := make([]string, len(lp.Hours))
	load := make([]float64, len(lp.Hours))
	solar := make([]float64, len(lp.Hours))
	for i, h := range lp.Hours {
		labels[i] = strconv.Itoa(h.Hour)
		load[i] = h.LoadKW
		solar[i] = h.SolarKW
	}
	return []block{
		para(fmt.Sprintf("%s operations are compared against the generation curve of the %s system, "+
			"peaking at %s.", patternLabel(d.Facility.Pattern), kwp(d.Sizing.RecommendedKWp), kw(lp.PeakSolarKW))),
		{kind: blockChart, chart: &chart{
			labels: labels,
			series: []series{
				{name: "Facility load (kW)", values: load, color: gray500},
				{name: "Solar output (kW)", values: solar, color: amber},
			},
			unit: "kW",
		}},
		callout(toneInfo, fmt.Sprintf("KEY INSIGHT: Approximately %.0f%% of solar output is absorbed directly by the "+
			"facility load. The remaining %.0f%% is exported at SMP rates.", lp.OverlapPercent, 100-lp.OverlapPercent)),
	}
}

func financialBlocks(d types.Dossier) []block {
	f := d.Financial
	c := f.Capex
	rows := make([][]string, 0, len(f.Scenarios))
	for _, sc := range f.Scenarios {
		rows = append(rows, []string{
			fmt.Sprintf("%s (%s)", sc.Name, pct(sc.SelfConsumption)),
			kwh(sc.SelfConsumedKWh),
			kwh(sc.ExportedKWh),
			rm(sc.AnnualSavings),
			years(sc.PaybackYears),
		})
	}
	base := f.BaseScenario()
	return []block{
		heading("CAPEX Estimate"),
		table([]string{"Component", "Rate", "Amount"}, []float64{2, 2, 2},
			[]string{fmt.Sprintf("Solar PV system (%s)", kwp(d.Sizing.RecommendedKWp)),
				fmt.Sprintf("RM %s–%s/kWp", trimFloat(d.Facility.CapexPerKWpLow), trimFloat(d.Facility.CapexPerKWpHigh)),
				rmRange(c.PVLow, c.PVHigh)},
			[]string{fmt.Sprintf("CAS fee (%s)", c.FeeLabel), "GP/ST/No.60/2025 schedule", rm(c.Fee)},
			[]string{"Structural roof assessment", "Subject to roof condition", rmRange(c.StructuralLow, c.StructuralHigh)},
			[]string{"Total estimated CAPEX", "", rmRange(c.Low, c.High)},
		),
		small(fmt.Sprintf("Savings model uses midpoint CAPEX of %s for payback calculation.", rm(c.Mid))),
		heading("Savings Model (Annual)"),
		table([]string{"Scenario", "Self-Consumed", "Export", "Annual Savings", "Payback"}, []float64{2, 1.5, 1.5, 1.5, 1}, rows...),
		callout(toneInfo, fmt.Sprintf("Payback range across full CAPEX band: %s (base case %s/yr against %s).",
			yearRange(f.PaybackLowYears, f.PaybackHighYears), rm(base.AnnualSavings), rmRange(c.Low, c.High))),
	}
}

func cashflowBlocks(d types.Dossier) []block {
	f := d.Financial
	labels := make([]string, len(f.Cashflow))
	values := make([]float64, len(f.Cashflow))
	for i, pt := range f.Cashflow {
		labels[i] = strconv.Itoa(pt.Year)
		values[i] = pt.Cumulative
	}
	out := []block{
		{kind: blockChart, chart: &chart{
			labels: labels,
			series: []series{{name: "Cumulative cashflow (RM)", values: values, color: green}},
			unit:   "RM",
		}},
		para(fmt.Sprintf("Over %d years with %s annual degradation, cumulative net benefit reaches "+
			"approximately %s after midpoint CAPEX recovery, from lifetime savings of %s.",
			len(f.Cashflow)-1, pct(f.DegradationRate), rm(f.NetBenefit), rm(f.LifetimeSavings))),
	}
	if f.BreakevenYear != nil {
		out = append(out, callout(toneGood, fmt.Sprintf("Cumulative cashflow turns positive after %.1f years.", *f.BreakevenYear)))
	} else {
		out = append(out, callout(toneBad, "Cumulative cashflow does not turn positive within the projection horizon."))
	}
	return out
}

func sensitivityBlocks(d types.Dossier) []block {
	st := d.Statistics
	env := d.Sensitivity
	source := "published Single Buyer data"
	if st.AllEstimated || st.Fallback {
		source = "estimated market data"
	}
	out := []block{
		para(fmt.Sprintf("The System Marginal Price (SMP) is the wholesale electricity clearing price, "+
			"published monthly by Single Buyer Malaysia. Export credits under Solar ATAP are settled at "+
			"Average SMP (7am–7pm). Analysis below uses %s, latest %s (%s).", source, rate(st.Latest), st.LatestMonth)),
		table([]string{"Metric", "Value"}, []float64{1, 2},
			[]string{"Latest Monthly SMP", fmt.Sprintf("%s (%s)", rate(st.Latest), st.LatestMonth)},
			[]string{fmt.Sprintf("%d-Month Average", st.WindowSize), rate(st.Average)},
			[]string{fmt.Sprintf("%d-Month Range", st.WindowSize), fmt.Sprintf("RM %.4f – %.4f/kWh", st.Min, st.Max)},
			[]string{"Volatility (max-min)", rate(st.Max - st.Min)},
			[]string{"Data Source", "www.singlebuyer.com.my"},
		),
	}

	if len(st.Observations) >= 3 {
		labels := make([]string, 0, len(st.Observations))
		values := make([]float64, 0, len(st.Observations))
		// observations are newest first; the trend reads left to right
		for i := len(st.Observations) - 1; i >= 0; i-- {
			labels = append(labels, st.Observations[i].Month)
			values = append(values, st.Observations[i].Price)
		}
		out = append(out,
			heading("Monthly SMP Trend"),
			block{kind: blockChart, chart: &chart{labels: labels, series: []series{{name: "SMP (RM/kWh)", values: values, color: blue}}, unit: "RM/kWh"}},
		)
	}

	rows := make([][]string, 0, len(env.Points))
	labels := make([]string, 0, len(env.Points))
	values := make([]float64, 0, len(env.Points))
	for _, pt := range env.Points {
		label := fmt.Sprintf("RM %.2f", pt.Price)
		delta := signedRM(pt.DeltaVsAverage)
		if pt.IsAverage {
			label += " (avg)"
			delta = "Base"
		}
		rows = append(rows, []string{label, rm(pt.ExportRevenue), rm(pt.AnnualSavings), years(pt.PaybackYears), delta})
		labels = append(labels, fmt.Sprintf("%.2f", pt.Price))
		values = append(values, pt.AnnualSavings)
	}
	out = append(out,
		heading("Export Revenue Sensitivity"),
		table([]string{"SMP Rate", "Export Revenue", "Total Savings", "Payback", "vs. Base"}, []float64{1.5, 1.5, 1.5, 1, 1.5}, rows...),
		block{kind: blockChart, chart: &chart{labels: labels, series: []series{{name: "Annual savings (RM)", values: values, color: amber}}, unit: "RM"}},
		heading("Export Exposure Impact"),
		callout(toneInfo, fmt.Sprintf("EXPORT RISK ENVELOPE: %s of generation is exposed to SMP volatility. "+
			"The observed range (RM %.2f–%.2f) causes a maximum swing of %s/year, %.1f%% of total annual savings.",
			kwh(env.ExportedKWh), st.Min, st.Max, rm(env.Swing), env.SwingPercent)),
	)

	resilience := "PAYBACK RESILIENCE: Payback cannot be established at every price in the observed range; the investment case is exposed to wholesale price movement."
	t := toneBad
	if env.PaybackSpreadYears != nil {
		resilience = fmt.Sprintf("PAYBACK RESILIENCE: Across the observed SMP range, payback varies by %.1f years (%.1f–%.1f yrs).",
			*env.PaybackSpreadYears, *env.PaybackMinYears, *env.PaybackMaxYears)
		switch env.Verdict {
		case types.VerdictRobust:
			resilience += " The investment case is robust against wholesale price fluctuation."
			t = toneGood
		case types.VerdictModerate:
			resilience += " The investment case is moderately sensitive to wholesale price fluctuation."
			t = toneWarn
		default:
			resilience += " The investment case is exposed to wholesale price fluctuation."
		}
	}
	out = append(out, callout(t, resilience))

	note := "NOTE: SMP data sourced from Single Buyer Malaysia. "
	if st.AllEstimated || st.Fallback {
		note += "Values shown are estimates pending official confirmation. "
	}
	note += "Final proposal economics will use the published SMP figure for the month of proposal issuance."
	return append(out, callout(toneWarn, note))
}

func forfeitureBlocks(d types.Dossier) []block {
	f := d.Impact.Forfeiture
	rows := make([][]string, 0, len(f.Risks))
	for _, r := range f.Risks {
		cost := "Negligible"
		if r.CostHigh > 0 {
			cost = rmRange(r.CostLow, r.CostHigh)
		}
		name := r.Name
		if r.DaysHigh > 0 {
			name = fmt.Sprintf("%s (%s–%s days)", r.Name, trimFloat(r.DaysLow), trimFloat(r.DaysHigh))
		}
		rows = append(rows, []string{name, r.Probability, cost, r.Mitigation})
	}
	return []block{
		para("Under Solar ATAP, excess credits are forfeited at the end of each billing month. " +
			"Cost estimates assume excess generation exported at SMP rather than self-consumed at tariff."),
		table([]string{"Risk Factor", "Prob.", "Est. Annual Cost", "Mitigation"}, []float64{2, 1, 1.5, 2.5}, rows...),
		small(fmt.Sprintf("Total estimated annual forfeiture cost: %s (%.1f–%.1f%% of gross generation value).",
			rmRange(f.TotalLow, f.TotalHigh), f.PercentOfGross[0], f.PercentOfGross[1])),
	}
}

func carbonBlocks(d types.Dossier) []block {
	c := d.Impact.Carbon
	return []block{
		para(fmt.Sprintf("Based on %s annual generation displacing grid electricity "+
			"with a grid emission factor of ~%s kg CO2/kWh:", kwh(d.Sizing.AnnualGenerationKWh), trimFloat(c.EmissionFactor))),
		table([]string{"Metric", "Impact"}, []float64{2, 1.5},
			[]string{"CO2 emissions avoided", fmt.Sprintf("~%s tonnes/year", trimFloat(c.AnnualTonnes))},
			[]string{"Equivalent: vehicles removed from road", fmt.Sprintf("~%.0f passenger cars", c.CarsEquivalent)},
			[]string{"Equivalent: trees planted", fmt.Sprintf("~%s trees", trimFloat(float64(int64(c.TreesEquivalent))))},
			[]string{"Lifetime CO2 avoidance", fmt.Sprintf("~%s tonnes", trimFloat(float64(int64(c.LifetimeTonnes))))},
		),
		para("This carbon reduction supports alignment with the Bursa Malaysia Sustainability " +
			"Reporting Framework and corporate ESG disclosure requirements."),
	}
}

func roadmapBlocks(d types.Dossier, s types.Section) []block {
	size := kwp(d.Sizing.RecommendedKWp)
	var b block
	if s.Condensed {
		rows := make([][]string, 0, len(roadmapPhases))
		for _, ph := range roadmapPhases {
			rows = append(rows, []string{ph.phase, ph.duration})
		}
		b = table([]string{"Phase", "Duration"}, []float64{2, 1}, rows...)
	} else {
		rows := make([][]string, 0, len(roadmapPhases))
		for _, ph := range roadmapPhases {
			desc := ph.description
			if ph.phase == "4. Installation" {
				desc = fmt.Sprintf(desc, size)
			}
			rows = append(rows, []string{ph.phase, ph.duration, desc})
		}
		b = table([]string{"Phase", "Duration", "Description"}, []float64{1.5, 1, 4}, rows...)
	}
	return []block{b, heading("Estimated total timeline: 4–6 months from survey to commissioning.")}
}

func strategyBlocks(d types.Dossier) []block {
	suitability := "high suitability"
	for _, ind := range d.Snapshot.Indicators {
		if ind.Light == types.LightRed {
			suitability = "conditional suitability"
			break
		}
	}
	return []block{
		para(fmt.Sprintf("Based on financial modelling, roof intelligence, and policy compliance review, "+
			"this facility demonstrates %s for a %s ATAP-compliant installation with controlled "+
			"export exposure and self-consumption driven economics.", suitability, kwp(d.Sizing.RecommendedKWp))),
		para("We recommend proceeding to:"),
		{kind: blockBullets, items: []string{
			"Physical survey and structural validation",
			"Detailed load profile analysis (TNB bill data)",
			"Structural assessment by certified engineer",
			"ATAP application to secure capacity allocation",
		}},
		callout(toneInfo, "This dossier is designed to eliminate oversizing risk, quantify export volatility "+
			"exposure, protect against policy misinterpretation, and provide board-ready financial clarity."),
		heading("The assessment fee is deductible upon project award."),
	}
}

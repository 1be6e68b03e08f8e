package impact

import "github.com/powerroof/powerroof/pkg/types"

// Typical-day shapes as a fraction of peak, indexed by hour.
var (
	dayLoadShape = [24]float64{
		0.15, 0.15, 0.15, 0.15, 0.15, 0.18,
		0.35, 0.70, 0.85, 0.90, 0.92, 0.95,
		0.88, 0.93, 0.95, 0.92, 0.88, 0.75,
		0.45, 0.25, 0.18, 0.15, 0.15, 0.15,
	}
	solarShape = [24]float64{
		0, 0, 0, 0, 0, 0,
		0.02, 0.15, 0.40, 0.65, 0.85, 0.95,
		1.00, 0.95, 0.85, 0.65, 0.40, 0.15,
		0.02, 0, 0, 0, 0, 0,
	}
)

// solarPeakRatio is the AC peak as a fraction of DC nameplate.
const solarPeakRatio = 0.85

func loadShape(pattern types.OperatingPattern) [24]float64 {
	shape := dayLoadShape
	switch pattern {
	case types.OperatingPatternExtended:
		for h := 6; h < 22; h++ {
			shape[h] = max(shape[h], 0.6)
		}
	case types.OperatingPatternNight:
		for h := range shape {
			shape[h] = dayLoadShape[(h+12)%24]
		}
	}
	return shape
}

// Load scales the typical-day shapes by maximum demand and system size and
// reports the share of solar output that coincides with facility load.
func Load(p types.FacilityProfile, rec types.SizingRecommendation) types.LoadProfile {
	lp := types.LoadProfile{
		PeakSolarKW: rec.RecommendedKWp * solarPeakRatio,
		Hours:       make([]types.HourlyLoad, 24),
	}
	shape := loadShape(p.Pattern)

	var solarTotal, overlap float64
	for h := 0; h < 24; h++ {
		load := shape[h] * p.MaximumDemandKW
		solar := solarShape[h] * lp.PeakSolarKW
		lp.Hours[h] = types.HourlyLoad{Hour: h, LoadKW: load, SolarKW: solar}
		solarTotal += solar
		overlap += min(load, solar)
	}
	if solarTotal > 0 {
		lp.OverlapPercent = overlap / solarTotal * 100
	}
	return lp
}

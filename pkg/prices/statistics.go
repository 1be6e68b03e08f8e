package prices

import (
	"sort"

	"github.com/powerroof/powerroof/pkg/types"
)

// DefaultWindow is the number of months summarized by default.
const DefaultWindow = 12

// Fallback values used when there is no history at all.
const (
	FallbackAverage = 0.20
	FallbackMin     = 0.15
	FallbackMax     = 0.25
)

// Statistics summarizes the first window observations of obs, which must
// already be sorted newest first. A non-positive window uses DefaultWindow.
// It never fails: an empty input yields the fallback statistics.
func Statistics(obs []types.PriceObservation, window int) types.PriceStatistics {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(obs) > window {
		obs = obs[:window]
	}
	if len(obs) == 0 {
		return types.PriceStatistics{
			Average:     FallbackAverage,
			Min:         FallbackMin,
			Max:         FallbackMax,
			Latest:      FallbackAverage,
			LatestMonth: "unknown",
			Fallback:    true,
		}
	}

	stats := types.PriceStatistics{
		Min:          obs[0].Price,
		Max:          obs[0].Price,
		Latest:       obs[0].Price,
		LatestMonth:  obs[0].Month,
		WindowSize:   len(obs),
		AllEstimated: true,
		Observations: append([]types.PriceObservation(nil), obs...),
	}
	var sum float64
	for _, o := range obs {
		sum += o.Price
		stats.Min = min(stats.Min, o.Price)
		stats.Max = max(stats.Max, o.Price)
		if o.Source != types.PriceSourceEstimated {
			stats.AllEstimated = false
		}
	}
	stats.Average = sum / float64(len(obs))
	return stats
}

func sortDescending(obs []types.PriceObservation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Month > obs[j].Month
	})
}

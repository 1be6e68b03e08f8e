package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

func rm(v float64) string {
	if v < 0 {
		return "-RM " + humanize.Comma(int64(math.Round(-v)))
	}
	return "RM " + humanize.Comma(int64(math.Round(v)))
}

func rmRange(lo, hi float64) string {
	return rm(lo) + " – " + humanize.Comma(int64(math.Round(hi)))
}

func signedRM(v float64) string {
	if v >= 0 {
		return "+" + rm(v)
	}
	return rm(v)
}

func rate(v float64) string {
	return fmt.Sprintf("RM %.4f/kWh", v)
}

func kwh(v float64) string {
	return humanize.Comma(int64(math.Round(v))) + " kWh"
}

func kw(v float64) string {
	return trimFloat(v) + " kW"
}

func kwp(v float64) string {
	return trimFloat(v) + " kWp"
}

func sqft(v float64) string {
	return humanize.Comma(int64(math.Round(v))) + " sqft"
}

func pct(fraction float64) string {
	return trimFloat(math.Round(fraction*1000)/10) + "%"
}

func years(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f yrs", *v)
}

func yearRange(lo, hi *float64) string {
	if lo == nil || hi == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f – %.1f years", *lo, *hi)
}

// trimFloat prints v with at most two decimals and no trailing zeros.
func trimFloat(v float64) string {
	s := humanize.CommafWithDigits(v, 2)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

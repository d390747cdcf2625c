package calculator

import (
	"math"
	"time"
)

// DaysPerYear is the calendar-day year length used to annualize returns.
const DaysPerYear = 365.25

// PercentChange returns the change from a to b in percent, 0 when a is 0.
func PercentChange(a, b float64) float64 {
	if a == 0 {
		return 0
	}
	return (b - a) / a * 100
}

// InclusiveDays counts calendar days from start to end, both included.
func InclusiveDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}

// CAGR annualizes the growth from initial to final over days calendar days, in percent.
func CAGR(initial, final float64, days int) float64 {
	if initial <= 0 || final < 0 || days <= 0 {
		return 0
	}
	years := float64(days) / DaysPerYear
	return (math.Pow(final/initial, 1/years) - 1) * 100
}

// MaxDrawdown returns the deepest peak-to-trough decline of values in percent (<= 0).
func MaxDrawdown(values []float64) float64 {
	peak := math.Inf(-1)
	mdd := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak * 100; dd < mdd {
			mdd = dd
		}
	}
	return mdd
}

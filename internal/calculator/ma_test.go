package calculator

import (
	"math"
	"testing"
)

// windowMean is the direct mean of the last period values.
func windowMean(prices []float64, period int) float64 {
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

func TestRollingMean_MatchesWindowMean(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 12, 11, 15, 18, 17, 16}
	for _, period := range []int{1, 3, 5} {
		rm, err := NewRollingMean(period)
		if err != nil {
			t.Fatalf("period %d: %v", period, err)
		}
		for i, p := range prices {
			got, ok := rm.Push(p)
			if i < period-1 {
				if ok || !math.IsNaN(got) {
					t.Errorf("period %d idx %d: expected NaN during warm-up, got %v", period, i, got)
				}
				continue
			}
			if !ok {
				t.Fatalf("period %d idx %d: window should be full", period, i)
			}
			if want := windowMean(prices[:i+1], period); math.Abs(got-want) > 1e-9 {
				t.Errorf("period %d idx %d: got %v, want %v", period, i, got, want)
			}
		}
	}
}

func TestRollingMean_InvalidPeriod(t *testing.T) {
	for _, period := range []int{0, -3} {
		if _, err := NewRollingMean(period); err == nil {
			t.Errorf("expected error for period %d", period)
		}
	}
}

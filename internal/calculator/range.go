package calculator

import (
	"errors"

	"LeverageLab/internal/model"
)

// PeakWindow is the number of sessions in the trailing-high lookback (about one year).
const PeakWindow = 252

// RollingMax tracks the maximum of the last window values with a monotonic deque.
type RollingMax struct {
	window int
	seen   int
	dq     []maxEntry
}

type maxEntry struct {
	idx int
	v   float64
}

// NewRollingMax creates a RollingMax over window values.
func NewRollingMax(window int) (*RollingMax, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	return &RollingMax{window: window}, nil
}

// Push adds v and returns the maximum over the values currently in the window.
// The first results cover fewer than window values.
func (r *RollingMax) Push(v float64) float64 {
	idx := r.seen
	r.seen++
	for len(r.dq) > 0 && r.dq[len(r.dq)-1].v <= v {
		r.dq = r.dq[:len(r.dq)-1]
	}
	r.dq = append(r.dq, maxEntry{idx: idx, v: v})
	for r.dq[0].idx <= idx-r.window {
		r.dq = r.dq[1:]
	}
	return r.dq[0].v
}

// RollingHigh returns the trailing window-session high for every bar.
func RollingHigh(bars []model.OHLCV, window int) ([]float64, error) {
	if len(bars) == 0 {
		return nil, errors.New("no daily bars provided")
	}
	rm, err := NewRollingMax(window)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = rm.Push(b.High)
	}
	return out, nil
}

// Drawdown returns how far price sits below peak, in percent. A non-positive
// peak falls back to price itself.
func Drawdown(peak, price float64) (dd float64, usedPeak float64) {
	if peak <= 0 {
		peak = price
	}
	if peak <= 0 {
		return 0, peak
	}
	return (peak - price) / peak * 100, peak
}

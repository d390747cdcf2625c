package calculator

import (
	"errors"
	"math"
)

// RollingMean is a streaming simple moving average over a fixed window.
// It holds only the last period values.
type RollingMean struct {
	period int
	buf    []float64
	next   int
	count  int
	sum    float64
}

// NewRollingMean creates a RollingMean over period values.
func NewRollingMean(period int) (*RollingMean, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	return &RollingMean{period: period, buf: make([]float64, period)}, nil
}

// Push adds v and returns the current mean. ok is false until the window is full.
func (r *RollingMean) Push(v float64) (mean float64, ok bool) {
	if r.count == r.period {
		r.sum -= r.buf[r.next]
	} else {
		r.count++
	}
	r.buf[r.next] = v
	r.sum += v
	r.next = (r.next + 1) % r.period
	if r.count < r.period {
		return math.NaN(), false
	}
	return r.sum / float64(r.period), true
}

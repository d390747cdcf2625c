package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidConfig is wrapped by every strategy configuration validation failure.
var ErrInvalidConfig = errors.New("invalid strategy config")

// ExitMode selects how profit targets are filled.
type ExitMode string

const (
	ExitLimit ExitMode = "limit" // intraday fill at open or target price
	ExitClose ExitMode = "close" // fill at close once close-based profit reaches target
)

// TrendMode selects what the moving-average filter does below the average.
type TrendMode string

const (
	TrendDefensive TrendMode = "defensive" // liquidate to cash
	TrendPause     TrendMode = "pause"     // keep holdings, suspend new entries
)

// Step is one rung of the drawdown ladder.
type Step struct {
	DropPct   float64 `json:"drop_pct"`
	ShiftPct  float64 `json:"shift_pct"`
	Ticker    string  `json:"ticker"`
	ProfitPct float64 `json:"profit_pct"`
}

// Trigger returns the drawdown magnitude that activates the step.
func (s Step) Trigger() float64 { return math.Abs(s.DropPct) }

// TrendFilter configures the moving-average regime switch.
type TrendFilter struct {
	Enabled bool
	Mode    TrendMode
	Period  int
}

// StrategyConfig is the immutable input of a single simulation run.
type StrategyConfig struct {
	Base          string
	Adds          []string
	Capital       float64
	Start         time.Time
	End           time.Time
	ExitMode      ExitMode
	CashBufferPct float64
	Trend         TrendFilter
	MaxBuysDay    int // 0 means unlimited
	MaxBuysWeek   int // 0 means unlimited
	ForceBuyDays  int // 0 disables forced entries
	Steps         []Step
}

// Instruments returns every symbol the run trades: base first, then adds in
// order, then step targets that are not already listed.
func (c StrategyConfig) Instruments() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	add(c.Base)
	for _, s := range c.Adds {
		add(s)
	}
	for _, st := range c.Steps {
		add(st.Ticker)
	}
	return out
}

// Validate checks the configuration before a run starts.
func (c StrategyConfig) Validate() error {
	if strings.TrimSpace(c.Base) == "" {
		return fmt.Errorf("%w: base ticker is required", ErrInvalidConfig)
	}
	if c.Capital <= 0 || math.IsNaN(c.Capital) || math.IsInf(c.Capital, 0) {
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidConfig, c.Capital)
	}
	if c.CashBufferPct < 0 || c.CashBufferPct > 100 {
		return fmt.Errorf("%w: cash buffer must be within [0, 100], got %v", ErrInvalidConfig, c.CashBufferPct)
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidConfig,
			c.End.Format("2006-01-02"), c.Start.Format("2006-01-02"))
	}
	switch c.ExitMode {
	case ExitLimit, ExitClose:
	default:
		return fmt.Errorf("%w: unknown exit mode %q", ErrInvalidConfig, c.ExitMode)
	}
	if c.Trend.Enabled {
		switch c.Trend.Mode {
		case TrendDefensive, TrendPause:
		default:
			return fmt.Errorf("%w: unknown trend filter mode %q", ErrInvalidConfig, c.Trend.Mode)
		}
		if c.Trend.Period <= 0 {
			return fmt.Errorf("%w: trend filter period must be positive, got %d", ErrInvalidConfig, c.Trend.Period)
		}
	}
	if c.MaxBuysDay < 0 || c.MaxBuysWeek < 0 || c.ForceBuyDays < 0 {
		return fmt.Errorf("%w: throttle and idle limits must not be negative", ErrInvalidConfig)
	}
	for i, s := range c.Steps {
		if strings.TrimSpace(s.Ticker) == "" {
			return fmt.Errorf("%w: step %d has no ticker", ErrInvalidConfig, i+1)
		}
		if s.ShiftPct < 0 || s.ShiftPct > 100 {
			return fmt.Errorf("%w: step %d shift must be within [0, 100], got %v", ErrInvalidConfig, i+1, s.ShiftPct)
		}
		if s.ProfitPct <= -100 {
			return fmt.Errorf("%w: step %d profit target must be above -100, got %v", ErrInvalidConfig, i+1, s.ProfitPct)
		}
	}
	return nil
}

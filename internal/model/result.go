package model

import "time"

// Holding is the per-instrument part of a daily record.
type Holding struct {
	Symbol    string
	Price     float64
	Shares    float64
	Value     float64
	WeightPct float64
}

// DailyRecord is the end-of-day state of a simulation.
type DailyRecord struct {
	Date           time.Time
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Peak           float64
	Drawdown       float64
	PortfolioValue float64
	BuyHoldValue   float64
	Cash           float64
	Holdings       []Holding
}

// DailyColumns returns the column header of the daily table for the given
// instrument order.
func DailyColumns(symbols []string) []string {
	cols := []string{"Date", "Open", "High", "Low", "Price_base", "Peak", "Drawdown",
		"PortfolioValue", "BuyHoldValue", "Cash"}
	for _, s := range symbols {
		cols = append(cols, s+"_Price", s+"_Hold", s+"_Val", s+"_Pct")
	}
	return cols
}

// Values returns the numeric cells of r in DailyColumns order, date excluded.
func (r DailyRecord) Values() []float64 {
	v := []float64{r.Open, r.High, r.Low, r.Close, r.Peak, r.Drawdown,
		r.PortfolioValue, r.BuyHoldValue, r.Cash}
	for _, h := range r.Holdings {
		v = append(v, h.Price, h.Shares, h.Value, h.WeightPct)
	}
	return v
}

// CauseStats accumulates realized exits of one entry cause for one step.
type CauseStats struct {
	Count      int
	ProfitPcts []float64
	ProfitAmts []float64
}

// AddExit records a realized exit.
func (c *CauseStats) AddExit(pct, amt float64) {
	c.ProfitPcts = append(c.ProfitPcts, pct)
	c.ProfitAmts = append(c.ProfitAmts, amt)
}

// StepStats holds the DROP and FORCE buckets of a step.
type StepStats struct {
	Drop  CauseStats
	Force CauseStats
}

// For returns the bucket for cause.
func (s *StepStats) For(cause EntryCause) *CauseStats {
	if cause == CauseForce {
		return &s.Force
	}
	return &s.Drop
}

// RunResult is the complete trace of a simulation run.
type RunResult struct {
	Config         StrategyConfig
	Steps          []Step // sorted ascending by trigger
	Instruments    []string
	Daily          []DailyRecord
	Trades         []Trade
	StepStats      []StepStats // indexed like Steps
	RebalanceCount int
	RebalanceTotal float64
	Warnings       []string
}

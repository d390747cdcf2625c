package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Field is one flat key/value of a persisted run configuration.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RunMetrics is the result part of a history record.
type RunMetrics struct {
	FinalValue     float64 `json:"final_value"`
	TotalReturnPct float64 `json:"total_return_pct"`
	CAGRPct        float64 `json:"cagr_pct"`
	MDDPct         float64 `json:"mdd_pct"`
	TradeCount     int     `json:"trade_count"`
	FinalCash      float64 `json:"final_cash"`
	RebalanceCount int     `json:"rebalance_count"`
}

// RunRecord is one entry of the run history.
type RunRecord struct {
	ID        string
	Timestamp time.Time
	Params    []Field
	Metrics   RunMetrics
}

// Param returns the value stored under key.
func (r *RunRecord) Param(key string) (string, bool) {
	for _, f := range r.Params {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns the configuration fields followed by the result fields.
func (r *RunRecord) Fields() []Field {
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	out := append([]Field(nil), r.Params...)
	return append(out,
		Field{"FinalValue", num(r.Metrics.FinalValue)},
		Field{"TotalReturn", num(r.Metrics.TotalReturnPct)},
		Field{"CAGR", num(r.Metrics.CAGRPct)},
		Field{"MDD", num(r.Metrics.MDDPct)},
		Field{"TradeCount", strconv.Itoa(r.Metrics.TradeCount)},
		Field{"FinalCash", num(r.Metrics.FinalCash)},
		Field{"RebalanceCount", strconv.Itoa(r.Metrics.RebalanceCount)},
	)
}

// NewRunMetrics extracts the history result fields from a summary.
func NewRunMetrics(s *Summary) RunMetrics {
	return RunMetrics{
		FinalValue:     s.FinalValue,
		TotalReturnPct: s.TotalReturnPct,
		CAGRPct:        s.CAGRPct,
		MDDPct:         s.MDDPct,
		TradeCount:     s.TradeCount,
		FinalCash:      s.FinalCash,
		RebalanceCount: s.RebalanceCount,
	}
}

// HistoryFields flattens the configuration into the key/value form used by
// the run history. Two runs with equal fields are the same experiment.
func (c StrategyConfig) HistoryFields() []Field {
	steps, _ := json.Marshal(c.Steps)
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	date := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	}
	return []Field{
		{"BaseTicker", c.Base},
		{"AddTickers", strings.Join(c.Adds, ",")},
		{"Capital", num(c.Capital)},
		{"CashBuffer", num(c.CashBufferPct)},
		{"StartDate", date(c.Start)},
		{"EndDate", date(c.End)},
		{"SellMode", string(c.ExitMode)},
		{"Steps", strconv.Itoa(len(c.Steps))},
		{"StepsConfig", string(steps)},
		{"MaxBuysDay", strconv.Itoa(c.MaxBuysDay)},
		{"MaxBuysWeek", strconv.Itoa(c.MaxBuysWeek)},
		{"ForceBuyDays", strconv.Itoa(c.ForceBuyDays)},
		{"MA_Filter", strconv.FormatBool(c.Trend.Enabled)},
		{"MA_Mode", string(c.Trend.Mode)},
		{"MA_Period", strconv.Itoa(c.Trend.Period)},
	}
}

// Snapshot is the persisted outcome of the most recent run.
type Snapshot struct {
	RunID     string        `json:"run_id"`
	RanAt     time.Time     `json:"ran_at"`
	Summary   *Summary      `json:"summary"`
	Annual    *AnnualReport `json:"annual"`
	Steps     []StepMetric  `json:"steps"`
	Warnings  []string      `json:"warnings,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

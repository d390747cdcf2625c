package model

import (
	"fmt"
	"time"
)

// Summary holds the headline statistics of a run.
type Summary struct {
	Base           string    `json:"base"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Days           int       `json:"days"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	TotalReturnPct float64   `json:"total_return_pct"`
	CAGRPct        float64   `json:"cagr_pct"`
	MDDPct         float64   `json:"mdd_pct"`
	TradeCount     int       `json:"trade_count"`
	CashBufferPct  float64   `json:"cash_buffer_pct"`
	FinalCash      float64   `json:"final_cash"`
	RebalanceCount int       `json:"rebalance_count"`
	RebalanceTotal float64   `json:"rebalance_total"`
	BHFinalValue   float64   `json:"bh_final_value"`
	BHReturnPct    float64   `json:"bh_return_pct"`
	BHCAGRPct      float64   `json:"bh_cagr_pct"`
	BHMDDPct       float64   `json:"bh_mdd_pct"`
}

// YearStat is one calendar year of the annual table.
type YearStat struct {
	Year        int     `json:"year"`
	ReturnPct   float64 `json:"return_pct"`
	MDDPct      float64 `json:"mdd_pct"`
	BHReturnPct float64 `json:"bh_return_pct"`
	BHMDDPct    float64 `json:"bh_mdd_pct"`
	Trades      int     `json:"trades"`
}

// TotalStat is the aggregate column of the annual table.
type TotalStat struct {
	Label       string  `json:"label"`
	ReturnPct   float64 `json:"return_pct"`
	CAGRPct     float64 `json:"cagr_pct"`
	MDDPct      float64 `json:"mdd_pct"`
	BHReturnPct float64 `json:"bh_return_pct"`
	BHCAGRPct   float64 `json:"bh_cagr_pct"`
	BHMDDPct    float64 `json:"bh_mdd_pct"`
	Trades      int     `json:"trades"`
}

// Combined renders the strategy return and CAGR as one cell.
func (t TotalStat) Combined() string {
	return fmt.Sprintf("%.2f%% (%.2f%%)", t.ReturnPct, t.CAGRPct)
}

// BHCombined renders the buy-and-hold return and CAGR as one cell.
func (t TotalStat) BHCombined() string {
	return fmt.Sprintf("%.2f%% (%.2f%%)", t.BHReturnPct, t.BHCAGRPct)
}

// AnnualReport is the per-year table plus its total column.
type AnnualReport struct {
	Years []YearStat `json:"years"`
	Total TotalStat  `json:"total"`
}

// StepMetric summarizes the realized activity of one ladder step.
type StepMetric struct {
	Index           int     `json:"index"`
	DropPct         float64 `json:"drop_pct"`
	ShiftPct        float64 `json:"shift_pct"`
	Ticker          string  `json:"ticker"`
	ProfitPct       float64 `json:"profit_pct"`
	DropBuys        int     `json:"drop_buys"`
	ForceBuys       int     `json:"force_buys"`
	DropAvgPct      float64 `json:"drop_avg_pct"`
	ForceAvgPct     float64 `json:"force_avg_pct"`
	TotalProfit     float64 `json:"total_profit"`
	ContributionPct float64 `json:"contribution_pct"`
}

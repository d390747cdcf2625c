package calculator

import (
	"errors"
	"fmt"

	"LeverageLab/internal/model"
)

// ErrEmptyTrace is returned when a run produced no daily records.
var ErrEmptyTrace = errors.New("no daily records to evaluate")

// Summarize derives the headline statistics of a run. CAGR spans the
// configured start and end dates, falling back to the data range.
func Summarize(res *model.RunResult) (*model.Summary, error) {
	if res == nil || len(res.Daily) == 0 {
		return nil, ErrEmptyTrace
	}
	cfg := res.Config
	first, last := res.Daily[0], res.Daily[len(res.Daily)-1]

	start, end := cfg.Start, cfg.End
	if start.IsZero() {
		start = first.Date
	}
	if end.IsZero() {
		end = last.Date
	}
	days := InclusiveDays(start, end)

	values, closes := series(res.Daily)
	s := &model.Summary{
		Base:           cfg.Base,
		Start:          start,
		End:            end,
		Days:           days,
		InitialCapital: cfg.Capital,
		FinalValue:     last.PortfolioValue,
		TotalReturnPct: PercentChange(cfg.Capital, last.PortfolioValue),
		CAGRPct:        CAGR(cfg.Capital, last.PortfolioValue, days),
		MDDPct:         MaxDrawdown(values),
		TradeCount:     countTrades(res.Trades, 0),
		CashBufferPct:  cfg.CashBufferPct,
		FinalCash:      last.Cash,
	}
	if cfg.CashBufferPct > 0 {
		s.RebalanceCount = res.RebalanceCount
		s.RebalanceTotal = res.RebalanceTotal
	}
	if p0 := closes[0]; p0 > 0 {
		pN := closes[len(closes)-1]
		s.BHFinalValue = cfg.Capital * pN / p0
		s.BHReturnPct = PercentChange(p0, pN)
		s.BHCAGRPct = CAGR(cfg.Capital, s.BHFinalValue, days)
		s.BHMDDPct = MaxDrawdown(closes)
	}
	return s, nil
}

// AnnualStats splits the run into calendar years and adds a total column.
// The total CAGR spans the first and last data dates.
func AnnualStats(res *model.RunResult) (*model.AnnualReport, error) {
	if res == nil || len(res.Daily) == 0 {
		return nil, ErrEmptyTrace
	}
	type yearSlice struct {
		year   int
		values []float64
		closes []float64
	}
	var years []yearSlice
	for _, d := range res.Daily {
		y := d.Date.Year()
		if len(years) == 0 || years[len(years)-1].year != y {
			years = append(years, yearSlice{year: y})
		}
		cur := &years[len(years)-1]
		cur.values = append(cur.values, d.PortfolioValue)
		cur.closes = append(cur.closes, d.Close)
	}

	report := &model.AnnualReport{}
	for i, ys := range years {
		startVal := res.Config.Capital
		startPrice := ys.closes[0]
		if i > 0 && years[i-1].year == ys.year-1 {
			prev := years[i-1]
			startVal = prev.values[len(prev.values)-1]
			startPrice = prev.closes[len(prev.closes)-1]
		}
		report.Years = append(report.Years, model.YearStat{
			Year:        ys.year,
			ReturnPct:   PercentChange(startVal, ys.values[len(ys.values)-1]),
			MDDPct:      MaxDrawdown(ys.values),
			BHReturnPct: PercentChange(startPrice, ys.closes[len(ys.closes)-1]),
			BHMDDPct:    MaxDrawdown(ys.closes),
			Trades:      countTrades(res.Trades, ys.year),
		})
	}

	values, closes := series(res.Daily)
	first, last := res.Daily[0], res.Daily[len(res.Daily)-1]
	days := InclusiveDays(first.Date, last.Date)
	label := "Total"
	if fy, ly := years[0].year, years[len(years)-1].year; fy != ly {
		label = fmt.Sprintf("%d~%d", fy, ly)
	}
	total := model.TotalStat{
		Label:     label,
		ReturnPct: PercentChange(res.Config.Capital, last.PortfolioValue),
		CAGRPct:   CAGR(res.Config.Capital, last.PortfolioValue, days),
		MDDPct:    MaxDrawdown(values),
		BHMDDPct:  MaxDrawdown(closes),
		Trades:    countTrades(res.Trades, 0),
	}
	if p0, pN := closes[0], closes[len(closes)-1]; p0 > 0 {
		total.BHReturnPct = PercentChange(p0, pN)
		total.BHCAGRPct = CAGR(p0, pN, days)
	}
	report.Total = total
	return report, nil
}

// StepMetrics reports realized activity per ladder step. Contribution is the
// step's share of total realized profit, 0 when that total is not positive.
func StepMetrics(res *model.RunResult) []model.StepMetric {
	if res == nil {
		return nil
	}
	total := 0.0
	for _, st := range res.StepStats {
		total += sum(st.Drop.ProfitAmts) + sum(st.Force.ProfitAmts)
	}
	out := make([]model.StepMetric, 0, len(res.Steps))
	for i, step := range res.Steps {
		var st model.StepStats
		if i < len(res.StepStats) {
			st = res.StepStats[i]
		}
		m := model.StepMetric{
			Index:       i,
			DropPct:     step.DropPct,
			ShiftPct:    step.ShiftPct,
			Ticker:      step.Ticker,
			ProfitPct:   step.ProfitPct,
			DropBuys:    st.Drop.Count,
			ForceBuys:   st.Force.Count,
			DropAvgPct:  mean(st.Drop.ProfitPcts),
			ForceAvgPct: mean(st.Force.ProfitPcts),
			TotalProfit: sum(st.Drop.ProfitAmts) + sum(st.Force.ProfitAmts),
		}
		if total > 0 {
			m.ContributionPct = m.TotalProfit / total * 100
		}
		out = append(out, m)
	}
	return out
}

func series(daily []model.DailyRecord) (values, closes []float64) {
	values = make([]float64, len(daily))
	closes = make([]float64, len(daily))
	for i, d := range daily {
		values[i] = d.PortfolioValue
		closes[i] = d.Close
	}
	return values, closes
}

// countTrades counts executed trades, restricted to year when it is non-zero.
func countTrades(trades []model.Trade, year int) int {
	n := 0
	for _, t := range trades {
		if !t.Action.Counted() {
			continue
		}
		if year != 0 && t.Date.Year() != year {
			continue
		}
		n++
	}
	return n
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

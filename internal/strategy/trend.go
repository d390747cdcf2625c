package strategy

import (
	"fmt"

	"LeverageLab/internal/calculator"
	"LeverageLab/internal/model"
)

// trendFilter feeds one base close per day into a streaming moving average.
type trendFilter struct {
	mode   model.TrendMode
	period int
	ma     *calculator.RollingMean
}

func newTrendFilter(cfg model.TrendFilter) (*trendFilter, error) {
	ma, err := calculator.NewRollingMean(cfg.Period)
	if err != nil {
		return nil, fmt.Errorf("trend filter: %w", err)
	}
	return &trendFilter{mode: cfg.Mode, period: cfg.Period, ma: ma}, nil
}

// push returns the moving average once it is defined and positive.
func (t *trendFilter) push(price float64) (float64, bool) {
	ma, ok := t.ma.Push(price)
	if !ok || ma <= 0 {
		return 0, false
	}
	return ma, true
}

// applyRegime switches between the invested and defensive regimes.
func (e *Engine) applyRegime(i int, price, ma float64) {
	switch {
	case price < ma:
		if e.trend.mode == model.TrendDefensive && !e.liquidated {
			e.liquidate(i, price, ma)
		}
		if e.trend.mode == model.TrendPause {
			e.buyPaused = true
		}
	case price > ma:
		if e.trend.mode == model.TrendDefensive && e.liquidated {
			e.resume(i)
		}
		if e.trend.mode == model.TrendPause {
			e.buyPaused = false
		}
	}
}

// liquidate sells every holding at close and drops all lots. Lot P&L is not
// attributed to steps.
func (e *Engine) liquidate(i int, price, ma float64) {
	date := e.table.Dates[i]
	reason := fmt.Sprintf("Below %d MA (Price %.2f < MA %.2f)", e.trend.period, price, ma)
	for _, s := range e.symbols {
		shares := e.holdings[s]
		if shares <= 0 {
			continue
		}
		p := e.table.Close(s, i)
		rev := shares * p
		e.cash += rev
		e.holdings[s] = 0
		e.trades = append(e.trades, model.Trade{
			Date:    date,
			Action:  model.ActionDefensiveSell,
			Ticker:  s,
			Shares:  shares,
			Price:   p,
			Value:   rev,
			Reason:  reason,
			StepIdx: model.NoStep,
		})
	}
	e.open = e.open[:0]
	for k := range e.stepLot {
		e.stepLot[k] = noLot
	}
	e.liquidated = true
}

// resume reinvests the non-buffer part of cash in base.
func (e *Engine) resume(i int) {
	price := e.table.Close(e.cfg.Base, i)
	e.liquidated = false
	if price <= 0 {
		return
	}
	invest := e.cash * (1 - e.cfg.CashBufferPct/100)
	if invest <= 0 {
		return
	}
	shares := invest / price
	e.holdings[e.cfg.Base] += shares
	e.cash -= invest
	e.trades = append(e.trades, model.Trade{
		Date:    e.table.Dates[i],
		Action:  model.ActionResumeBuy,
		Ticker:  e.cfg.Base,
		Shares:  shares,
		Price:   price,
		Value:   invest,
		Reason:  fmt.Sprintf("Reclaimed %d MA", e.trend.period),
		StepIdx: model.NoStep,
	})
}

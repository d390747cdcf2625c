package strategy

import (
	"fmt"
	"math"

	"LeverageLab/internal/calculator"
	"LeverageLab/internal/model"

	"github.com/dustin/go-humanize"
)

// processExits checks every open lot against its profit target, in opening order.
func (e *Engine) processExits(i int) {
	var still []int
	for _, id := range e.open {
		lot := e.lots[id]
		bar, _ := e.table.Bar(lot.Ticker, i)
		if bar.Close <= 0 {
			still = append(still, id)
			continue
		}
		fill, ok := exitPrice(e.cfg.ExitMode, lot.EntryPrice, e.steps[lot.StepIdx].ProfitPct, bar)
		if !ok {
			still = append(still, id)
			continue
		}
		e.closeLot(i, id, fill)
	}
	e.open = still
}

// exitPrice returns the fill price when bar reaches the profit target.
// In limit mode a gap above target fills at the open, otherwise at the target.
func exitPrice(mode model.ExitMode, entry, targetPct float64, bar model.OHLCV) (float64, bool) {
	if mode == model.ExitClose {
		if calculator.PercentChange(entry, bar.Close) >= targetPct {
			return bar.Close, true
		}
		return 0, false
	}
	target := entry * (1 + targetPct/100)
	if bar.Open >= target {
		return bar.Open, true
	}
	if bar.High >= target {
		return target, true
	}
	return 0, false
}

func (e *Engine) closeLot(i, id int, fill float64) {
	lot := e.lots[id]
	step := e.steps[lot.StepIdx]
	date := e.table.Dates[i]

	rev := lot.Shares * fill
	e.cash += rev
	e.reduce(lot.Ticker, lot.Shares)
	profitPct := calculator.PercentChange(lot.EntryPrice, fill)
	amt := rev - lot.Cost
	e.stats[lot.StepIdx].For(lot.Cause).AddExit(profitPct, amt)
	e.stepLot[lot.StepIdx] = noLot

	note := e.deployCash(i)
	e.trades = append(e.trades, model.Trade{
		Date:      date,
		Action:    model.ProfitAction(lot.Cause),
		Ticker:    lot.Ticker,
		Shares:    lot.Shares,
		Price:     fill,
		Value:     rev,
		Reason:    fmt.Sprintf("Hit Target %g%% (Profit %.1f%%)%s", step.ProfitPct, profitPct, note),
		StepIdx:   lot.StepIdx,
		DropPct:   step.DropPct,
		ProfitAmt: amt,
		ProfitPct: profitPct,
		BuyDate:   lot.EntryDate,
		DaysHeld:  daysBetween(lot.EntryDate, date),
	})
}

// deployCash moves exit proceeds back into base. With a cash buffer only the
// excess over the target cash is moved; without one all cash is.
func (e *Engine) deployCash(i int) string {
	price := e.table.Close(e.cfg.Base, i)
	if price <= 0 {
		return ""
	}
	if buf := e.cfg.CashBufferPct; buf > 0 {
		target := e.portfolioValue(i) * buf / 100
		excess := e.cash - target
		if excess <= target*rebalanceSlack {
			return ""
		}
		e.holdings[e.cfg.Base] += excess / price
		e.cash -= excess
		e.rebalanceCount++
		e.rebalanceTotal += excess
		return " (Rebalanced)"
	}
	if e.cash <= 0 {
		return ""
	}
	e.holdings[e.cfg.Base] += e.cash / price
	e.cash = 0
	return " (Reinvested)"
}

// forcedEntry opens the first inactive step after too many idle days.
// It reports whether an entry was made.
func (e *Engine) forcedEntry(i int, value float64) bool {
	if e.cfg.ForceBuyDays <= 0 {
		return false
	}
	date := e.table.Dates[i]
	idle := daysBetween(e.lastBuy, date)
	if idle < e.cfg.ForceBuyDays {
		return false
	}
	idx := -1
	for k := range e.steps {
		if e.stepLot[k] == noLot {
			idx = k
			break
		}
	}
	if idx < 0 {
		return false
	}
	shift := value * e.steps[idx].ShiftPct / 100
	if !e.covers(i, shift) {
		return false
	}
	reason := fmt.Sprintf("Idle %d days >= %d", idle, e.cfg.ForceBuyDays)
	return e.switchInto(i, idx, shift, model.CauseForce, reason)
}

// drawdownEntries opens every inactive step whose trigger the drawdown reached.
func (e *Engine) drawdownEntries(i int, dd, value float64) {
	date := e.table.Dates[i]
	for idx, step := range e.steps {
		if dd < step.Trigger() || e.stepLot[idx] != noLot {
			continue
		}
		shift := value * step.ShiftPct / 100
		if !e.covers(i, shift) {
			continue
		}
		if !e.buys.allowed(date, e.cfg.MaxBuysDay, e.cfg.MaxBuysWeek) {
			e.trades = append(e.trades, model.Trade{
				Date:    date,
				Action:  model.ActionSkip,
				Ticker:  step.Ticker,
				Reason:  "Max Buys Limit Reached",
				StepIdx: idx,
				DropPct: step.DropPct,
			})
			continue
		}
		reason := fmt.Sprintf("Drawdown %.2f%% >= %g%%", dd, step.Trigger())
		e.switchInto(i, idx, shift, model.CauseDrop, reason)
	}
}

// covers reports whether the base holding is worth enough to fund shift.
func (e *Engine) covers(i int, shift float64) bool {
	return e.holdings[e.cfg.Base]*e.table.Close(e.cfg.Base, i) >= coverageRatio*shift
}

// switchInto sells shift worth of base and buys the step target at close,
// opening a lot for step idx. The shift is capped at the base value held.
func (e *Engine) switchInto(i, idx int, shift float64, cause model.EntryCause, reason string) bool {
	step := e.steps[idx]
	date := e.table.Dates[i]
	base := e.cfg.Base
	basePrice := e.table.Close(base, i)
	targetPrice := e.table.Close(step.Ticker, i)
	if basePrice <= 0 || targetPrice <= 0 {
		return false
	}
	shift = math.Min(shift, e.holdings[base]*basePrice)
	if shift <= 0 {
		return false
	}

	e.reduce(base, shift/basePrice)
	shares := shift / targetPrice
	e.holdings[step.Ticker] += shares

	id := len(e.lots)
	e.lots = append(e.lots, model.Lot{
		Ticker:     step.Ticker,
		Shares:     shares,
		EntryPrice: targetPrice,
		StepIdx:    idx,
		EntryDate:  date,
		Cost:       shift,
		Cause:      cause,
	})
	e.open = append(e.open, id)
	e.stepLot[idx] = id
	e.buys.add(date)
	e.lastBuy = date
	e.stats[idx].For(cause).Count++

	action, drop := model.ActionSwitch, step.DropPct
	if cause == model.CauseForce {
		action, drop = model.ActionForceBuy, 0
	}
	e.trades = append(e.trades, model.Trade{
		Date:    date,
		Action:  action,
		From:    base,
		Ticker:  step.Ticker,
		Shares:  shares,
		Price:   targetPrice,
		Value:   shift,
		Reason:  reason,
		StepIdx: idx,
		DropPct: drop,
	})
	return true
}

// reduce lowers a holding, absorbing float residue below zero.
func (e *Engine) reduce(symbol string, shares float64) {
	h := e.holdings[symbol] - shares
	if h < 0 {
		h = 0
	}
	e.holdings[symbol] = h
}

func bufferNote(pct, cash float64) string {
	if pct <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%g%% cash buffer: $%s)", pct, humanize.Comma(int64(math.Round(cash))))
}

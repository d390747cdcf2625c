package strategy

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"LeverageLab/internal/calculator"
	"LeverageLab/internal/model"
)

var (
	// ErrMissingColumn is returned when the price table lacks a series the run needs.
	ErrMissingColumn = errors.New("price table is missing a required series")
	// ErrAlreadyRun is returned when Run is called twice on one Engine.
	ErrAlreadyRun = errors.New("engine has already run")
)

const (
	// coverageRatio is the share of a shift the held base value must cover.
	coverageRatio = 0.9
	// rebalanceSlack is the excess over target cash, relative to the target,
	// tolerated before a rebalance.
	rebalanceSlack = 0.1
	// noLot marks an inactive step.
	noLot = -1
)

// Engine runs one day-by-day simulation of the drawdown ladder strategy.
// An Engine is single-use and not safe for concurrent use.
type Engine struct {
	cfg     model.StrategyConfig
	table   *model.PriceTable
	steps   []model.Step
	symbols []string

	cash     float64
	holdings map[string]float64
	bhShares float64

	lots    []model.Lot // arena, append-only during a run
	open    []int       // arena indices of open lots in opening order
	stepLot []int       // per step: arena index of its open lot, or noLot
	stats   []model.StepStats

	buys       buyHistory
	lastBuy    time.Time
	trend      *trendFilter
	liquidated bool
	buyPaused  bool
	lastPeak   float64

	rebalanceCount int
	rebalanceTotal float64

	daily    []model.DailyRecord
	trades   []model.Trade
	warnings []string
	done     bool
}

// New validates cfg against table and prepares an Engine.
func New(cfg model.StrategyConfig, table *model.PriceTable) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("%w: price table is empty", ErrMissingColumn)
	}
	if len(table.Peak) != table.Len() {
		return nil, fmt.Errorf("%w: peak series has %d values for %d days", ErrMissingColumn, len(table.Peak), table.Len())
	}
	symbols := cfg.Instruments()
	for _, s := range symbols {
		if !table.Has(s) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, s)
		}
	}

	steps := append([]model.Step(nil), cfg.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Trigger() < steps[j].Trigger() })

	e := &Engine{
		cfg:      cfg,
		table:    table,
		steps:    steps,
		symbols:  symbols,
		holdings: make(map[string]float64, len(symbols)),
		stepLot:  make([]int, len(steps)),
		stats:    make([]model.StepStats, len(steps)),
		lastBuy:  cfg.Start,
	}
	for i := range e.stepLot {
		e.stepLot[i] = noLot
	}
	for _, s := range symbols {
		e.holdings[s] = 0
	}
	if e.lastBuy.IsZero() {
		e.lastBuy = table.Dates[0]
	}
	if cfg.Trend.Enabled {
		tf, err := newTrendFilter(cfg.Trend)
		if err != nil {
			return nil, err
		}
		e.trend = tf
	}
	return e, nil
}

// Run simulates cfg over table with a fresh Engine.
func Run(cfg model.StrategyConfig, table *model.PriceTable) (*model.RunResult, error) {
	e, err := New(cfg, table)
	if err != nil {
		return nil, err
	}
	return e.Run()
}

// Run executes the simulation over every day of the price table.
func (e *Engine) Run() (*model.RunResult, error) {
	if e.done {
		return nil, ErrAlreadyRun
	}
	e.done = true

	e.initialize()
	for i := range e.table.Dates {
		e.simulateDay(i)
	}
	e.finalize()

	return &model.RunResult{
		Config:         e.cfg,
		Steps:          e.steps,
		Instruments:    e.symbols,
		Daily:          e.daily,
		Trades:         e.trades,
		StepStats:      e.stats,
		RebalanceCount: e.rebalanceCount,
		RebalanceTotal: e.rebalanceTotal,
		Warnings:       e.warnings,
	}, nil
}

func (e *Engine) initialize() {
	base := e.cfg.Base
	date := e.table.Dates[0]
	p0 := e.table.Close(base, 0)
	e.lastPeak = 1
	if bar, ok := e.table.Bar(base, 0); ok && p0 > 0 && bar.High > 0 {
		e.lastPeak = bar.High
	}

	e.cash = e.cfg.Capital * e.cfg.CashBufferPct / 100
	if p0 <= 0 {
		e.cash = e.cfg.Capital
		e.warn(fmt.Sprintf("%s close on %s is %v, initial entry skipped", base, date.Format("2006-01-02"), p0))
		return
	}

	invest := e.cfg.Capital - e.cash
	shares := invest / p0
	e.holdings[base] += shares
	e.bhShares = e.cfg.Capital / p0
	e.trades = append(e.trades, model.Trade{
		Date:    date,
		Action:  model.ActionInitBuy,
		Ticker:  base,
		Shares:  shares,
		Price:   p0,
		Value:   invest,
		Reason:  "Initial Entry" + bufferNote(e.cfg.CashBufferPct, e.cash),
		StepIdx: model.NoStep,
	})
}

// simulateDay applies the fixed per-day order: regime check, drawdown,
// valuation, exits, entries, record.
func (e *Engine) simulateDay(i int) {
	price := e.table.Close(e.cfg.Base, i)

	if e.trend != nil {
		if ma, ok := e.trend.push(price); ok {
			e.applyRegime(i, price, ma)
		}
	}
	if e.liquidated {
		e.record(i, 0, e.lastPeak, e.portfolioValue(i))
		return
	}

	dd, peak := calculator.Drawdown(e.table.Peak[i], price)
	e.lastPeak = peak
	value := e.portfolioValue(i)

	e.processExits(i)
	if !e.buyPaused && !e.forcedEntry(i, value) {
		e.drawdownEntries(i, dd, value)
	}
	e.record(i, dd, peak, value)
}

func (e *Engine) finalize() {
	last := e.table.Len() - 1
	date := e.table.Dates[last]
	for _, id := range e.open {
		lot := e.lots[id]
		price := e.table.Close(lot.Ticker, last)
		if price <= 0 {
			continue
		}
		val := lot.Shares * price
		e.trades = append(e.trades, model.Trade{
			Date:      date,
			Action:    model.ActionHolding,
			Ticker:    lot.Ticker,
			Shares:    lot.Shares,
			Price:     price,
			Value:     val,
			Reason:    "Open Position",
			StepIdx:   lot.StepIdx,
			DropPct:   e.steps[lot.StepIdx].DropPct,
			ProfitAmt: val - lot.Cost,
			ProfitPct: calculator.PercentChange(lot.EntryPrice, price),
			BuyDate:   lot.EntryDate,
			DaysHeld:  daysBetween(lot.EntryDate, date),
		})
	}
}

// record stores day i. value is the mark taken before the day's trades and
// is the denominator for holding weights; cash and shares are end of day.
func (e *Engine) record(i int, dd, peak, value float64) {
	bar, _ := e.table.Bar(e.cfg.Base, i)
	rec := model.DailyRecord{
		Date:           e.table.Dates[i],
		Open:           bar.Open,
		High:           bar.High,
		Low:            bar.Low,
		Close:          bar.Close,
		Peak:           peak,
		Drawdown:       dd,
		PortfolioValue: value,
		BuyHoldValue:   e.bhShares * bar.Close,
		Cash:           e.cash,
		Holdings:       make([]model.Holding, 0, len(e.symbols)),
	}
	for _, s := range e.symbols {
		p := e.table.Close(s, i)
		h := model.Holding{Symbol: s, Price: p, Shares: e.holdings[s], Value: e.holdings[s] * p}
		if value > 0 {
			h.WeightPct = h.Value / value * 100
		}
		rec.Holdings = append(rec.Holdings, h)
	}
	e.daily = append(e.daily, rec)
}

func (e *Engine) portfolioValue(i int) float64 {
	v := e.cash
	for _, s := range e.symbols {
		v += e.holdings[s] * e.table.Close(s, i)
	}
	return v
}

func (e *Engine) warn(msg string) {
	log.Printf("[WARN] %s", msg)
	e.warnings = append(e.warnings, msg)
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return calculator.InclusiveDays(a, b) - 1
}

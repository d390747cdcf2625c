package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"LeverageLab/internal/calculator"
	"LeverageLab/internal/model"
	"LeverageLab/internal/observability"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoData is returned when the provider has nothing for a symbol.
	ErrNoData = errors.New("no price data returned")
	// ErrEmptyWindow is returned when no trading day falls inside the run window.
	ErrEmptyWindow = errors.New("no trading days in the requested window")
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, from, to time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		var out []model.OHLCV
		for _, b := range m.Bars[symbol] {
			d := dateOf(b.Time)
			if !d.Before(dateOf(from)) && !d.After(dateOf(to)) {
				out = append(out, b)
			}
		}
		return out, nil
	}
	return generateMockBars(m.Price, from, to), nil
}

// generateMockBars produces a gently rising weekday series.
func generateMockBars(basePrice float64, from, to time.Time) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := dateOf(from); !d.After(dateOf(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i)*0.001)
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// Collector builds the aligned price table a simulation runs on.
type Collector struct {
	Fetcher     Fetcher
	WarmupDays  int // calendar days fetched before the start date
	Concurrency int
	Metrics     *observability.Metrics
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, WarmupDays: 365, Concurrency: 4}
}

// Collect fetches every symbol, aligns them on common dates, computes the
// base peak over the warm-up history and slices the table to [start, end].
// A zero end keeps everything after start.
func (c *Collector) Collect(ctx context.Context, base string, symbols []string, start, end time.Time) (*model.PriceTable, error) {
	symbols = withBase(base, symbols)
	from := start.AddDate(0, 0, -c.WarmupDays)
	to := end
	if to.IsZero() {
		to = time.Now()
	}

	raw := make([][]model.OHLCV, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for i, s := range symbols {
		g.Go(func() error {
			t0 := time.Now()
			bars, err := c.Fetcher.FetchDailyBars(gctx, s, from, to)
			c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(t0))
			if err != nil {
				return fmt.Errorf("fetch %s from %s: %w", s, c.Fetcher.Name(), err)
			}
			if len(bars) == 0 {
				return fmt.Errorf("%w: %s", ErrNoData, s)
			}
			raw[i] = bars
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[string][]model.OHLCV, len(symbols))
	for i, s := range symbols {
		series[s] = raw[i]
		log.Printf("[INFO] fetched %d daily bars for %s", len(raw[i]), s)
	}
	table, err := Align(base, symbols, series)
	if err != nil {
		return nil, err
	}
	return Slice(table, start, end)
}

// Align joins per-symbol bars on the union of their dates, forward-fills
// gaps and drops leading days where any symbol has no history yet. Peak is
// the rolling PeakWindow-session high of base.
func Align(base string, symbols []string, series map[string][]model.OHLCV) (*model.PriceTable, error) {
	symbols = withBase(base, symbols)
	seen := make(map[time.Time]bool)
	byDate := make(map[string]map[time.Time]model.OHLCV, len(symbols))
	for _, s := range symbols {
		bars, ok := series[s]
		if !ok || len(bars) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoData, s)
		}
		m := make(map[time.Time]model.OHLCV, len(bars))
		for _, b := range bars {
			d := dateOf(b.Time)
			b.Time = d
			m[d] = b
			seen[d] = true
		}
		byDate[s] = m
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	filled := make(map[string][]model.OHLCV, len(symbols))
	first := 0
	for _, s := range symbols {
		out := make([]model.OHLCV, len(dates))
		var last model.OHLCV
		have := false
		for i, d := range dates {
			if b, ok := byDate[s][d]; ok {
				last, have = b, true
			} else if !have {
				if i+1 > first {
					first = i + 1
				}
				continue
			}
			out[i] = last
			out[i].Time = d
		}
		filled[s] = out
	}
	if first >= len(dates) {
		return nil, fmt.Errorf("%w: symbols share no common history", ErrNoData)
	}

	table := &model.PriceTable{
		Base:    base,
		Symbols: symbols,
		Dates:   dates[first:],
		Bars:    make(map[string][]model.OHLCV, len(symbols)),
	}
	for _, s := range symbols {
		table.Bars[s] = filled[s][first:]
	}
	peak, err := calculator.RollingHigh(table.Bars[base], calculator.PeakWindow)
	if err != nil {
		return nil, fmt.Errorf("peak: %w", err)
	}
	table.Peak = peak
	return table, nil
}

// Slice keeps the days of t within [start, end]. Zero bounds are open.
func Slice(t *model.PriceTable, start, end time.Time) (*model.PriceTable, error) {
	lo, hi := 0, t.Len()
	if !start.IsZero() {
		s := dateOf(start)
		for lo < hi && t.Dates[lo].Before(s) {
			lo++
		}
	}
	if !end.IsZero() {
		e := dateOf(end)
		for hi > lo && t.Dates[hi-1].After(e) {
			hi--
		}
	}
	if lo >= hi {
		return nil, fmt.Errorf("%w: %s to %s", ErrEmptyWindow, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	out := &model.PriceTable{
		Base:    t.Base,
		Symbols: t.Symbols,
		Dates:   t.Dates[lo:hi],
		Bars:    make(map[string][]model.OHLCV, len(t.Bars)),
		Peak:    t.Peak[lo:hi],
	}
	for s, bars := range t.Bars {
		out.Bars[s] = bars[lo:hi]
	}
	return out, nil
}

func withBase(base string, symbols []string) []string {
	out := []string{base}
	for _, s := range symbols {
		if s != base {
			out = append(out, s)
		}
	}
	return out
}

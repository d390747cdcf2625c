package strategy

import (
	"math"
	"testing"
	"time"

	"LeverageLab/internal/model"
)

var day0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func flat(price float64, n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{Open: price, High: price, Low: price, Close: price}
	}
	return bars
}

func closes(prices ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(prices))
	for i, p := range prices {
		bars[i] = model.OHLCV{Open: p, High: p, Low: p, Close: p}
	}
	return bars
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// newTable builds a table on consecutive calendar days starting at day0.
func newTable(base string, peak []float64, series map[string][]model.OHLCV) *model.PriceTable {
	t := &model.PriceTable{Base: base, Bars: series, Peak: peak}
	for i := range peak {
		t.Dates = append(t.Dates, day0.AddDate(0, 0, i))
	}
	for s := range series {
		t.Symbols = append(t.Symbols, s)
	}
	return t
}

func baseConfig(steps ...model.Step) model.StrategyConfig {
	return model.StrategyConfig{
		Base:     "BASE",
		Adds:     []string{"X"},
		Capital:  10000,
		Start:    day0,
		ExitMode: model.ExitLimit,
		Steps:    steps,
	}
}

func mustRun(t *testing.T, cfg model.StrategyConfig, table *model.PriceTable) (*Engine, *model.RunResult) {
	t.Helper()
	e, err := New(cfg, table)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	res, err := e.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return e, res
}

func tradesOf(res *model.RunResult, action model.Action) []model.Trade {
	var out []model.Trade
	for _, tr := range res.Trades {
		if tr.Action == action {
			out = append(out, tr)
		}
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceTable is a date-aligned set of daily bars for every instrument of a run.
// Bars[symbol][i] belongs to Dates[i] for every symbol.
type PriceTable struct {
	Base    string
	Symbols []string
	Dates   []time.Time
	Bars    map[string][]OHLCV
	Peak    []float64 // rolling 252-session high of the base instrument
}

// Len returns the number of trading days in the table.
func (t *PriceTable) Len() int { return len(t.Dates) }

// Has reports whether the table carries a full series for symbol.
func (t *PriceTable) Has(symbol string) bool {
	bars, ok := t.Bars[symbol]
	return ok && len(bars) == len(t.Dates)
}

// Bar returns the bar for symbol on day i.
func (t *PriceTable) Bar(symbol string, i int) (OHLCV, bool) {
	bars, ok := t.Bars[symbol]
	if !ok || i < 0 || i >= len(bars) {
		return OHLCV{}, false
	}
	return bars[i], true
}

// Close returns the close of symbol on day i, or 0 when there is none.
func (t *PriceTable) Close(symbol string, i int) float64 {
	b, _ := t.Bar(symbol, i)
	return b.Close
}

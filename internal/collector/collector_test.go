package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"LeverageLab/internal/model"
)

func d(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }

func bar(day int, high, close float64) model.OHLCV {
	return model.OHLCV{Time: d(day), Open: close, High: high, Low: close, Close: close}
}

func TestAlign_ForwardFillAndLeadingGap(t *testing.T) {
	series := map[string][]model.OHLCV{
		"QQQ":  {bar(2, 101, 100), bar(3, 103, 102), bar(4, 105, 104), bar(5, 102, 101)},
		"TQQQ": {bar(3, 51, 50), bar(5, 53, 52)},
	}
	table, err := Align("QQQ", []string{"TQQQ"}, series)
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 3 || !table.Dates[0].Equal(d(3)) {
		t.Fatalf("expected 3 days starting Jan 3, got %v", table.Dates)
	}
	if got := table.Close("TQQQ", 1); got != 50 {
		t.Errorf("Jan 4 should be forward-filled from Jan 3, got %v", got)
	}
	if !table.Bars["TQQQ"][1].Time.Equal(d(4)) {
		t.Errorf("filled bar should carry its own date, got %v", table.Bars["TQQQ"][1].Time)
	}
	wantPeak := []float64{103, 105, 105}
	for i, w := range wantPeak {
		if table.Peak[i] != w {
			t.Errorf("peak[%d]: got %v, want %v", i, table.Peak[i], w)
		}
	}
	if table.Symbols[0] != "QQQ" {
		t.Errorf("base should lead the symbol list, got %v", table.Symbols)
	}
}

func TestAlign_NoCommonHistory(t *testing.T) {
	_, err := Align("QQQ", nil, map[string][]model.OHLCV{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("got %v", err)
	}
}

func TestCollect_PeakUsesWarmupHistory(t *testing.T) {
	f := &MockFetcher{Bars: map[string][]model.OHLCV{
		"QQQ": {bar(2, 200, 190), bar(8, 101, 100), bar(9, 102, 101), bar(10, 103, 102)},
		"SSO": {bar(2, 50, 50), bar(8, 50, 50), bar(9, 51, 51), bar(10, 52, 52)},
	}}
	c := NewCollector(f)
	table, err := c.Collect(context.Background(), "QQQ", []string{"SSO"}, d(8), d(9))
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected the window Jan 8-9, got %v", table.Dates)
	}
	if table.Peak[0] != 200 || table.Peak[1] != 200 {
		t.Errorf("peak should include pre-start highs, got %v", table.Peak)
	}
}

func TestCollect_Errors(t *testing.T) {
	ctx := context.Background()

	missing := &MockFetcher{Bars: map[string][]model.OHLCV{"QQQ": {bar(2, 1, 1)}}}
	if _, err := NewCollector(missing).Collect(ctx, "QQQ", []string{"NOPE"}, d(2), d(3)); !errors.Is(err, ErrNoData) {
		t.Errorf("missing symbol: got %v", err)
	}

	early := &MockFetcher{Bars: map[string][]model.OHLCV{"QQQ": {bar(2, 1, 1), bar(3, 1, 1)}}}
	if _, err := NewCollector(early).Collect(ctx, "QQQ", nil, d(20), d(25)); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("empty window: got %v", err)
	}

	boom := errors.New("boom")
	if _, err := NewCollector(&MockFetcher{Err: boom}).Collect(ctx, "QQQ", nil, d(2), d(3)); !errors.Is(err, boom) {
		t.Errorf("fetch failure: got %v", err)
	}
}

func TestMockFetcher_GeneratesWeekdays(t *testing.T) {
	f := &MockFetcher{Price: 100}
	bars, err := f.FetchDailyBars(context.Background(), "QQQ", d(1), d(14))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 10 {
		t.Errorf("expected 10 weekdays in Jan 1-14 2024, got %d", len(bars))
	}
}

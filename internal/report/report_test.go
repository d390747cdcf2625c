package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"LeverageLab/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func sampleRun() *model.RunResult {
	return &model.RunResult{
		Config:      model.StrategyConfig{Base: "QQQ"},
		Instruments: []string{"QQQ", "TQQQ"},
		Daily: []model.DailyRecord{{
			Date: day, Open: 100, High: 101, Low: 99, Close: 100, Peak: 100,
			PortfolioValue: 10000, BuyHoldValue: 10000, Cash: 0,
			Holdings: []model.Holding{
				{Symbol: "QQQ", Price: 100, Shares: 100, Value: 10000, WeightPct: 100},
				{Symbol: "TQQQ", Price: 50},
			},
		}},
		Trades: []model.Trade{
			{Date: day, Action: model.ActionInitBuy, Ticker: "QQQ", Shares: 100, Price: 100, Value: 10000, StepIdx: model.NoStep},
			{Date: day, Action: model.ActionSwitch, From: "QQQ", Ticker: "TQQQ", Shares: 20, Price: 50, Value: 1000, StepIdx: 0, DropPct: -5},
			{Date: day, Action: model.ActionSkip, Ticker: "TQQQ", StepIdx: 1, Reason: "Max Buys Limit Reached"},
			{Date: day.AddDate(0, 0, 3), Action: model.ActionProfitDrop, Ticker: "TQQQ", Shares: 20, Price: 55,
				Value: 1100, StepIdx: 0, ProfitAmt: 100, ProfitPct: 10, BuyDate: day, DaysHeld: 3},
		},
	}
}

func TestWriteDaily(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDaily(&buf, sampleRun()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.DailyColumns([]string{"QQQ", "TQQQ"}), rows[0])
	assert.Equal(t, len(rows[0]), len(rows[1]))
	assert.Equal(t, "2024-03-04", rows[1][0])
	assert.Equal(t, "10000", rows[1][7])
	assert.Equal(t, "50", rows[1][14])
}

func TestWriteTradesSkips(t *testing.T) {
	res := sampleRun()

	var buf bytes.Buffer
	require.NoError(t, WriteTrades(&buf, res.Trades, false))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "QQQ->TQQQ", rows[2][2])
	assert.Equal(t, "", rows[1][7], "init buy has no step")
	assert.Equal(t, "1", rows[2][7])
	assert.Equal(t, "2024-03-04", rows[3][11])
	assert.Equal(t, "3", rows[3][12])

	buf.Reset()
	require.NoError(t, WriteTrades(&buf, res.Trades, true))
	rows, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := Export(dir, sampleRun())
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "daily_qqq.csv"), paths[0])
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$10,000", Money(10000))
	assert.Equal(t, "-$2,500.5", Money(-2500.5))
	assert.Equal(t, "$0", Money(0))
}

func TestActivity(t *testing.T) {
	got := Activity(sampleRun().Trades)
	require.Len(t, got, 2)
	assert.Equal(t, InstrumentActivity{Ticker: "TQQQ", Trades: 2, TotalProfit: 100, AvgProfitPct: 10}, got[0])
	assert.Equal(t, InstrumentActivity{Ticker: "QQQ", Trades: 1}, got[1])
}

func TestTextRendering(t *testing.T) {
	s := &model.Summary{Base: "QQQ", Start: day, End: day.AddDate(1, 0, 0), Days: 367,
		InitialCapital: 10000, FinalValue: 12500, TotalReturnPct: 25, CAGRPct: 24.9, MDDPct: -12,
		TradeCount: 7, CashBufferPct: 10, FinalCash: 1250, RebalanceCount: 2, RebalanceTotal: 300}
	out := Summary(s)
	assert.Contains(t, out, "QQQ backtest 2024-03-04 ~ 2025-03-04")
	assert.Contains(t, out, "$12,500")
	assert.Contains(t, out, "2 rebalances")

	a := &model.AnnualReport{
		Years: []model.YearStat{{Year: 2024, ReturnPct: 25}},
		Total: model.TotalStat{Label: "Total", ReturnPct: 25, CAGRPct: 24.9},
	}
	assert.Contains(t, Annual(a), "25.00% (24.90%)")

	steps := Steps([]model.StepMetric{{Index: 1, DropPct: -5, ShiftPct: 10, Ticker: "TQQQ", ProfitPct: 10, DropBuys: 2}})
	assert.Equal(t, 2, strings.Count(steps, "\n"))
	assert.Contains(t, steps, "TQQQ")

	assert.Equal(t, "no recorded runs\n", History(nil))
	hist := History([]model.RunRecord{{
		ID:        "0123456789abcdef",
		Timestamp: time.Now(),
		Params:    []model.Field{{Key: "BaseTicker", Value: "QQQ"}},
		Metrics:   model.RunMetrics{CAGRPct: 12.34},
	}})
	assert.Contains(t, hist, "01234567")
	assert.NotContains(t, hist, "89abcdef")
	assert.Contains(t, hist, "12.34%")
}

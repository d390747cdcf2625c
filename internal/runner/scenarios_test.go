package runner

import (
	"testing"
	"time"

	"LeverageLab/internal/config"
	"LeverageLab/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStepLists(t *testing.T) {
	tests := []struct {
		name                            string
		drops, shifts, tickers, profits string
		want                            []model.Step
	}{
		{
			name:  "pads shorter columns with their last value",
			drops: "-5,-10", shifts: "10", tickers: "TQQQ, SOXL ,UPRO", profits: "",
			want: []model.Step{
				{DropPct: -5, ShiftPct: 10, Ticker: "TQQQ", ProfitPct: 5},
				{DropPct: -10, ShiftPct: 10, Ticker: "SOXL", ProfitPct: 5},
				{DropPct: -10, ShiftPct: 10, Ticker: "UPRO", ProfitPct: 5},
			},
		},
		{
			name: "all empty gives one default step",
			want: []model.Step{{DropPct: -5, ShiftPct: 10, Ticker: "SSO", ProfitPct: 5}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStepLists(tt.drops, tt.shifts, tt.tickers, tt.profits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseStepLists("-5,abc", "10", "TQQQ", "5")
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestParseScenarios(t *testing.T) {
	base := config.DefaultStrategy()
	base.BaseTicker = "SPY"
	base.StartDate = "2023-01-01"
	base.EndDate = "2023-12-31"
	defaults := config.DefaultSteps()

	doc := []byte(`
scenarios:
  - name: baseline
  - cash_buffer_pct: 15
    sell_mode: close
    step_drops: "-3,-6"
    step_shifts: "25"
    step_tickers: "UPRO"
    step_profits: "8"
`)
	got, err := ParseScenarios(doc, base, defaults, time.Now())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "baseline", got[0].Name)
	assert.Equal(t, "SPY", got[0].Config.Base)
	assert.Equal(t, defaults, got[0].Config.Steps)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), got[0].Config.Start)

	assert.Equal(t, "Scenario 2", got[1].Name)
	assert.Equal(t, "SPY", got[1].Config.Base)
	assert.Equal(t, 15.0, got[1].Config.CashBufferPct)
	assert.Equal(t, model.ExitClose, got[1].Config.ExitMode)
	assert.Equal(t, []model.Step{
		{DropPct: -3, ShiftPct: 25, Ticker: "UPRO", ProfitPct: 8},
		{DropPct: -6, ShiftPct: 25, Ticker: "UPRO", ProfitPct: 8},
	}, got[1].Config.Steps)
}

func TestParseScenariosInvalid(t *testing.T) {
	base := config.DefaultStrategy()
	_, err := ParseScenarios([]byte("scenarios:\n  - sell_mode: market\n"), base, config.DefaultSteps(), time.Now())
	assert.ErrorIs(t, err, model.ErrInvalidConfig)

	_, err = ParseScenarios([]byte("scenarios: [\n"), base, nil, time.Now())
	assert.Error(t, err)
}

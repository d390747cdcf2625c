package config

import (
	"fmt"
	"strings"
	"time"

	"LeverageLab/internal/model"
)

const dateLayout = "2006-01-02"

// StrategySection is the YAML form of a backtest configuration.
type StrategySection struct {
	BaseTicker     string  `yaml:"base_ticker"`
	AddTickers     string  `yaml:"add_tickers"` // comma separated
	InitialCapital float64 `yaml:"initial_capital"`
	StartDate      string  `yaml:"start_date"` // empty means one year before today
	EndDate        string  `yaml:"end_date"`   // empty means today
	SellMode       string  `yaml:"sell_mode"`
	CashBufferPct  float64 `yaml:"cash_buffer_pct"`
	UseMAFilter    bool    `yaml:"use_ma_filter"`
	MAMode         string  `yaml:"ma_mode"`
	MAPeriod       int     `yaml:"ma_period"`
	MaxBuysDay     int     `yaml:"max_buys_day"`
	MaxBuysWeek    int     `yaml:"max_buys_week"`
	ForceBuyDays   int     `yaml:"force_buy_days"`
	StepsFile      string  `yaml:"steps_file"`
}

func (s *StrategySection) applyDefaults() {
	if s.BaseTicker == "" {
		s.BaseTicker = "QQQ"
	}
	if s.AddTickers == "" {
		s.AddTickers = "TQQQ"
	}
	if s.InitialCapital == 0 {
		s.InitialCapital = 10000
	}
	if s.SellMode == "" {
		s.SellMode = string(model.ExitLimit)
	}
	if s.MAMode == "" {
		s.MAMode = string(model.TrendDefensive)
	}
	if s.MAPeriod == 0 {
		s.MAPeriod = 200
	}
	if s.StepsFile == "" {
		s.StepsFile = "data/steps_config.csv"
	}
}

// Build turns the section into a validated strategy configuration. Empty
// dates are resolved against now.
func (s StrategySection) Build(steps []model.Step, now time.Time) (model.StrategyConfig, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start, err := parseDate(s.StartDate, today.AddDate(-1, 0, 0))
	if err != nil {
		return model.StrategyConfig{}, fmt.Errorf("%w: start_date: %v", model.ErrInvalidConfig, err)
	}
	end, err := parseDate(s.EndDate, today)
	if err != nil {
		return model.StrategyConfig{}, fmt.Errorf("%w: end_date: %v", model.ErrInvalidConfig, err)
	}

	cfg := model.StrategyConfig{
		Base:          strings.TrimSpace(s.BaseTicker),
		Adds:          SplitList(s.AddTickers),
		Capital:       s.InitialCapital,
		Start:         start,
		End:           end,
		ExitMode:      model.ExitMode(strings.ToLower(strings.TrimSpace(s.SellMode))),
		CashBufferPct: s.CashBufferPct,
		Trend: model.TrendFilter{
			Enabled: s.UseMAFilter,
			Mode:    model.TrendMode(strings.ToLower(strings.TrimSpace(s.MAMode))),
			Period:  s.MAPeriod,
		},
		MaxBuysDay:   s.MaxBuysDay,
		MaxBuysWeek:  s.MaxBuysWeek,
		ForceBuyDays: s.ForceBuyDays,
		Steps:        append([]model.Step(nil), steps...),
	}
	if err := cfg.Validate(); err != nil {
		return model.StrategyConfig{}, err
	}
	return cfg, nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDate(s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	// tolerate "2024-01-02 00:00:00"
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	return time.Parse(dateLayout, s)
}

// DefaultStrategy returns a strategy section with every default applied.
func DefaultStrategy() StrategySection {
	var s StrategySection
	s.applyDefaults()
	return s
}

// BuildStrategy loads the steps file and builds the configured strategy for
// a run started at now.
func (c *Config) BuildStrategy(now time.Time) (model.StrategyConfig, error) {
	steps, err := LoadSteps(c.Strategy.StepsFile)
	if err != nil {
		return model.StrategyConfig{}, err
	}
	return c.Strategy.Build(steps, now)
}

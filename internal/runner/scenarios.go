package runner

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"LeverageLab/internal/config"
	"LeverageLab/internal/model"

	"gopkg.in/yaml.v3"
)

// Scenario is one named configuration of a batch run.
type Scenario struct {
	Name   string
	Config model.StrategyConfig
}

// scenarioEntry is the YAML form of a scenario. Unset strategy keys inherit
// from the configured strategy section.
type scenarioEntry struct {
	Name                   string `yaml:"name"`
	config.StrategySection `yaml:",inline"`
	StepDrops              string `yaml:"step_drops"`
	StepShifts             string `yaml:"step_shifts"`
	StepTickers            string `yaml:"step_tickers"`
	StepProfits            string `yaml:"step_profits"`
}

// LoadScenarios reads a scenario file.
func LoadScenarios(path string, base config.StrategySection, steps []model.Step, now time.Time) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	return ParseScenarios(data, base, steps, now)
}

// ParseScenarios decodes a scenario document of the form
//
//	scenarios:
//	  - name: aggressive
//	    cash_buffer_pct: 10
//	    step_drops: "-5,-10,-20"
//	    step_shifts: "20"
//
// Scenarios without step columns use steps.
func ParseScenarios(data []byte, base config.StrategySection, steps []model.Step, now time.Time) ([]Scenario, error) {
	var doc struct {
		Scenarios []yaml.Node `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}

	out := make([]Scenario, 0, len(doc.Scenarios))
	for i, node := range doc.Scenarios {
		entry := scenarioEntry{StrategySection: base}
		if err := node.Decode(&entry); err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i+1, err)
		}
		if entry.Name == "" {
			entry.Name = fmt.Sprintf("Scenario %d", i+1)
		}

		scSteps := steps
		if entry.StepDrops != "" || entry.StepShifts != "" || entry.StepTickers != "" || entry.StepProfits != "" {
			parsed, err := ParseStepLists(entry.StepDrops, entry.StepShifts, entry.StepTickers, entry.StepProfits)
			if err != nil {
				return nil, fmt.Errorf("scenario %q: %w", entry.Name, err)
			}
			scSteps = parsed
		}
		cfg, err := entry.Build(scSteps, now)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", entry.Name, err)
		}
		out = append(out, Scenario{Name: entry.Name, Config: cfg})
	}
	return out, nil
}

// Column fallbacks when a step list is left empty.
const (
	defaultStepDrop   = -5.0
	defaultStepShift  = 10.0
	defaultStepTicker = "SSO"
	defaultStepProfit = 5.0
)

// ParseStepLists builds a ladder from four comma separated columns. The
// ladder is as long as the longest column; shorter columns repeat their
// last value.
func ParseStepLists(drops, shifts, tickers, profits string) ([]model.Step, error) {
	d, err := floatList("drops", drops, defaultStepDrop)
	if err != nil {
		return nil, err
	}
	s, err := floatList("shifts", shifts, defaultStepShift)
	if err != nil {
		return nil, err
	}
	p, err := floatList("profits", profits, defaultStepProfit)
	if err != nil {
		return nil, err
	}
	t := config.SplitList(tickers)
	if len(t) == 0 {
		t = []string{defaultStepTicker}
	}

	n := max(len(d), len(s), len(t), len(p))
	out := make([]model.Step, n)
	for i := range out {
		out[i] = model.Step{
			DropPct:   at(d, i),
			ShiftPct:  at(s, i),
			Ticker:    at(t, i),
			ProfitPct: at(p, i),
		}
	}
	return out, nil
}

func floatList(name, s string, def float64) ([]float64, error) {
	parts := config.SplitList(s)
	if len(parts) == 0 {
		return []float64{def}, nil
	}
	out := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: step %s value %d %q is not a number", model.ErrInvalidConfig, name, i+1, part)
		}
		out[i] = v
	}
	return out, nil
}

// at returns xs[i], or the last element when i is past the end.
func at[T any](xs []T, i int) T {
	if i < len(xs) {
		return xs[i]
	}
	return xs[len(xs)-1]
}

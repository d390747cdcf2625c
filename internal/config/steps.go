package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"LeverageLab/internal/model"
)

// stepsHeader is the column layout of the steps file.
var stepsHeader = []string{"Drop(%)", "Shift(%)", "Ticker", "Profit(%)"}

// DefaultSteps returns the ladder used when no steps file exists.
func DefaultSteps() []model.Step {
	return []model.Step{
		{DropPct: -5, ShiftPct: 10, Ticker: "SSO", ProfitPct: 5},
		{DropPct: -10, ShiftPct: 20, Ticker: "SSO", ProfitPct: 5},
		{DropPct: -15, ShiftPct: 30, Ticker: "SSO", ProfitPct: 5},
		{DropPct: -20, ShiftPct: 40, Ticker: "UPRO", ProfitPct: 10},
		{DropPct: -25, ShiftPct: 50, Ticker: "UPRO", ProfitPct: 10},
		{DropPct: -30, ShiftPct: 50, Ticker: "UPRO", ProfitPct: 10},
		{DropPct: -50, ShiftPct: 50, Ticker: "UPRO", ProfitPct: 10},
	}
}

// StepRowError reports an invalid row of a steps file. Row is 1-based and
// does not count the header.
type StepRowError struct {
	Row   int
	Field string
	Err   error
}

func (e *StepRowError) Error() string {
	return fmt.Sprintf("steps row %d, %s: %v", e.Row, e.Field, e.Err)
}

func (e *StepRowError) Unwrap() error { return e.Err }

// LoadSteps reads the steps file. A missing file yields DefaultSteps.
func LoadSteps(path string) ([]model.Step, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSteps(), nil
		}
		return nil, fmt.Errorf("open steps: %w", err)
	}
	defer f.Close()
	return ParseSteps(f)
}

// ParseSteps reads steps in CSV form. The header row is required.
func ParseSteps(r io.Reader) ([]model.Step, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("steps: missing header")
		}
		return nil, fmt.Errorf("steps header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cols := make([]int, len(stepsHeader))
	for i, name := range stepsHeader {
		c, ok := idx[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("steps header: missing column %q", name)
		}
		cols[i] = c
	}

	var steps []model.Step
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("steps row %d: %w", row, err)
		}
		if blank(rec) {
			continue
		}
		var s model.Step
		nums := []*float64{&s.DropPct, &s.ShiftPct, nil, &s.ProfitPct}
		for i, dst := range nums {
			cell := field(rec, cols[i])
			if dst == nil {
				s.Ticker = strings.TrimSpace(cell)
				if s.Ticker == "" {
					return nil, &StepRowError{Row: row, Field: stepsHeader[i], Err: errors.New("empty ticker")}
				}
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, &StepRowError{Row: row, Field: stepsHeader[i], Err: err}
			}
			*dst = v
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// SaveSteps writes steps to path in CSV form.
func SaveSteps(path string, steps []model.Step) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create steps dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create steps: %w", err)
	}
	w := csv.NewWriter(f)
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	_ = w.Write(stepsHeader)
	for _, s := range steps {
		_ = w.Write([]string{num(s.DropPct), num(s.ShiftPct), s.Ticker, num(s.ProfitPct)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write steps: %w", err)
	}
	return f.Close()
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

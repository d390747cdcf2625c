package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"LeverageLab/internal/model"
)

const dateLayout = "2006-01-02"

var tradeColumns = []string{"Date", "Action", "Ticker", "Shares", "Price", "Value", "Reason",
	"Step", "DropPct", "ProfitAmt", "ProfitPct", "BuyDate", "DaysHeld"}

// WriteDaily writes the daily record table as CSV. Columns follow
// model.DailyColumns for the run's instrument order.
func WriteDaily(w io.Writer, res *model.RunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.DailyColumns(res.Instruments)); err != nil {
		return err
	}
	for _, rec := range res.Daily {
		vals := rec.Values()
		row := make([]string, 0, len(vals)+1)
		row = append(row, rec.Date.Format(dateLayout))
		for _, v := range vals {
			row = append(row, num(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrades writes the trade log as CSV. Rejected entries are dropped
// unless withSkips is set.
func WriteTrades(w io.Writer, trades []model.Trade, withSkips bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeColumns); err != nil {
		return err
	}
	for _, t := range trades {
		if t.Action == model.ActionSkip && !withSkips {
			continue
		}
		step := ""
		if t.StepIdx != model.NoStep {
			step = strconv.Itoa(t.StepIdx + 1)
		}
		row := []string{
			t.Date.Format(dateLayout),
			string(t.Action),
			t.Instrument(),
			num(t.Shares),
			num(t.Price),
			num(t.Value),
			t.Reason,
			step,
			num(t.DropPct),
			num(t.ProfitAmt),
			num(t.ProfitPct),
			optDate(t.BuyDate),
			strconv.Itoa(t.DaysHeld),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes daily_<base>.csv and trades_<base>.csv into dir and returns
// the written paths.
func Export(dir string, res *model.RunResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	base := strings.ToLower(res.Config.Base)
	daily := filepath.Join(dir, "daily_"+base+".csv")
	trades := filepath.Join(dir, "trades_"+base+".csv")

	if err := writeFile(daily, func(w io.Writer) error { return WriteDaily(w, res) }); err != nil {
		return nil, err
	}
	if err := writeFile(trades, func(w io.Writer) error { return WriteTrades(w, res.Trades, true) }); err != nil {
		return nil, err
	}
	return []string{daily, trades}, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"LeverageLab/internal/model"

	"github.com/dustin/go-humanize"
)

// Money renders a dollar amount with thousands separators.
func Money(v float64) string {
	if v < 0 {
		return "-$" + humanize.CommafWithDigits(math.Abs(v), 2)
	}
	return "$" + humanize.CommafWithDigits(v, 2)
}

// Summary renders the headline statistics against buy-and-hold.
func Summary(s *model.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s backtest %s ~ %s (%d days)\n\n", s.Base,
		s.Start.Format(dateLayout), s.End.Format(dateLayout), s.Days)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tStrategy\tBuy & Hold")
	fmt.Fprintf(tw, "Final value\t%s\t%s\n", Money(s.FinalValue), Money(s.BHFinalValue))
	fmt.Fprintf(tw, "Total return\t%.2f%%\t%.2f%%\n", s.TotalReturnPct, s.BHReturnPct)
	fmt.Fprintf(tw, "CAGR\t%.2f%%\t%.2f%%\n", s.CAGRPct, s.BHCAGRPct)
	fmt.Fprintf(tw, "MDD\t%.2f%%\t%.2f%%\n", s.MDDPct, s.BHMDDPct)
	tw.Flush()

	fmt.Fprintf(&b, "\nInitial capital: %s\n", Money(s.InitialCapital))
	fmt.Fprintf(&b, "Trades: %d\n", s.TradeCount)
	if s.CashBufferPct > 0 {
		fmt.Fprintf(&b, "Cash buffer: %g%% (final cash %s, %d rebalances, %s)\n",
			s.CashBufferPct, Money(s.FinalCash), s.RebalanceCount, Money(s.RebalanceTotal))
	}
	return b.String()
}

// Annual renders the per-year table with its total row.
func Annual(a *model.AnnualReport) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Year\tReturn\tMDD\tB&H Return\tB&H MDD\tTrades\t")
	for _, y := range a.Years {
		fmt.Fprintf(tw, "%d\t%.2f%%\t%.2f%%\t%.2f%%\t%.2f%%\t%d\t\n",
			y.Year, y.ReturnPct, y.MDDPct, y.BHReturnPct, y.BHMDDPct, y.Trades)
	}
	t := a.Total
	fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%s\t%.2f%%\t%d\t\n",
		t.Label, t.Combined(), t.MDDPct, t.BHCombined(), t.BHMDDPct, t.Trades)
	tw.Flush()
	return b.String()
}

// Steps renders the per-step attribution table.
func Steps(steps []model.StepMetric) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Step\tDrop\tShift\tTicker\tTarget\tDROP\tFORCE\tDROP avg\tFORCE avg\tProfit\tContrib\t")
	for _, m := range steps {
		fmt.Fprintf(tw, "%d\t%g%%\t%g%%\t%s\t%g%%\t%d\t%d\t%.2f%%\t%.2f%%\t%s\t%.1f%%\t\n",
			m.Index, m.DropPct, m.ShiftPct, m.Ticker, m.ProfitPct, m.DropBuys, m.ForceBuys,
			m.DropAvgPct, m.ForceAvgPct, Money(m.TotalProfit), m.ContributionPct)
	}
	tw.Flush()
	return b.String()
}

// InstrumentActivity is the realized activity of one traded instrument.
type InstrumentActivity struct {
	Ticker       string
	Trades       int
	TotalProfit  float64
	AvgProfitPct float64
}

// Activity groups the executed trades by instrument. Only profit exits
// carry realized profit.
func Activity(trades []model.Trade) []InstrumentActivity {
	idx := map[string]*InstrumentActivity{}
	exits := map[string]int{}
	for _, t := range trades {
		if !t.Action.Counted() {
			continue
		}
		a, ok := idx[t.Ticker]
		if !ok {
			a = &InstrumentActivity{Ticker: t.Ticker}
			idx[t.Ticker] = a
		}
		a.Trades++
		if t.Action == model.ActionProfitDrop || t.Action == model.ActionProfitForce {
			a.TotalProfit += t.ProfitAmt
			a.AvgProfitPct += t.ProfitPct
			exits[t.Ticker]++
		}
	}
	out := make([]InstrumentActivity, 0, len(idx))
	for k, a := range idx {
		if n := exits[k]; n > 0 {
			a.AvgProfitPct /= float64(n)
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Trades != out[j].Trades {
			return out[i].Trades > out[j].Trades
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// History renders recorded runs, newest first.
func History(runs []model.RunRecord) string {
	if len(runs) == 0 {
		return "no recorded runs\n"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWhen\tBase\tPeriod\tFinal\tCAGR\tMDD\tTrades")
	for _, r := range runs {
		base, _ := r.Param("BaseTicker")
		start, _ := r.Param("StartDate")
		end, _ := r.Param("EndDate")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s~%s\t%s\t%.2f%%\t%.2f%%\t%d\n",
			shortID(r.ID), humanize.Time(r.Timestamp), base, start, end,
			Money(r.Metrics.FinalValue), r.Metrics.CAGRPct, r.Metrics.MDDPct, r.Metrics.TradeCount)
	}
	tw.Flush()
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"LeverageLab/internal/model"
	"LeverageLab/internal/report"
)

// FormatRunReport formats a completed backtest into a Telegram message.
func FormatRunReport(snap *model.Snapshot) string {
	var b strings.Builder
	s := snap.Summary

	b.WriteString(fmt.Sprintf("📊 <b>LeverageLab backtest</b> | %s\n\n", snap.RanAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("<b>%s</b> %s ~ %s\n", html.EscapeString(s.Base),
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Final value: %s (%+.2f%%)\n", report.Money(s.FinalValue), s.TotalReturnPct))
	b.WriteString(fmt.Sprintf("CAGR: %.2f%% | MDD: %.2f%%\n", s.CAGRPct, s.MDDPct))
	b.WriteString(fmt.Sprintf("Buy &amp; Hold: %s (CAGR %.2f%%, MDD %.2f%%)\n", report.Money(s.BHFinalValue), s.BHCAGRPct, s.BHMDDPct))
	b.WriteString(fmt.Sprintf("Trades: %d\n", s.TradeCount))

	edge := s.CAGRPct - s.BHCAGRPct
	if edge >= 0 {
		b.WriteString(fmt.Sprintf("\n✅ Beats buy &amp; hold by %.2f%%p CAGR\n", edge))
	} else {
		b.WriteString(fmt.Sprintf("\n⚠️ Trails buy &amp; hold by %.2f%%p CAGR\n", -edge))
	}

	if snap.Annual != nil {
		b.WriteString("\n📅 <b>Annual</b>\n")
		b.WriteString(pre(report.Annual(snap.Annual)))
	}

	for _, w := range snap.Warnings {
		b.WriteString(fmt.Sprintf("\n⚠️ %s", html.EscapeString(w)))
	}
	return b.String()
}

// FormatSteps formats the per-step attribution table.
func FormatSteps(steps []model.StepMetric) string {
	if len(steps) == 0 {
		return "No steps configured."
	}
	return "🪜 <b>Step attribution</b>\n" + pre(report.Steps(steps))
}

// FormatHistory formats the recorded run history.
func FormatHistory(runs []model.RunRecord) string {
	return fmt.Sprintf("🗂 <b>Run history</b> | %s\n", time.Now().Format("2006-01-02")) + pre(report.History(runs))
}

// FormatFailure formats a failed run.
func FormatFailure(base string, err error) string {
	return fmt.Sprintf("❌ <b>Backtest failed</b> (%s)\n%s", html.EscapeString(base), html.EscapeString(err.Error()))
}

func pre(s string) string {
	return "<pre>" + html.EscapeString(s) + "</pre>"
}

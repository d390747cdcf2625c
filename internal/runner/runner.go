package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"LeverageLab/internal/calculator"
	"LeverageLab/internal/collector"
	"LeverageLab/internal/model"
	"LeverageLab/internal/observability"
	"LeverageLab/internal/recorder"
	"LeverageLab/internal/strategy"

	"golang.org/x/sync/errgroup"
)

// Runner executes complete backtests: price collection, simulation,
// metrics and history recording.
type Runner struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *observability.Metrics
	Now       func() time.Time
}

// New creates a Runner. rec and m may be nil.
func New(col *collector.Collector, rec recorder.Recorder, m *observability.Metrics) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{Collector: col, Recorder: rec, Metrics: m, Now: time.Now}
}

// Outcome is everything a finished run produced.
type Outcome struct {
	Config    model.StrategyConfig
	Result    *model.RunResult
	Summary   *model.Summary
	Annual    *model.AnnualReport
	Steps     []model.StepMetric
	Record    *model.RunRecord
	Duplicate bool
	RanAt     time.Time
	Elapsed   time.Duration
}

// Snapshot returns the persisted form of the outcome.
func (o *Outcome) Snapshot() *model.Snapshot {
	snap := &model.Snapshot{
		RanAt:    o.RanAt,
		Summary:  o.Summary,
		Annual:   o.Annual,
		Steps:    o.Steps,
		Warnings: o.Result.Warnings,
	}
	if o.Record != nil {
		snap.RunID = o.Record.ID
	}
	return snap
}

// Run executes one backtest. Any configuration or data error aborts the run
// and no outcome is returned. A failing recorder is logged only.
func (r *Runner) Run(ctx context.Context, cfg model.StrategyConfig) (*Outcome, error) {
	start := r.now()
	out, err := r.run(ctx, cfg)
	elapsed := r.now().Sub(start)
	if err != nil {
		r.Metrics.RecordRun(observability.StatusFailed, elapsed)
		return nil, err
	}
	out.RanAt = start
	out.Elapsed = elapsed
	r.Metrics.RecordRun(observability.StatusOK, elapsed)
	log.Printf("[INFO] backtest %s done in %v: final %.2f, CAGR %.2f%%, MDD %.2f%%, %d trades",
		out.Config.Base, elapsed.Round(time.Millisecond), out.Summary.FinalValue,
		out.Summary.CAGRPct, out.Summary.MDDPct, out.Summary.TradeCount)
	return out, nil
}

func (r *Runner) run(ctx context.Context, cfg model.StrategyConfig) (*Outcome, error) {
	cfg = collector.ResolveConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t0 := r.now()
	table, err := r.Collector.Collect(ctx, cfg.Base, cfg.Instruments(), cfg.Start, cfg.End)
	if err != nil {
		return nil, fmt.Errorf("collect prices: %w", err)
	}
	r.Metrics.ObservePhase("collect", r.now().Sub(t0))

	t0 = r.now()
	res, err := strategy.Run(cfg, table)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	r.Metrics.ObservePhase("simulate", r.now().Sub(t0))
	for _, t := range res.Trades {
		r.Metrics.RecordTrade(string(t.Action))
	}

	summary, err := calculator.Summarize(res)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	annual, err := calculator.AnnualStats(res)
	if err != nil {
		return nil, fmt.Errorf("annual stats: %w", err)
	}
	out := &Outcome{
		Config:  cfg,
		Result:  res,
		Summary: summary,
		Annual:  annual,
		Steps:   calculator.StepMetrics(res),
		Record: &model.RunRecord{
			Params:  cfg.HistoryFields(),
			Metrics: model.NewRunMetrics(summary),
		},
	}
	r.Metrics.UpdateLast(cfg.Base, summary.CAGRPct, summary.MDDPct, summary.FinalValue)

	dup, err := r.Recorder.RecordRun(out.Record)
	switch {
	case err != nil:
		log.Printf("[ERROR] record run history: %v", err)
	case dup:
		out.Duplicate = true
		r.Metrics.RecordDuplicate()
		log.Printf("[INFO] identical run already recorded, history unchanged")
	}
	return out, nil
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// BatchResult is the outcome of one scenario of a batch.
type BatchResult struct {
	Name    string
	Outcome *Outcome
	Err     error
}

// RunBatch runs every scenario independently, at most parallel at a time.
// A failing scenario does not stop the others. Results keep input order.
func (r *Runner) RunBatch(ctx context.Context, scenarios []Scenario, parallel int) []BatchResult {
	results := make([]BatchResult, len(scenarios))
	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, sc := range scenarios {
		results[i].Name = sc.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			out, err := r.Run(ctx, sc.Config)
			if err != nil {
				log.Printf("[WARN] scenario %q failed: %v", sc.Name, err)
			}
			results[i].Outcome, results[i].Err = out, err
			return nil
		})
	}
	g.Wait()
	return results
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"LeverageLab/internal/collector"
	"LeverageLab/internal/config"
	"LeverageLab/internal/notifier"
	"LeverageLab/internal/observability"
	"LeverageLab/internal/recorder"
	"LeverageLab/internal/report"
	"LeverageLab/internal/runner"
	"LeverageLab/internal/scheduler"
	"LeverageLab/internal/snapshot"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

const usage = `usage: leveragelab [flags] <command>

commands:
  run       run the configured backtest once and print the report (default)
  lab       run every scenario of -scenarios in parallel and compare them
  history   list recorded runs
  daemon    run on schedule and answer Telegram commands
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to the YAML config")
	exportDir := flag.String("export", "", "directory for CSV exports (overrides output.export_dir)")
	scenarioPath := flag.String("scenarios", "configs/scenarios.yaml", "scenario file for lab")
	parallel := flag.Int("parallel", 4, "concurrent scenarios for lab")
	minCAGR := flag.Float64("min-cagr", 0, "history: minimum CAGR in percent")
	maxMDD := flag.Float64("max-mdd", 0, "history: keep runs with MDD at or above this (negative) percent")
	limit := flag.Int("limit", 20, "history: number of runs to show")
	deleteIDs := flag.String("delete", "", "history: comma separated run ids to delete")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "run"
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	setupLogging(cfg)
	if *exportDir != "" {
		cfg.Output.ExportDir = *exportDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "run":
		err = runOnce(ctx, cfg)
	case "lab":
		err = runLab(ctx, cfg, *scenarioPath, *parallel)
	case "history":
		f := recorder.Filter{Limit: *limit}
		flag.Visit(func(fl *flag.Flag) {
			switch fl.Name {
			case "min-cagr":
				f.MinCAGR = minCAGR
			case "max-mdd":
				f.MaxMDD = maxMDD
			}
		})
		err = runHistory(cfg, f, config.SplitList(*deleteIDs))
	case "daemon":
		err = runDaemon(ctx, cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("[FATAL] %s: %v", cmd, err)
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Log.File == "" {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}))
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	return fetcher
}

func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0755); err != nil {
		log.Printf("[WARN] create database dir: %v", err)
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func runOnce(ctx context.Context, cfg *config.Config) error {
	strat, err := cfg.BuildStrategy(time.Now())
	if err != nil {
		return err
	}
	rec := openRecorder(cfg)
	defer rec.Close()

	r := runner.New(collector.NewCollector(newFetcher(cfg)), rec, nil)
	out, err := r.Run(ctx, strat)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary(out.Summary))
	fmt.Println(report.Annual(out.Annual))
	fmt.Println(report.Steps(out.Steps))
	for _, w := range out.Result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if out.Duplicate {
		fmt.Println("identical run already recorded")
	}

	if store, err := snapshot.NewStore(cfg.Output.StateFile); err != nil {
		log.Printf("[WARN] open snapshot: %v", err)
	} else if err := store.Update(out.Snapshot()); err != nil {
		log.Printf("[WARN] save snapshot: %v", err)
	}

	if cfg.Output.ExportDir != "" {
		paths, err := report.Export(cfg.Output.ExportDir, out.Result)
		if err != nil {
			return err
		}
		log.Printf("[INFO] exported %s", strings.Join(paths, ", "))
	}
	return nil
}

func runLab(ctx context.Context, cfg *config.Config, path string, parallel int) error {
	steps, err := config.LoadSteps(cfg.Strategy.StepsFile)
	if err != nil {
		return err
	}
	scenarios, err := runner.LoadScenarios(path, cfg.Strategy, steps, time.Now())
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return errors.New("no scenarios in " + path)
	}
	rec := openRecorder(cfg)
	defer rec.Close()

	r := runner.New(collector.NewCollector(newFetcher(cfg)), rec, nil)
	log.Printf("[INFO] running %d scenarios, %d at a time", len(scenarios), parallel)
	results := r.RunBatch(ctx, scenarios, parallel)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Scenario\tBase\tFinal\tReturn\tCAGR\tMDD\tTrades\tB&H CAGR")
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\terror: %v\n", res.Name, res.Err)
			continue
		}
		s := res.Outcome.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f%%\t%.2f%%\t%.2f%%\t%d\t%.2f%%\n", res.Name, s.Base,
			report.Money(s.FinalValue), s.TotalReturnPct, s.CAGRPct, s.MDDPct, s.TradeCount, s.BHCAGRPct)
	}
	tw.Flush()
	if failed == len(results) {
		return fmt.Errorf("all %d scenarios failed", failed)
	}
	return nil
}

func runHistory(cfg *config.Config, f recorder.Filter, deleteIDs []string) error {
	rec := openRecorder(cfg)
	defer rec.Close()

	if len(deleteIDs) > 0 {
		n, err := rec.DeleteRuns(deleteIDs...)
		if err != nil {
			return err
		}
		log.Printf("[INFO] deleted %d runs", n)
	}
	runs, err := rec.ListRuns(f)
	if err != nil {
		return err
	}
	fmt.Print(report.History(runs))
	return nil
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log.Println("[INFO] LeverageLab daemon starting...")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	col := collector.NewCollector(newFetcher(cfg))
	col.Metrics = metrics
	rec := openRecorder(cfg)
	defer rec.Close()

	store, err := snapshot.NewStore(cfg.Output.StateFile)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	sched := scheduler.NewScheduler(ctx, runner.New(col, rec, metrics), tn, rec, store, cfg.BuildStrategy)
	if err := sched.RegisterAll(cfg.Schedule.RunCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tn.StartPolling(gctx, sched.HandleCommand)
		return nil
	})
	log.Println("[INFO] Telegram polling started")

	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler(reg))
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Printf("[INFO] metrics listening on %s", cfg.Metrics.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing backtest now")
		go sched.RunNow()
	}

	log.Println("[INFO] LeverageLab is running. Press Ctrl+C to stop.")
	err = g.Wait()
	log.Println("[INFO] LeverageLab stopped")
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"LeverageLab/internal/model"
	"LeverageLab/internal/notifier"
	"LeverageLab/internal/recorder"
	"LeverageLab/internal/runner"
	"LeverageLab/internal/snapshot"

	"github.com/robfig/cron/v3"
)

// ConfigSource builds the strategy configuration for a run started at now.
type ConfigSource func(now time.Time) (model.StrategyConfig, error)

const defaultHistoryLimit = 10

// Scheduler runs the configured backtest on a cron schedule and answers
// chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *runner.Runner
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Store    *snapshot.Store
	Source   ConfigSource
	Ctx      context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, r *runner.Runner, n notifier.Notifier, rec recorder.Recorder, store *snapshot.Store, src ConfigSource) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   r,
		Notifier: n,
		Recorder: rec,
		Store:    store,
		Source:   src,
		Ctx:      ctx,
	}
}

// RegisterAll registers the backtest task.
func (s *Scheduler) RegisterAll(runCron string) error {
	if _, err := s.Cron.AddFunc(runCron, s.backtestTask); err != nil {
		return fmt.Errorf("register backtest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the backtest task immediately.
func (s *Scheduler) RunNow() {
	s.backtestTask()
}

func (s *Scheduler) backtestTask() {
	if !s.running.TryLock() {
		log.Println("[WARN] backtest already running, skipping")
		return
	}
	defer s.running.Unlock()

	log.Println("[INFO] running scheduled backtest")
	cfg, err := s.Source(time.Now())
	if err != nil {
		log.Printf("[ERROR] build strategy config: %v", err)
		s.trySend(notifier.FormatFailure("config", err))
		return
	}

	out, err := s.Runner.Run(s.Ctx, cfg)
	if err != nil {
		log.Printf("[ERROR] backtest: %v", err)
		s.trySend(notifier.FormatFailure(cfg.Base, err))
		return
	}

	snap := out.Snapshot()
	if s.Store != nil {
		if err := s.Store.Update(snap); err != nil {
			log.Printf("[ERROR] save snapshot: %v", err)
		}
	}

	msg := notifier.FormatRunReport(snap)
	if out.Duplicate {
		msg += "\n\nℹ️ Identical run already in history."
	}
	s.trySend(msg)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return help()
	}
	// "/summary@LeverageLabBot" in group chats
	name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])

	switch name {
	case "/run":
		s.backtestTask()
		return ""
	case "/summary":
		snap := s.latest()
		if snap == nil {
			return "No completed run yet."
		}
		return notifier.FormatRunReport(snap)
	case "/steps":
		snap := s.latest()
		if snap == nil {
			return "No completed run yet."
		}
		return notifier.FormatSteps(snap.Steps)
	case "/history":
		limit := defaultHistoryLimit
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
				limit = n
			}
		}
		runs, err := s.Recorder.ListRuns(recorder.Filter{Limit: limit})
		if err != nil {
			log.Printf("[ERROR] list runs: %v", err)
			return "❌ Failed to load history."
		}
		return notifier.FormatHistory(runs)
	default:
		return help()
	}
}

func (s *Scheduler) latest() *model.Snapshot {
	if s.Store == nil {
		return nil
	}
	return s.Store.Latest()
}

func help() string {
	return "Available commands:\n• /run\n• /summary\n• /steps\n• /history [n]"
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

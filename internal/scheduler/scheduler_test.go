package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"LeverageLab/internal/collector"
	"LeverageLab/internal/config"
	"LeverageLab/internal/model"
	"LeverageLab/internal/recorder"
	"LeverageLab/internal/runner"
	"LeverageLab/internal/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

func (f *fakeNotifier) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return ""
	}
	return f.msgs[len(f.msgs)-1]
}

func fixedSource(now time.Time) (model.StrategyConfig, error) {
	return model.StrategyConfig{
		Base:     "QQQ",
		Adds:     []string{"TQQQ"},
		Capital:  10000,
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
		ExitMode: model.ExitLimit,
		Steps:    config.DefaultSteps(),
	}, nil
}

func newTestScheduler(t *testing.T, src ConfigSource) (*Scheduler, *fakeNotifier) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	store, err := snapshot.NewStore(filepath.Join(t.TempDir(), "last_run.json"))
	require.NoError(t, err)

	r := runner.New(collector.NewCollector(&collector.MockFetcher{Price: 100}), rec, nil)
	n := &fakeNotifier{}
	return NewScheduler(context.Background(), r, n, rec, store, src), n
}

func TestCommandsBeforeFirstRun(t *testing.T) {
	s, _ := newTestScheduler(t, fixedSource)

	assert.Equal(t, "No completed run yet.", s.HandleCommand(context.Background(), "/summary"))
	assert.Equal(t, "No completed run yet.", s.HandleCommand(context.Background(), "/steps"))
	assert.Contains(t, s.HandleCommand(context.Background(), "/history"), "no recorded runs")
	assert.Contains(t, s.HandleCommand(context.Background(), "hello"), "/history [n]")
	assert.Contains(t, s.HandleCommand(context.Background(), ""), "/run")
}

func TestRunCommand(t *testing.T) {
	s, n := newTestScheduler(t, fixedSource)

	assert.Empty(t, s.HandleCommand(context.Background(), "/run"))
	msg := n.last()
	assert.Contains(t, msg, "LeverageLab backtest")
	assert.Contains(t, msg, "QQQ")
	assert.NotContains(t, msg, "Identical run")

	summary := s.HandleCommand(context.Background(), "/summary@LeverageLabBot")
	assert.Contains(t, summary, "LeverageLab backtest")
	assert.Contains(t, s.HandleCommand(context.Background(), "/steps"), "Step attribution")

	hist := s.HandleCommand(context.Background(), "/history 5")
	assert.Contains(t, hist, "QQQ")
	assert.Equal(t, 1, strings.Count(hist, "2024-01-01~2024-03-29"))

	s.RunNow()
	assert.Contains(t, n.last(), "Identical run already in history")
}

func TestRunFailureNotifies(t *testing.T) {
	s, n := newTestScheduler(t, func(time.Time) (model.StrategyConfig, error) {
		return model.StrategyConfig{}, errors.New("steps file broken")
	})
	s.RunNow()
	assert.Contains(t, n.last(), "Backtest failed")
	assert.Contains(t, n.last(), "steps file broken")
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, fixedSource)
	require.NoError(t, s.RegisterAll("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.RegisterAll("not a cron"))
}

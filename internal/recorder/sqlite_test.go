package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"LeverageLab/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func record(base, capital string, cagr, mdd float64) *model.RunRecord {
	return &model.RunRecord{
		Params: []model.Field{
			{Key: "BaseTicker", Value: base},
			{Key: "Capital", Value: capital},
			{Key: "SellMode", Value: "limit"},
		},
		Metrics: model.RunMetrics{FinalValue: 12000, CAGRPct: cagr, MDDPct: mdd, TradeCount: 3},
	}
}

func TestRecordRunAssignsIdentity(t *testing.T) {
	r := newTestRecorder(t)

	rec := record("QQQ", "10000", 12.5, -20)
	dup, err := r.RecordRun(rec)
	require.NoError(t, err)
	assert.False(t, dup)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Timestamp.IsZero())

	runs, err := r.ListRuns(Filter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.ID, runs[0].ID)
	assert.Equal(t, rec.Params, runs[0].Params)
	assert.Equal(t, rec.Metrics, runs[0].Metrics)
}

func TestRecordRunDuplicates(t *testing.T) {
	r := newTestRecorder(t)

	_, err := r.RecordRun(record("QQQ", "10000", 12.5, -20))
	require.NoError(t, err)

	dup, err := r.RecordRun(record("QQQ", "10000.0", 12.5, -20))
	require.NoError(t, err)
	assert.True(t, dup, "numeric fields compare by value")

	dup, err = r.RecordRun(record("QQQ", "20000", 12.5, -20))
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = r.RecordRun(record("QQQ", "10000", 13, -20))
	require.NoError(t, err)
	assert.False(t, dup, "different results are a new run")

	extra := record("QQQ", "10000", 12.5, -20)
	extra.Params = append(extra.Params, model.Field{Key: "ForceBuyDays", Value: "10"})
	dup, err = r.RecordRun(extra)
	require.NoError(t, err)
	assert.False(t, dup, "a field the stored run lacks is a mismatch")

	runs, err := r.ListRuns(Filter{})
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestListRunsFilter(t *testing.T) {
	r := newTestRecorder(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range []struct {
		cagr, mdd float64
	}{{5, -10}, {15, -30}, {25, -45}, {30, -15}} {
		rec := record("QQQ", "10000", c.cagr, c.mdd)
		rec.Timestamp = base.Add(time.Duration(i) * time.Hour)
		_, err := r.RecordRun(rec)
		require.NoError(t, err)
	}
	_, err := r.RecordRun(record("SPY", "10000", 40, -5))
	require.NoError(t, err)

	minCAGR, maxMDD := 10.0, -35.0
	runs, err := r.ListRuns(Filter{Base: "QQQ", MinCAGR: &minCAGR, MaxMDD: &maxMDD})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 30.0, runs[0].Metrics.CAGRPct, "newest first")
	assert.Equal(t, 15.0, runs[1].Metrics.CAGRPct)

	runs, err = r.ListRuns(Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 40.0, runs[0].Metrics.CAGRPct)
}

func TestDeleteRuns(t *testing.T) {
	r := newTestRecorder(t)

	a := record("QQQ", "10000", 1, -1)
	b := record("QQQ", "20000", 2, -2)
	for _, rec := range []*model.RunRecord{a, b} {
		_, err := r.RecordRun(rec)
		require.NoError(t, err)
	}

	n, err := r.DeleteRuns(a.ID, "missing")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	runs, err := r.ListRuns(Filter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, b.ID, runs[0].ID)

	n, err = r.DeleteRuns()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSameValue(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"30", "30.0", true},
		{"-0.5", "-0.50", true},
		{"1e3", "1000", true},
		{"30", "31", false},
		{"limit", "limit", true},
		{"limit", "close", false},
		{"", "", true},
		{"", "0", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sameValue(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

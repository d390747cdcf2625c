package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"LeverageLab/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "last_run.json")

	s, err := NewStore(path)
	require.NoError(t, err)
	assert.Nil(t, s.Latest())

	snap := &model.Snapshot{
		RunID:   "abc",
		RanAt:   time.Date(2024, 5, 1, 22, 30, 0, 0, time.UTC),
		Summary: &model.Summary{Base: "QQQ", CAGRPct: 12.5, MDDPct: -20},
		Steps:   []model.StepMetric{{Index: 1, DropPct: -5, Ticker: "TQQQ"}},
	}
	require.NoError(t, s.Update(snap))
	assert.False(t, snap.UpdatedAt.IsZero())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reloaded, err := NewStore(path)
	require.NoError(t, err)
	got := reloaded.Latest()
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.RunID)
	assert.True(t, snap.RanAt.Equal(got.RanAt))
	assert.Equal(t, 12.5, got.Summary.CAGRPct)
	assert.Equal(t, "TQQQ", got.Steps[0].Ticker)
}

func TestStoreInMemory(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	require.NoError(t, s.Update(&model.Snapshot{RunID: "x"}))
	assert.Equal(t, "x", s.Latest().RunID)
}

func TestLoadStateCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err := LoadState(path)
	assert.Error(t, err)
}

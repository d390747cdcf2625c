package recorder

import "LeverageLab/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *model.RunRecord) (bool, error)    { return false, nil }
func (n *NoopRecorder) ListRuns(_ Filter) ([]model.RunRecord, error) { return nil, nil }
func (n *NoopRecorder) DeleteRuns(_ ...string) (int64, error)        { return 0, nil }
func (n *NoopRecorder) Close() error                                 { return nil }

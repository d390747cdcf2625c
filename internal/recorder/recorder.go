package recorder

import "LeverageLab/internal/model"

// Filter narrows a history listing. Nil bounds are ignored.
type Filter struct {
	Base    string
	MinCAGR *float64
	MaxMDD  *float64 // drawdowns are negative; keeps runs with MDD >= MaxMDD
	Limit   int
}

// Recorder persists the run history.
type Recorder interface {
	// RecordRun stores rec unless an identical run is already recorded.
	RecordRun(rec *model.RunRecord) (duplicate bool, err error)
	// ListRuns returns matching runs, newest first.
	ListRuns(f Filter) ([]model.RunRecord, error)
	DeleteRuns(ids ...string) (int64, error)
	Close() error
}

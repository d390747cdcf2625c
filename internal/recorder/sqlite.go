package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"LeverageLab/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			base_ticker     TEXT,
			params          TEXT NOT NULL,
			final_value     REAL,
			total_return    REAL,
			cagr            REAL,
			mdd             REAL,
			trade_count     INTEGER,
			final_cash      REAL,
			rebalance_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_base ON runs(base_ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts rec unless a stored run has the same value for every
// field of rec. Numeric values compare numerically, so 30 equals 30.0.
func (r *SQLiteRecorder) RecordRun(rec *model.RunRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	base, _ := rec.Param("BaseTicker")
	existing, err := r.query(`WHERE base_ticker = ?`, base)
	if err != nil {
		return false, fmt.Errorf("load history: %w", err)
	}
	fields := rec.Fields()
	for i := range existing {
		if sameFields(fields, existing[i].Fields()) {
			return true, nil
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return false, fmt.Errorf("encode params: %w", err)
	}
	m := rec.Metrics
	_, err = r.db.Exec(`INSERT INTO runs
		(id, timestamp, base_ticker, params, final_value, total_return, cagr, mdd,
		 trade_count, final_cash, rebalance_count)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Timestamp.Unix(), base, string(params),
		m.FinalValue, m.TotalReturnPct, m.CAGRPct, m.MDDPct,
		m.TradeCount, m.FinalCash, m.RebalanceCount,
	)
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	return false, nil
}

// ListRuns returns the runs matching f, newest first.
func (r *SQLiteRecorder) ListRuns(f Filter) ([]model.RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var where []string
	var args []interface{}
	if f.Base != "" {
		where = append(where, "base_ticker = ?")
		args = append(args, f.Base)
	}
	if f.MinCAGR != nil {
		where = append(where, "cagr >= ?")
		args = append(args, *f.MinCAGR)
	}
	if f.MaxMDD != nil {
		where = append(where, "mdd >= ?")
		args = append(args, *f.MaxMDD)
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	clause += " ORDER BY timestamp DESC, rowid DESC"
	if f.Limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return r.query(clause, args...)
}

// DeleteRuns removes the runs with the given ids.
func (r *SQLiteRecorder) DeleteRuns(ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.Exec(`DELETE FROM runs WHERE id IN (`+marks+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRecorder) query(clause string, args ...interface{}) ([]model.RunRecord, error) {
	rows, err := r.db.Query(`SELECT id, timestamp, params, final_value, total_return, cagr, mdd,
		trade_count, final_cash, rebalance_count FROM runs `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var (
			rec    model.RunRecord
			ts     int64
			params string
			m      = &rec.Metrics
		)
		if err := rows.Scan(&rec.ID, &ts, &params, &m.FinalValue, &m.TotalReturnPct, &m.CAGRPct,
			&m.MDDPct, &m.TradeCount, &m.FinalCash, &m.RebalanceCount); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(ts, 0)
		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return nil, fmt.Errorf("decode params of %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

// sameFields reports whether stored carries every field of want with an
// equal value. A field missing from stored is a mismatch.
func sameFields(want, stored []model.Field) bool {
	idx := make(map[string]string, len(stored))
	for _, f := range stored {
		idx[f.Key] = f.Value
	}
	for _, f := range want {
		v, ok := idx[f.Key]
		if !ok || !sameValue(f.Value, v) {
			return false
		}
	}
	return true
}

func sameValue(a, b string) bool {
	da, errA := decimal.NewFromString(strings.TrimSpace(a))
	db, errB := decimal.NewFromString(strings.TrimSpace(b))
	if errA == nil && errB == nil {
		return da.Equal(db)
	}
	return a == b
}

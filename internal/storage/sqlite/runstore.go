// Package sqlite persists pipeline runs and their per-track residuals so
// runs can be compared after the fact without re-parsing CSV output.
package sqlite

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bella-recon/trackfit/internal/residual"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps the run-store database handle.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the run store at path and applies the
// embedded schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply run store schema: %w", err)
	}
	return &DB{db}, nil
}

// Run is one persisted pipeline run.
type Run struct {
	RunID      string          `json:"run_id"`
	CreatedAt  int64           `json:"created_at"`
	Events     int             `json:"events"`
	Tracks     int             `json:"tracks"`
	ParamsJSON json.RawMessage `json:"params_json,omitempty"`
}

// ResidualRecord is one persisted per-track residual row.
type ResidualRecord struct {
	RunID   string `json:"run_id"`
	EventID uint64 `json:"event_id"`
	TrackID int    `json:"track_id"`
	residual.Row
	QOPResidual  float64 `json:"qop_residual"`
	QOPTResidual float64 `json:"qopt_residual"`
	QOPZResidual float64 `json:"qopz_residual"`
}

// RunStore provides persistence for runs and residual records.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

// InsertRun persists a run. If RunID is empty, a UUID is generated.
func (s *RunStore) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	_, err := s.db.Exec(`
		INSERT INTO fit_runs (run_id, created_at, events, tracks, params_json)
		VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt, run.Events, run.Tracks, paramsStr)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunCounts stores the final event and track counters of a run.
func (s *RunStore) UpdateRunCounts(runID string, events, tracks int) error {
	_, err := s.db.Exec(`UPDATE fit_runs SET events = ?, tracks = ? WHERE run_id = ?`,
		events, tracks, runID)
	if err != nil {
		return fmt.Errorf("update run counts: %w", err)
	}
	return nil
}

// InsertResidual persists one per-track residual row for a run.
func (s *RunStore) InsertResidual(runID string, eventID uint64, trackID int, row residual.Row) error {
	dQOP, dQOPT, dQOPZ := row.Residuals()
	_, err := s.db.Exec(`
		INSERT INTO fit_residuals (
			run_id, event_id, track_id,
			fit_qop, fit_qopt, fit_qopz,
			truth_qop, truth_qopt, truth_qopz,
			qop_residual, qopt_residual, qopz_residual
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, eventID, trackID,
		row.FitQOP, row.FitQOPT, row.FitQOPZ,
		row.TruthQOP, row.TruthQOPT, row.TruthQOPZ,
		dQOP, dQOPT, dQOPZ)
	if err != nil {
		return fmt.Errorf("insert residual: %w", err)
	}
	return nil
}

// GetRun returns a single run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, created_at, events, tracks, params_json
		FROM fit_runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns all runs, newest first.
func (s *RunStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, created_at, events, tracks, params_json
		FROM fit_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListResiduals returns a run's residual records in event-then-track order.
func (s *RunStore) ListResiduals(runID string) ([]*ResidualRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, event_id, track_id,
		       fit_qop, fit_qopt, fit_qopz,
		       truth_qop, truth_qopt, truth_qopz,
		       qop_residual, qopt_residual, qopz_residual
		FROM fit_residuals WHERE run_id = ?
		ORDER BY event_id, track_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query residuals: %w", err)
	}
	defer rows.Close()

	var recs []*ResidualRecord
	for rows.Next() {
		rec := &ResidualRecord{}
		if err := rows.Scan(
			&rec.RunID, &rec.EventID, &rec.TrackID,
			&rec.FitQOP, &rec.FitQOPT, &rec.FitQOPZ,
			&rec.TruthQOP, &rec.TruthQOPT, &rec.TruthQOPZ,
			&rec.QOPResidual, &rec.QOPTResidual, &rec.QOPZResidual,
		); err != nil {
			return nil, fmt.Errorf("scan residual: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	r := &Run{}
	var params sql.NullString
	if err := row.Scan(&r.RunID, &r.CreatedAt, &r.Events, &r.Tracks, &params); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if params.Valid {
		r.ParamsJSON = json.RawMessage(params.String)
	}
	return r, nil
}

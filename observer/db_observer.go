package observer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dcshock/formpipe/pipeline"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

//go:embed migration.sql
var migrationSQL string

// DBTX is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx the run log needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Migrate creates the form_run and form_run_step tables if they do not exist.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("migrate run log: %w", err)
	}
	return nil
}

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

const (
	upsertRun = `INSERT INTO form_run (run_id, name, payload, status)
VALUES ($1, $2, $3, 'running')
ON CONFLICT (run_id) DO UPDATE SET name = EXCLUDED.name, payload = EXCLUDED.payload,
    status = 'running', error = NULL, finished_at = NULL`

	completeRun = `UPDATE form_run SET status = $2, error = $3, finished_at = now() WHERE run_id = $1`

	upsertStep = `INSERT INTO form_run_step (form_run_id, step_index, status)
VALUES ($1, $2, 'running')
ON CONFLICT (form_run_id, step_index) DO UPDATE SET status = 'running', error = NULL,
    duration_ms = NULL, started_at = now(), finished_at = NULL`

	completeStep = `UPDATE form_run_step SET status = $3, error = $4, duration_ms = $5, finished_at = now()
WHERE form_run_id = $1 AND step_index = $2`

	selectRun = `SELECT r.run_id, r.name, r.status, r.error,
    (SELECT count(*) FROM form_run_step s WHERE s.form_run_id = r.run_id)
FROM form_run r WHERE r.run_id = $1`
)

// DBObserver persists runs and their steps to Postgres (form_run,
// form_run_step) so they can be monitored.
type DBObserver struct {
	db DBTX
}

var _ pipeline.Observer = (*DBObserver)(nil)

// NewDBObserver returns an Observer that writes to db (e.g. a *pgxpool.Pool).
func NewDBObserver(db DBTX) *DBObserver {
	return &DBObserver{db: db}
}

// BeforePipeline implements pipeline.Observer. Inserts or updates a form_run row with status 'running'.
func (o *DBObserver) BeforePipeline(ctx context.Context, runID, name string, payload interface{}) error {
	payloadJSON, err := marshalOptional(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = o.db.Exec(ctx, upsertRun, runID, name, payloadJSON)
	return err
}

// AfterPipeline implements pipeline.Observer. Updates form_run with status (success/failed) and error.
func (o *DBObserver) AfterPipeline(ctx context.Context, runID string, err error) error {
	_, execErr := o.db.Exec(ctx, completeRun, runID, statusOf(err), errText(err))
	return execErr
}

// BeforeStep implements pipeline.Observer. Inserts a form_run_step row with status 'running'.
func (o *DBObserver) BeforeStep(ctx context.Context, runID string, stepIndex int) error {
	_, err := o.db.Exec(ctx, upsertStep, runID, int32(stepIndex))
	return err
}

// AfterStep implements pipeline.Observer. Updates form_run_step with status, error and duration.
func (o *DBObserver) AfterStep(ctx context.Context, runID string, stepIndex int, stepErr error, duration time.Duration) error {
	durationMs := pgtype.Int8{Int64: duration.Milliseconds(), Valid: true}
	_, err := o.db.Exec(ctx, completeStep, runID, int32(stepIndex), statusOf(stepErr), errText(stepErr), durationMs)
	return err
}

// RunRecord is a form_run row with its step count.
type RunRecord struct {
	RunID  string
	Name   string
	Status string
	Error  string
	Steps  int
}

// GetRun loads the run with runID. Returns pgx.ErrNoRows if it does not exist.
func (o *DBObserver) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	var (
		rec   RunRecord
		errTx pgtype.Text
		steps int64
	)
	if err := o.db.QueryRow(ctx, selectRun, runID).Scan(&rec.RunID, &rec.Name, &rec.Status, &errTx, &steps); err != nil {
		return RunRecord{}, err
	}
	rec.Error = errTx.String
	rec.Steps = int(steps)
	return rec, nil
}

func statusOf(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusSuccess
}

func errText(err error) pgtype.Text {
	if err == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: err.Error(), Valid: true}
}

func marshalOptional(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

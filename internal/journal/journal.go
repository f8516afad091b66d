package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/models"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Journal appends runs and captures to Postgres. It is an audit log only:
// nothing is read back into a simulation. A nil *Journal or one without a DB
// accepts every call and does nothing.
type Journal struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Enabled() bool {
	return j != nil && j.db != nil
}

// NewRun builds the row for a freshly racked table.
func NewRun(id, tableID string, seed int64, shot game.BreakShot, now time.Time) models.Run {
	run := models.Run{
		ID:         id,
		TableID:    tableID,
		BreakAngle: shot.AngleDegrees(),
		BreakSpeed: shot.Speed,
		CueX:       shot.Origin.X,
		CueY:       shot.Origin.Y,
		StartedAt:  now,
	}
	if seed != 0 {
		run.Seed = sql.NullInt64{Int64: seed, Valid: true}
	}
	return run
}

// StartRun inserts a new run row.
func (j *Journal) StartRun(ctx context.Context, run models.Run) error {
	if !j.Enabled() {
		return nil
	}
	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO table_runs (id, table_id, seed, break_angle, break_speed, cue_x, cue_y, pocketed, started_at)
		VALUES (:id, :table_id, :seed, :break_angle, :break_speed, :cue_x, :cue_y, 0, :started_at)
	`, run)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// RecordCapture appends a capture and bumps the run's pocketed count in one
// transaction.
func (j *Journal) RecordCapture(ctx context.Context, runID string, c game.Capture) error {
	if !j.Enabled() {
		return nil
	}

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin capture tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run_captures (run_id, ball, ball_kind, pocket, tick, created_at) VALUES ($1,$2,$3,$4,$5,NOW())`,
		runID, c.Ball, string(c.Kind), c.Pocket, int64(c.Tick),
	); err != nil {
		return fmt.Errorf("insert capture for run %s: %w", runID, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE table_runs SET pocketed = pocketed + 1 WHERE id=$1`, runID); err != nil {
		return fmt.Errorf("bump pocketed for run %s: %w", runID, err)
	}
	return tx.Commit()
}

// MarkSettled stamps the first tick at which every ball came to rest.
func (j *Journal) MarkSettled(ctx context.Context, runID string, tick uint64) error {
	if !j.Enabled() {
		return nil
	}
	_, err := j.db.ExecContext(ctx,
		`UPDATE table_runs SET settled_tick = COALESCE(settled_tick, $1), settled_at = COALESCE(settled_at, NOW()) WHERE id=$2`,
		int64(tick), runID,
	)
	if err != nil {
		return fmt.Errorf("mark run %s settled: %w", runID, err)
	}
	return nil
}

// FinishRun closes a run with its end reason and final count.
func (j *Journal) FinishRun(ctx context.Context, runID, reason string, pocketed int) error {
	if !j.Enabled() {
		return nil
	}
	res, err := j.db.ExecContext(ctx,
		`UPDATE table_runs SET end_reason=$1, pocketed=$2, finished_at=NOW() WHERE id=$3 AND finished_at IS NULL`,
		reason, pocketed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Printf("[JOURNAL] run %s already finished or missing", runID)
	}
	return nil
}

// RecentRuns lists the latest runs of a table, newest first.
func (j *Journal) RecentRuns(ctx context.Context, tableID string, limit int) ([]models.Run, error) {
	if !j.Enabled() {
		return []models.Run{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs := []models.Run{}
	err := j.db.SelectContext(ctx, &runs, `
		SELECT id, table_id, seed, break_angle, break_speed, cue_x, cue_y, pocketed, end_reason,
		       settled_tick, started_at, settled_at, finished_at
		FROM table_runs
		WHERE table_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, tableID, limit)
	return runs, err
}

// Run fetches one run with its captures in tick order.
func (j *Journal) Run(ctx context.Context, runID string) (*models.Run, []models.RunCapture, error) {
	if !j.Enabled() {
		return nil, nil, ErrRunNotFound
	}

	var run models.Run
	err := j.db.GetContext(ctx, &run, `
		SELECT id, table_id, seed, break_angle, break_speed, cue_x, cue_y, pocketed, end_reason,
		       settled_tick, started_at, settled_at, finished_at
		FROM table_runs WHERE id=$1
	`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrRunNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	captures := []models.RunCapture{}
	if err := j.db.SelectContext(ctx, &captures,
		`SELECT id, run_id, ball, ball_kind, pocket, tick, created_at FROM run_captures WHERE run_id=$1 ORDER BY tick, id`,
		runID,
	); err != nil {
		return nil, nil, err
	}
	return &run, captures, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

// AnalysisRunRepository handles database operations for analysis runs
type AnalysisRunRepository struct {
	db *sql.DB
}

// NewAnalysisRunRepository creates a new analysis run repository
func NewAnalysisRunRepository(db *sql.DB) *AnalysisRunRepository {
	return &AnalysisRunRepository{db: db}
}

const runColumns = `
	id, name, description, start_date, end_date, status, error_message,
	started_at, completed_at, result_summary, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{}
	err := row.Scan(
		&run.ID,
		&run.Name,
		&run.Description,
		&run.StartDate,
		&run.EndDate,
		&run.Status,
		&run.ErrorMessage,
		&run.StartedAt,
		&run.CompletedAt,
		&run.ResultSummary,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	return run, err
}

// Create inserts a new run in pending status
func (r *AnalysisRunRepository) Create(ctx context.Context, run *models.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (name, description, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		run.Name,
		run.Description,
		run.StartDate,
		run.EndDate,
		models.RunStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*run = *created
	return nil
}

// GetByID retrieves an analysis run by ID
func (r *AnalysisRunRepository) GetByID(ctx context.Context, id int64) (*models.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}

	return run, nil
}

// List retrieves analysis runs, newest first
func (r *AnalysisRunRepository) List(ctx context.Context, filter models.RunFilter) ([]*models.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE 1=1`

	args := []any{}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.StartDate != "" {
		query += " AND start_date >= ?"
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		query += " AND end_date <= ?"
		args = append(args, filter.EndDate)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ClaimForProcessing moves a pending run to processing. It fails with
// ErrRunNotPending when another worker already claimed it.
func (r *AnalysisRunRepository) ClaimForProcessing(ctx context.Context, id int64) error {
	query := `
		UPDATE analysis_runs
		SET status = ?, started_at = ?, completed_at = 0, error_message = '',
			result_summary = '', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		models.RunStatusProcessing, time.Now().Unix(), id, models.RunStatusPending)
	if err != nil {
		return fmt.Errorf("failed to claim analysis run: %w", err)
	}
	return r.expectOne(ctx, result, id, models.ErrRunNotPending)
}

// ResetToPending prepares a finished run for rerun. Runs still queued or
// processing are rejected with ErrRunInProgress.
func (r *AnalysisRunRepository) ResetToPending(ctx context.Context, id int64) error {
	query := `
		UPDATE analysis_runs
		SET status = ?, started_at = 0, completed_at = 0, error_message = '',
			result_summary = '', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		models.RunStatusPending, id, models.RunStatusCompleted, models.RunStatusError)
	if err != nil {
		return fmt.Errorf("failed to reset analysis run: %w", err)
	}
	return r.expectOne(ctx, result, id, models.ErrRunInProgress)
}

// MarkAsCompleted marks a run as completed with a result summary
func (r *AnalysisRunRepository) MarkAsCompleted(ctx context.Context, id int64, resultSummary string) error {
	return markCompleted(ctx, r.db, id, resultSummary)
}

// MarkAsFailed marks a run as failed with an error message
func (r *AnalysisRunRepository) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE analysis_runs
		SET status = ?, completed_at = ?, error_message = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, models.RunStatusError, time.Now().Unix(), errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to mark run as failed: %w", err)
	}

	return nil
}

// ListIDsByStatus returns the IDs of runs in a status, oldest first
func (r *AnalysisRunRepository) ListIDsByStatus(ctx context.Context, status string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM analysis_runs WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list run ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// expectOne turns a zero-row conditional update into ErrRunNotFound or conflict
func (r *AnalysisRunRepository) expectOne(ctx context.Context, result sql.Result, id int64, conflict error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d", conflict, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func markCompleted(ctx context.Context, db execer, id int64, resultSummary string) error {
	query := `
		UPDATE analysis_runs
		SET status = ?, completed_at = ?, result_summary = ?, error_message = '',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := db.ExecContext(ctx, query, models.RunStatusCompleted, time.Now().Unix(), resultSummary, id)
	if err != nil {
		return fmt.Errorf("failed to mark run as completed: %w", err)
	}

	return nil
}

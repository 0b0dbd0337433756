package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/repository"
)

// ErrInvalidInput marks request validation failures
var ErrInvalidInput = errors.New("invalid input")

// Submitter hands runs to the background worker
type Submitter interface {
	Submit(runID int64) (string, error)
}

// CreateRunRequest is the input for CreateRun
type CreateRunRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

// AnalysisRunService handles analysis run business logic
type AnalysisRunService struct {
	runs   *repository.AnalysisRunRepository
	queue  Submitter
	logger *zap.Logger
}

// NewAnalysisRunService creates a new analysis run service
func NewAnalysisRunService(runs *repository.AnalysisRunRepository, queue Submitter, logger *zap.Logger) *AnalysisRunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisRunService{runs: runs, queue: queue, logger: logger.Named("runs")}
}

// CreateRun stores a pending run and queues it. The returned run is still pending.
func (s *AnalysisRunService) CreateRun(ctx context.Context, req CreateRunRequest) (*models.AnalysisRun, error) {
	if _, err := models.NewDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("%s to %s", req.StartDate, req.EndDate)
	}

	run := &models.AnalysisRun{
		Name:        name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	if err := s.submit(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun returns a run by ID
func (s *AnalysisRunService) GetRun(ctx context.Context, id int64) (*models.AnalysisRun, error) {
	return s.runs.GetByID(ctx, id)
}

// ListRuns lists runs, newest first
func (s *AnalysisRunService) ListRuns(ctx context.Context, filter models.RunFilter) ([]*models.AnalysisRun, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}
	runs, err := s.runs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []*models.AnalysisRun{}
	}
	return runs, nil
}

// RerunAnalysis resets a finished run to pending and queues it again.
// Runs still queued or processing are rejected with models.ErrRunInProgress.
func (s *AnalysisRunService) RerunAnalysis(ctx context.Context, id int64) (*models.AnalysisRun, error) {
	if err := s.runs.ResetToPending(ctx, id); err != nil {
		return nil, err
	}
	if err := s.submit(ctx, id); err != nil {
		return nil, err
	}
	return s.runs.GetByID(ctx, id)
}

// RecoverRuns fails runs left processing by a previous process and requeues pending ones
func (s *AnalysisRunService) RecoverRuns(ctx context.Context) error {
	interrupted, err := s.runs.ListIDsByStatus(ctx, models.RunStatusProcessing)
	if err != nil {
		return err
	}
	for _, id := range interrupted {
		if err := s.runs.MarkAsFailed(ctx, id, "interrupted by server restart"); err != nil {
			return err
		}
	}

	pending, err := s.runs.ListIDsByStatus(ctx, models.RunStatusPending)
	if err != nil {
		return err
	}
	for _, id := range pending {
		if err := s.submit(ctx, id); err != nil {
			return err
		}
	}

	if len(interrupted) > 0 || len(pending) > 0 {
		s.logger.Info("Recovered runs", zap.Int("interrupted", len(interrupted)), zap.Int("requeued", len(pending)))
	}
	return nil
}

// submit queues a run; when the queue refuses it the run is marked failed
func (s *AnalysisRunService) submit(ctx context.Context, id int64) error {
	jobID, err := s.queue.Submit(id)
	if err != nil {
		if markErr := s.runs.MarkAsFailed(ctx, id, "could not queue run: "+err.Error()); markErr != nil {
			s.logger.Error("Failed to mark unqueued run", zap.Int64("run_id", id), zap.Error(markErr))
		}
		return fmt.Errorf("failed to queue run %d: %w", id, err)
	}
	s.logger.Debug("Run submitted", zap.Int64("run_id", id), zap.String("job_id", jobID))
	return nil
}

func validStatus(status string) bool {
	switch status {
	case models.RunStatusPending, models.RunStatusProcessing, models.RunStatusCompleted, models.RunStatusError:
		return true
	}
	return false
}

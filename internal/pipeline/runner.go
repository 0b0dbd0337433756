// Package pipeline executes one analysis run from claim to persisted results.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/analysis"
	_ "github.com/jengzang/moodtrail-backend-go/internal/analysis/passes"
	"github.com/jengzang/moodtrail-backend-go/internal/analysis/sentiment"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/source"
)

// RunStore is the run lifecycle persistence the runner needs
type RunStore interface {
	GetByID(ctx context.Context, id int64) (*models.AnalysisRun, error)
	ClaimForProcessing(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64, errorMessage string) error
}

// ResultStore is the derived-state persistence the runner needs
type ResultStore interface {
	ClearRun(ctx context.Context, runID int64) error
	SaveRunResults(ctx context.Context, runID int64, results *models.RunResults, resultSummary string) error
}

// Runner executes analysis runs
type Runner struct {
	runs    RunStore
	results ResultStore
	source  source.TraceSource
	deps    *analysis.Deps
	logger  *zap.Logger
}

// NewRunner creates a runner. src and deps.Oracle may be nil; runs then fail with a
// configuration error instead of the service refusing to start.
func NewRunner(runs RunStore, results ResultStore, src source.TraceSource, deps *analysis.Deps, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps == nil {
		deps = &analysis.Deps{}
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Runner{
		runs:    runs,
		results: results,
		source:  src,
		deps:    deps,
		logger:  logger.Named("runner"),
	}
}

// Execute claims a pending run and drives it to completed or error.
// The returned error is the reason the run failed; ErrRunNotPending means
// another execution owns the run and nothing was changed.
func (r *Runner) Execute(ctx context.Context, runID int64) (err error) {
	if err := r.runs.ClaimForProcessing(ctx, runID); err != nil {
		return err
	}

	logger := r.logger.With(zap.Int64("run_id", runID))
	start := time.Now()
	logger.Info("Analysis run started")

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during analysis: %v", p)
			logger.Error("Analysis run panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
		}
		if err != nil {
			r.fail(runID, err, logger)
			return
		}
		logger.Info("Analysis run completed", zap.Duration("elapsed", time.Since(start)))
	}()

	if err := r.results.ClearRun(ctx, runID); err != nil {
		return err
	}

	state, err := r.prepare(ctx, runID)
	if err != nil {
		return err
	}

	if err := analysis.RunPipeline(ctx, r.deps, state); err != nil {
		return err
	}

	results := state.Results()
	summary, err := json.Marshal(results.Summary())
	if err != nil {
		return fmt.Errorf("failed to encode result summary: %w", err)
	}
	return r.results.SaveRunResults(ctx, runID, results, string(summary))
}

// prepare validates configuration and fetches the run's traces
func (r *Runner) prepare(ctx context.Context, runID int64) (*analysis.RunState, error) {
	if r.source == nil {
		return nil, source.ErrSourceNotConfigured
	}
	if r.deps.Oracle == nil {
		return nil, sentiment.ErrOracleNotConfigured
	}

	run, err := r.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	window, err := run.Window()
	if err != nil {
		return nil, fmt.Errorf("invalid run window: %w", err)
	}

	state := &analysis.RunState{RunID: runID, Window: window}
	if state.Messages, err = r.source.FetchMessages(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	if state.Visits, err = r.source.FetchBrowserVisits(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to fetch browser history: %w", err)
	}
	if state.Fixes, err = r.source.FetchLocations(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}
	return state, nil
}

// fail records the error on the run and leaves its derived state empty.
// It uses a fresh context so a cancelled run is still marked.
func (r *Runner) fail(runID int64, cause error, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Error("Analysis run failed", zap.Error(cause))
	if err := r.results.ClearRun(ctx, runID); err != nil {
		logger.Error("Failed to clear partial results", zap.Error(err))
	}
	if err := r.runs.MarkAsFailed(ctx, runID, failureMessage(cause)); err != nil {
		logger.Error("Failed to mark run as failed", zap.Error(err))
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, sentiment.ErrOracleNotConfigured), errors.Is(err, source.ErrSourceNotConfigured):
		return "configuration error: " + err.Error()
	default:
		return err.Error()
	}
}

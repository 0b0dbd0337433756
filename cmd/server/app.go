package main

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jengzang/moodtrail-backend-go/internal/analysis"
	"github.com/jengzang/moodtrail-backend-go/internal/analysis/sentiment"
	"github.com/jengzang/moodtrail-backend-go/internal/config"
	"github.com/jengzang/moodtrail-backend-go/internal/database"
	"github.com/jengzang/moodtrail-backend-go/internal/pipeline"
	"github.com/jengzang/moodtrail-backend-go/internal/repository"
	"github.com/jengzang/moodtrail-backend-go/internal/source"
)

// app holds the collaborators shared by serve and analyze
type app struct {
	db      *sql.DB
	src     *source.SQLiteSource
	runs    *repository.AnalysisRunRepository
	results *repository.ResultRepository
	runner  *pipeline.Runner
}

// newApp opens the result store and wires the runner. A missing collector
// database or AWS credentials is not fatal: runs fail with a configuration error.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := database.Open(ctx, database.Config{Path: cfg.DBPath}, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		db:      db,
		runs:    repository.NewAnalysisRunRepository(db),
		results: repository.NewResultRepository(db),
	}

	var src source.TraceSource
	a.src, err = source.OpenSQLiteSource(ctx, cfg.SourceDBPath, logger.Named("source"))
	switch {
	case err == nil:
		src = a.src
	case errors.Is(err, source.ErrSourceNotConfigured):
		logger.Warn("Trace source unavailable; runs will fail until it is configured", zap.Error(err))
	default:
		db.Close()
		return nil, err
	}

	deps := &analysis.Deps{
		Logger: logger.Named("analysis"),
		Params: cfg.Analysis.Params(),
	}
	if oracle, err := sentiment.NewComprehendOracle(ctx, cfg.AWSRegion); err != nil {
		logger.Warn("Sentiment oracle unavailable; runs will fail until it is configured", zap.Error(err))
	} else {
		deps.Oracle = oracle
	}
	if cfg.OracleRPS > 0 {
		deps.Limiter = rate.NewLimiter(rate.Limit(cfg.OracleRPS), 1)
	}

	a.runner = pipeline.NewRunner(a.runs, a.results, src, deps, logger)
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.src != nil {
		errs = append(errs, a.src.Close())
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/moodtrail-backend-go/internal/api"
	"github.com/jengzang/moodtrail-backend-go/internal/handler"
	"github.com/jengzang/moodtrail-backend-go/internal/service"
	"github.com/jengzang/moodtrail-backend-go/internal/worker"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the analysis worker",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	queue := worker.NewQueue(a.runner, cfg.QueueCapacity, log)
	runSvc := service.NewAnalysisRunService(a.runs, queue, log)
	resultSvc := service.NewResultService(a.runs, a.results)

	if err := runSvc.RecoverRuns(ctx); err != nil {
		log.Error("Failed to recover runs", zap.Error(err))
	}

	router := api.SetupRouter(cfg, api.Handlers{
		Runs:    handler.NewAnalysisRunHandler(runSvc, resultSvc),
		Results: handler.NewResultHandler(resultSvc),
	}, log)
	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queue.Run(gctx)
	})
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

var (
	analyzeStart string
	analyzeEnd   string
	analyzeName  string
	analyzeRunID int64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis synchronously and print the finished run",
	Long: `Creates a run for --start/--end (or reruns --run-id) and executes it in the
foreground, bypassing the worker queue.

Example:
  moodtrail analyze --start 2024-01-01 --end 2024-03-31`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "first date of the window (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "last date of the window (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "run name")
	analyzeCmd.Flags().Int64Var(&analyzeRunID, "run-id", 0, "rerun an existing run instead of creating one")
	analyzeCmd.MarkFlagsRequiredTogether("start", "end")
	analyzeCmd.MarkFlagsMutuallyExclusive("start", "run-id")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	id := analyzeRunID
	if id > 0 {
		run, err := a.runs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if run.Status != models.RunStatusPending {
			if err := a.runs.ResetToPending(ctx, id); err != nil {
				return err
			}
		}
	} else {
		if analyzeStart == "" {
			return errors.New("either --start/--end or --run-id is required")
		}
		if _, err := models.NewDateRange(analyzeStart, analyzeEnd); err != nil {
			return fmt.Errorf("invalid window: %w", err)
		}
		name := analyzeName
		if name == "" {
			name = fmt.Sprintf("%s to %s", analyzeStart, analyzeEnd)
		}
		run := &models.AnalysisRun{Name: name, StartDate: analyzeStart, EndDate: analyzeEnd}
		if err := a.runs.Create(ctx, run); err != nil {
			return err
		}
		id = run.ID
	}

	execErr := a.runner.Execute(ctx, id)

	run, err := a.runs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if execErr != nil {
		log.Error("Analysis failed", zap.Int64("run_id", id), zap.Error(execErr))
		return execErr
	}
	return nil
}

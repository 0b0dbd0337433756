package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/moodtrail-backend-go/internal/database"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/repository"
	"github.com/jengzang/moodtrail-backend-go/internal/worker"
)

type fakeQueue struct {
	submitted []int64
	err       error
}

func (q *fakeQueue) Submit(runID int64) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.submitted = append(q.submitted, runID)
	return "job", nil
}

type fixture struct {
	runs    *repository.AnalysisRunRepository
	results *repository.ResultRepository
	queue   *fakeQueue
	svc     *AnalysisRunService
	res     *ResultService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{Path: filepath.Join(t.TempDir(), "svc.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		runs:    repository.NewAnalysisRunRepository(db),
		results: repository.NewResultRepository(db),
		queue:   &fakeQueue{},
	}
	f.svc = NewAnalysisRunService(f.runs, f.queue, nil)
	f.res = NewResultService(f.runs, f.results)
	return f
}

func TestCreateRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	run, err := f.svc.CreateRun(ctx, CreateRunRequest{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.Equal(t, "2024-01-01 to 2024-01-31", run.Name)
	assert.Equal(t, []int64{run.ID}, f.queue.submitted)
}

func TestCreateRun_Invalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateRun(ctx, CreateRunRequest{StartDate: "2024-02-01", EndDate: "2024-01-01"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.CreateRun(ctx, CreateRunRequest{StartDate: "soon", EndDate: "2024-01-01"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, f.queue.submitted)
}

func TestCreateRun_QueueFullMarksRunFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.queue.err = worker.ErrQueueFull

	_, err := f.svc.CreateRun(ctx, CreateRunRequest{Name: "x", StartDate: "2024-01-01", EndDate: "2024-01-02"})
	assert.ErrorIs(t, err, worker.ErrQueueFull)

	runs, err := f.svc.ListRuns(ctx, models.RunFilter{Status: models.RunStatusError})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].ErrorMessage, "queue")
}

func TestRerunAnalysis(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	run, err := f.svc.CreateRun(ctx, CreateRunRequest{StartDate: "2024-01-01", EndDate: "2024-01-02"})
	require.NoError(t, err)

	// still queued: no second submission, and a full queue cannot fail it
	f.queue.err = worker.ErrQueueFull
	_, err = f.svc.RerunAnalysis(ctx, run.ID)
	assert.ErrorIs(t, err, models.ErrRunInProgress)
	queued, err := f.runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, queued.Status)
	assert.Equal(t, []int64{run.ID}, f.queue.submitted)
	f.queue.err = nil

	require.NoError(t, f.runs.ClaimForProcessing(ctx, run.ID))
	_, err = f.svc.RerunAnalysis(ctx, run.ID)
	assert.ErrorIs(t, err, models.ErrRunInProgress)

	require.NoError(t, f.runs.MarkAsCompleted(ctx, run.ID, "{}"))
	rerun, err := f.svc.RerunAnalysis(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, rerun.Status)
	assert.Equal(t, []int64{run.ID, run.ID}, f.queue.submitted)

	_, err = f.svc.RerunAnalysis(ctx, 12345)
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}

func TestRecoverRuns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := &models.AnalysisRun{Name: "a", StartDate: "2024-01-01", EndDate: "2024-01-02"}
	b := &models.AnalysisRun{Name: "b", StartDate: "2024-01-01", EndDate: "2024-01-02"}
	require.NoError(t, f.runs.Create(ctx, a))
	require.NoError(t, f.runs.Create(ctx, b))
	require.NoError(t, f.runs.ClaimForProcessing(ctx, a.ID))

	require.NoError(t, f.svc.RecoverRuns(ctx))

	stuck, err := f.runs.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusError, stuck.Status)
	assert.Equal(t, []int64{b.ID}, f.queue.submitted)
}

func TestListRuns_InvalidStatus(t *testing.T) {
	_, err := newFixture(t).svc.ListRuns(context.Background(), models.RunFilter{Status: "sleeping"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResultService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	run := &models.AnalysisRun{Name: "r", StartDate: "2024-01-01", EndDate: "2024-01-31"}
	require.NoError(t, f.runs.Create(ctx, run))

	var correlations []models.CorrelationResult
	for i, r := range []float64{0.9, 0.5, -0.2, -0.8} {
		correlations = append(correlations, models.CorrelationResult{
			Dimension:         models.DimensionWebsite,
			Entity:            string(rune('a' + i)),
			Correlation:       r,
			DaysPresent:       2,
			DaysAbsent:        2,
			SignificanceScore: float64(i) / 10,
		})
	}
	require.NoError(t, f.results.SaveRunResults(ctx, run.ID, &models.RunResults{
		Days: []models.DailySentiment{
			{Date: "2024-01-01", Sentiment: 0.5, MessageCount: 1},
			{Date: "2024-01-02", Sentiment: -0.5, MessageCount: 1},
		},
		Places: []models.PlaceCluster{
			{Rank: 1, VisitCount: 4, TotalDwellMinutes: 120},
		},
		Correlations: correlations,
	}, "{}"))

	days, err := f.res.GetDays(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "Positive", days[0].Label)
	assert.Equal(t, "Negative", days[1].Label)

	_, err = f.res.GetDays(ctx, 999)
	assert.ErrorIs(t, err, models.ErrRunNotFound)

	places, err := f.res.MostVisitedPlaces(ctx, models.PlaceFilter{RunID: run.ID})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.InDelta(t, 30.0, places[0].AverageDwellMinutes, 1e-9)

	positive, err := f.res.Correlations(ctx, "website", models.CorrelationFilter{RunID: run.ID, View: models.ViewPositive})
	require.NoError(t, err)
	require.Len(t, positive, 2)
	assert.Equal(t, "a", positive[0].Entity)

	negative, err := f.res.Correlations(ctx, "website", models.CorrelationFilter{View: models.ViewNegative, Limit: 1})
	require.NoError(t, err)
	require.Len(t, negative, 1)
	assert.Equal(t, "d", negative[0].Entity)

	significant, err := f.res.Correlations(ctx, "website", models.CorrelationFilter{View: models.ViewSignificant})
	require.NoError(t, err)
	assert.Equal(t, "d", significant[0].Entity)

	_, err = f.res.Correlations(ctx, "weather", models.CorrelationFilter{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.res.Correlations(ctx, "website", models.CorrelationFilter{View: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

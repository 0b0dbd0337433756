package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/moodtrail-backend-go/internal/database"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{Path: filepath.Join(t.TempDir(), "results.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createRun(t *testing.T, runs *AnalysisRunRepository) *models.AnalysisRun {
	t.Helper()
	run := &models.AnalysisRun{Name: "January", StartDate: "2024-01-01", EndDate: "2024-01-31"}
	require.NoError(t, runs.Create(context.Background(), run))
	return run
}

func sampleResults() *models.RunResults {
	first := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	return &models.RunResults{
		Days: []models.DailySentiment{
			{Date: "2024-01-02", Sentiment: 0.5, MessageCount: 2},
			{Date: "2024-01-03", Sentiment: -0.25, MessageCount: 1},
		},
		Messages: []models.ScoredMessage{
			{Date: "2024-01-02", Text: "yay", Sentiment: 0.9, Source: models.SourceIMessage, Contact: "Alice", Timestamp: "2024-01-02 10:00:00"},
			{Date: "2024-01-02", Text: "ok", Sentiment: 0.1, Source: models.SourceWhatsApp},
			{Date: "2024-01-03", Text: "meh", Sentiment: -0.25, Source: models.SourceIMessage},
		},
		Places: []models.PlaceCluster{
			{
				Rank: 1, Name: "Home", CenterLatitude: 40, CenterLongitude: -74,
				VisitCount: 5, TotalDwellMinutes: 100,
				FirstVisit: first, LastVisit: first.Add(48 * time.Hour),
				ActivityTypes: map[string]int{"still": 5},
				VisitDates:    []string{"2024-01-02", "2024-01-03"},
			},
			{
				Rank: 2, Name: "Office", CenterLatitude: 40.1, CenterLongitude: -74,
				VisitCount: 2, TotalDwellMinutes: 600,
				FirstVisit: first, LastVisit: first.Add(time.Hour),
			},
		},
		Correlations: []models.CorrelationResult{
			{Dimension: models.DimensionWebsite, Entity: "a.com", ExampleURL: "https://a.com/x", Correlation: 0.8, DaysPresent: 2, DaysAbsent: 3, TotalOccurrences: 4, SignificanceScore: 0.16},
			{Dimension: models.DimensionPerson, Entity: "Alice", Correlation: -0.3, DaysPresent: 3, DaysAbsent: 2, TotalOccurrences: 3, SignificanceScore: 0.06},
		},
	}
}

func TestAnalysisRunRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	runs := NewAnalysisRunRepository(openDB(t))

	run := createRun(t, runs)
	assert.NotZero(t, run.ID)
	assert.Equal(t, models.RunStatusPending, run.Status)
	assert.False(t, run.CreatedAt.IsZero())
	// a queued run is not reset again
	assert.ErrorIs(t, runs.ResetToPending(ctx, run.ID), models.ErrRunInProgress)

	require.NoError(t, runs.ClaimForProcessing(ctx, run.ID))
	// a second claim loses
	assert.ErrorIs(t, runs.ClaimForProcessing(ctx, run.ID), models.ErrRunNotPending)
	// rerun is rejected while processing
	assert.ErrorIs(t, runs.ResetToPending(ctx, run.ID), models.ErrRunInProgress)

	got, err := runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusProcessing, got.Status)
	assert.NotZero(t, got.StartedAt)

	require.NoError(t, runs.MarkAsFailed(ctx, run.ID, "oracle exploded"))
	got, err = runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusError, got.Status)
	assert.Equal(t, "oracle exploded", got.ErrorMessage)

	require.NoError(t, runs.ResetToPending(ctx, run.ID))
	got, err = runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, got.Status)
	assert.Empty(t, got.ErrorMessage)

	ids, err := runs.ListIDsByStatus(ctx, models.RunStatusPending)
	require.NoError(t, err)
	assert.Equal(t, []int64{run.ID}, ids)
}

func TestAnalysisRunRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	runs := NewAnalysisRunRepository(openDB(t))

	_, err := runs.GetByID(ctx, 404)
	assert.ErrorIs(t, err, models.ErrRunNotFound)
	assert.ErrorIs(t, runs.ClaimForProcessing(ctx, 404), models.ErrRunNotFound)
	assert.ErrorIs(t, runs.ResetToPending(ctx, 404), models.ErrRunNotFound)
}

func TestAnalysisRunRepository_List(t *testing.T) {
	ctx := context.Background()
	runs := NewAnalysisRunRepository(openDB(t))

	first := createRun(t, runs)
	second := createRun(t, runs)
	require.NoError(t, runs.ClaimForProcessing(ctx, second.ID))

	all, err := runs.List(ctx, models.RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	pending, err := runs.List(ctx, models.RunFilter{Status: models.RunStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	paged, err := runs.List(ctx, models.RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, first.ID, paged[0].ID)

	none, err := runs.List(ctx, models.RunFilter{StartDate: "2024-02-01"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestResultRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	runs := NewAnalysisRunRepository(db)
	results := NewResultRepository(db)

	run := createRun(t, runs)
	require.NoError(t, runs.ClaimForProcessing(ctx, run.ID))
	want := sampleResults()
	require.NoError(t, results.SaveRunResults(ctx, run.ID, want, `{"days":2}`))

	got, err := results.LoadRunResults(ctx, run.ID)
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.IgnoreFields(models.DailySentiment{}, "ID", "RunID"),
		cmpopts.IgnoreFields(models.ScoredMessage{}, "ID", "RunID"),
		cmpopts.IgnoreFields(models.PlaceCluster{}, "ID", "RunID", "Members"),
		cmpopts.IgnoreFields(models.CorrelationResult{}, "ID", "RunID"),
		cmpopts.EquateEmpty(),
	}
	if diff := cmp.Diff(want.Days, got.Days, opts); diff != "" {
		t.Errorf("days mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Messages, got.Messages, opts); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Places, got.Places, opts); diff != "" {
		t.Errorf("places mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Correlations, got.Correlations, opts); diff != "" {
		t.Errorf("correlations mismatch (-want +got):\n%s", diff)
	}

	stored, err := runs.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	assert.Equal(t, `{"days":2}`, stored.ResultSummary)
}

func TestResultRepository_SaveReplacesAndIsScopedPerRun(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	runs := NewAnalysisRunRepository(db)
	results := NewResultRepository(db)

	a := createRun(t, runs)
	b := createRun(t, runs)
	require.NoError(t, results.SaveRunResults(ctx, a.ID, sampleResults(), ""))
	require.NoError(t, results.SaveRunResults(ctx, b.ID, sampleResults(), ""))

	// saving twice does not duplicate rows or violate UNIQUE(run_id, date)
	require.NoError(t, results.SaveRunResults(ctx, a.ID, sampleResults(), ""))
	days, err := results.ListDays(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, days, 2)

	require.NoError(t, results.ClearRun(ctx, a.ID))
	cleared, err := results.LoadRunResults(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Days)
	assert.Empty(t, cleared.Messages)
	assert.Empty(t, cleared.Places)
	assert.Empty(t, cleared.Correlations)

	kept, err := results.LoadRunResults(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, kept.Days, 2)
	assert.Len(t, kept.Correlations, 2)
}

func TestResultRepository_SaveRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	runs := NewAnalysisRunRepository(db)
	results := NewResultRepository(db)

	run := createRun(t, runs)
	require.NoError(t, results.SaveRunResults(ctx, run.ID, sampleResults(), ""))

	bad := sampleResults()
	bad.Days = append(bad.Days, bad.Days[0]) // duplicate date
	assert.Error(t, results.SaveRunResults(ctx, run.ID, bad, ""))

	got, err := results.LoadRunResults(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, got.Days, 2)
	assert.Len(t, got.Messages, 3)
}

func TestResultRepository_RankedViews(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	runs := NewAnalysisRunRepository(db)
	results := NewResultRepository(db)

	run := createRun(t, runs)
	require.NoError(t, results.SaveRunResults(ctx, run.ID, sampleResults(), ""))

	happiest, err := results.ListMessages(ctx, models.MessageFilter{RunID: run.ID, Limit: 2}, false)
	require.NoError(t, err)
	require.Len(t, happiest, 2)
	assert.Equal(t, "yay", happiest[0].Text)
	assert.Equal(t, "ok", happiest[1].Text)

	saddest, err := results.ListMessages(ctx, models.MessageFilter{Date: "2024-01-02"}, true)
	require.NoError(t, err)
	require.Len(t, saddest, 2)
	assert.Equal(t, "ok", saddest[0].Text)

	visited, err := results.ListPlaces(ctx, models.PlaceFilter{RunID: run.ID}, PlaceOrderVisits)
	require.NoError(t, err)
	require.Len(t, visited, 2)
	assert.Equal(t, "Home", visited[0].Name)

	longest, err := results.ListPlaces(ctx, models.PlaceFilter{RunID: run.ID, Limit: 1}, PlaceOrderDwell)
	require.NoError(t, err)
	require.Len(t, longest, 1)
	assert.Equal(t, "Office", longest[0].Name)

	_, err = results.ListPlaces(ctx, models.PlaceFilter{}, "name; DROP TABLE place_clusters")
	assert.Error(t, err)
}

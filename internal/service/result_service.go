package service

import (
	"context"
	"fmt"

	"github.com/jengzang/moodtrail-backend-go/internal/analysis/correlation"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/repository"
)

// DayView is a daily sentiment with its label
type DayView struct {
	models.DailySentiment
	Label string `json:"label"`
}

// PlaceView is a place cluster with its derived average dwell
type PlaceView struct {
	models.PlaceCluster
	AverageDwellMinutes float64 `json:"average_dwell_minutes"`
}

// ResultService serves the derived state of analysis runs
type ResultService struct {
	runs    *repository.AnalysisRunRepository
	results *repository.ResultRepository
}

// NewResultService creates a new result service
func NewResultService(runs *repository.AnalysisRunRepository, results *repository.ResultRepository) *ResultService {
	return &ResultService{runs: runs, results: results}
}

// GetDays returns a run's daily sentiment trajectory
func (s *ResultService) GetDays(ctx context.Context, runID int64) ([]DayView, error) {
	if _, err := s.runs.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	days, err := s.results.ListDays(ctx, runID)
	if err != nil {
		return nil, err
	}

	views := make([]DayView, len(days))
	for i, d := range days {
		views[i] = DayView{DailySentiment: d, Label: d.Label()}
	}
	return views, nil
}

// HappiestMessages returns the highest scored messages
func (s *ResultService) HappiestMessages(ctx context.Context, filter models.MessageFilter) ([]models.ScoredMessage, error) {
	return s.results.ListMessages(ctx, filter, false)
}

// SaddestMessages returns the lowest scored messages
func (s *ResultService) SaddestMessages(ctx context.Context, filter models.MessageFilter) ([]models.ScoredMessage, error) {
	return s.results.ListMessages(ctx, filter, true)
}

// MostVisitedPlaces ranks places by visit count
func (s *ResultService) MostVisitedPlaces(ctx context.Context, filter models.PlaceFilter) ([]PlaceView, error) {
	return s.places(ctx, filter, repository.PlaceOrderVisits)
}

// LongestStays ranks places by accumulated dwell time
func (s *ResultService) LongestStays(ctx context.Context, filter models.PlaceFilter) ([]PlaceView, error) {
	return s.places(ctx, filter, repository.PlaceOrderDwell)
}

func (s *ResultService) places(ctx context.Context, filter models.PlaceFilter, order string) ([]PlaceView, error) {
	places, err := s.results.ListPlaces(ctx, filter, order)
	if err != nil {
		return nil, err
	}
	views := make([]PlaceView, len(places))
	for i := range places {
		views[i] = PlaceView{PlaceCluster: places[i], AverageDwellMinutes: places[i].AverageDwellMinutes()}
	}
	return views, nil
}

// Correlations returns one dimension's results through a named view
func (s *ResultService) Correlations(ctx context.Context, dimension string, filter models.CorrelationFilter) ([]models.CorrelationResult, error) {
	dim, err := models.ParseDimension(dimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	results, err := s.results.ListCorrelations(ctx, filter.RunID, dim)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit == 0 {
		limit = models.DefaultListLimit
	}
	view, err := correlation.ApplyView(results, filter.View, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return view, nil
}

package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jengzang/moodtrail-backend-go/internal/analysis/sentiment"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

// Analyzer is one pass of the correlation pipeline
type Analyzer interface {
	// Analyze reads what earlier passes left in state and adds its own output
	Analyze(ctx context.Context, state *RunState) error

	// GetName returns the name of the analyzer
	GetName() string
}

// Params holds the tunable thresholds shared by the passes
type Params struct {
	StayDistanceMeters    float64
	StayTimeMinutes       float64
	ClusterDistanceMeters float64
	MinClusterVisits      int

	BatchSize     int
	LanguageCode  string
	RetryAttempts int

	PlaceMinDwellMinutes float64
	PlacePresenceMode    string
}

// Deps are the collaborators an analyzer may use
type Deps struct {
	Oracle     sentiment.Oracle
	Limiter    *rate.Limiter
	NewBackOff func() backoff.BackOff
	Logger     *zap.Logger
	Params     Params
}

// RunState carries the inputs of one run and the outputs of each pass
type RunState struct {
	RunID  int64
	Window models.DateRange

	// Inputs
	Messages []models.Message
	Visits   []models.BrowserVisit
	Fixes    []models.GPSFix

	// Filled by passes
	Dwells          []models.DwellEvent
	Places          []models.PlaceCluster
	Days            []models.DailySentiment
	ScoredMessages  []models.ScoredMessage
	ContactPresence map[string]map[string]int
	Correlations    []models.CorrelationResult
	IngestStats     sentiment.IngestStats
}

// Results collects the persisted part of the state
func (s *RunState) Results() *models.RunResults {
	return &models.RunResults{
		Days:         s.Days,
		Messages:     s.ScoredMessages,
		Places:       s.Places,
		Correlations: s.Correlations,
	}
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	Name   string
	Deps   *Deps
	Logger *zap.Logger
}

// NewBaseAnalyzer creates a new base analyzer with a logger named after it
func NewBaseAnalyzer(deps *Deps, name string) *BaseAnalyzer {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseAnalyzer{
		Name:   name,
		Deps:   deps,
		Logger: logger.Named(name),
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(deps *Deps) Analyzer

// AnalyzerRegistry maps pass names to analyzer factories
var AnalyzerRegistry = make(map[string]AnalyzerFactory)

// Pass names
const (
	PassLocationClustering = "location_clustering"
	PassSentimentIngestion = "sentiment_ingestion"
	PassWebsiteCorrelation = "website_correlation"
	PassPersonCorrelation  = "person_correlation"
	PassPlaceCorrelation   = "place_correlation"
)

// PipelineOrder is the order passes run in; correlation passes need days and places
var PipelineOrder = []string{
	PassLocationClustering,
	PassSentimentIngestion,
	PassWebsiteCorrelation,
	PassPersonCorrelation,
	PassPlaceCorrelation,
}

// RegisterAnalyzer registers an analyzer factory for a pass name
func RegisterAnalyzer(name string, factory AnalyzerFactory) {
	AnalyzerRegistry[name] = factory
}

// GetAnalyzer retrieves an analyzer instance for a pass name
func GetAnalyzer(name string, deps *Deps) Analyzer {
	factory, ok := AnalyzerRegistry[name]
	if !ok {
		return nil
	}
	return factory(deps)
}

// RegisteredNames lists registered passes in name order
func RegisteredNames() []string {
	names := make([]string, 0, len(AnalyzerRegistry))
	for name := range AnalyzerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunPipeline executes every pass in PipelineOrder against state
func RunPipeline(ctx context.Context, deps *Deps, state *RunState) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, name := range PipelineOrder {
		analyzer := GetAnalyzer(name, deps)
		if analyzer == nil {
			return fmt.Errorf("analyzer not registered: %s", name)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		if err := analyzer.Analyze(ctx, state); err != nil {
			return fmt.Errorf("%s failed: %w", name, err)
		}
		logger.Debug("Pass complete",
			zap.String("pass", name),
			zap.Int64("run_id", state.RunID),
			zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}

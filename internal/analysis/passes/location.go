// Package passes holds the analyzers that make up a correlation run.
package passes

import (
	"context"

	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/analysis"
	"github.com/jengzang/moodtrail-backend-go/internal/analysis/cluster"
	"github.com/jengzang/moodtrail-backend-go/internal/analysis/staypoint"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

func init() {
	analysis.RegisterAnalyzer(analysis.PassLocationClustering, NewLocationClusteringAnalyzer)
}

// LocationClusteringAnalyzer turns GPS fixes into dwell events and recurring places
type LocationClusteringAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewLocationClusteringAnalyzer creates a new location clustering analyzer
func NewLocationClusteringAnalyzer(deps *analysis.Deps) analysis.Analyzer {
	return &LocationClusteringAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(deps, analysis.PassLocationClustering),
	}
}

// Analyze detects stay points within the window and clusters them
func (a *LocationClusteringAnalyzer) Analyze(ctx context.Context, state *analysis.RunState) error {
	p := a.Deps.Params

	fixes := make([]models.GPSFix, 0, len(state.Fixes))
	for _, f := range state.Fixes {
		if state.Window.Contains(f.Timestamp) {
			fixes = append(fixes, f)
		}
	}
	staypoint.SortFixes(fixes)

	detector := staypoint.NewDetector(p.StayDistanceMeters, p.StayTimeMinutes)
	state.Dwells = detector.DetectAll(fixes)

	clusterer := cluster.NewClusterer(p.ClusterDistanceMeters, p.MinClusterVisits, a.Logger)
	state.Places = clusterer.Cluster(state.Dwells)
	for i := range state.Places {
		state.Places[i].RunID = state.RunID
	}

	a.Logger.Info("Location clustering complete",
		zap.Int64("run_id", state.RunID),
		zap.Int("fixes", len(fixes)),
		zap.Int("dwell_events", len(state.Dwells)),
		zap.Int("places", len(state.Places)))
	return nil
}

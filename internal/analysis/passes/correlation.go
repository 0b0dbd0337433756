package passes

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/analysis"
	"github.com/jengzang/moodtrail-backend-go/internal/analysis/correlation"
	"github.com/jengzang/moodtrail-backend-go/internal/analysis/sentiment"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

func init() {
	analysis.RegisterAnalyzer(analysis.PassWebsiteCorrelation, NewWebsiteCorrelationAnalyzer)
	analysis.RegisterAnalyzer(analysis.PassPersonCorrelation, NewPersonCorrelationAnalyzer)
	analysis.RegisterAnalyzer(analysis.PassPlaceCorrelation, NewPlaceCorrelationAnalyzer)
}

// presenceFunc derives a dimension's presence and analysis options from the run state
type presenceFunc func(a *CorrelationAnalyzer, state *analysis.RunState) (correlation.Presence, correlation.Options, error)

// CorrelationAnalyzer correlates one dimension's daily presence with daily sentiment
type CorrelationAnalyzer struct {
	*analysis.BaseAnalyzer
	dimension models.Dimension
	presence  presenceFunc
}

// NewWebsiteCorrelationAnalyzer correlates visited domains with sentiment
func NewWebsiteCorrelationAnalyzer(deps *analysis.Deps) analysis.Analyzer {
	return &CorrelationAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(deps, analysis.PassWebsiteCorrelation),
		dimension:    models.DimensionWebsite,
		presence:     websitePresence,
	}
}

// NewPersonCorrelationAnalyzer correlates messaged contacts with sentiment
func NewPersonCorrelationAnalyzer(deps *analysis.Deps) analysis.Analyzer {
	return &CorrelationAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(deps, analysis.PassPersonCorrelation),
		dimension:    models.DimensionPerson,
		presence:     personPresence,
	}
}

// NewPlaceCorrelationAnalyzer correlates recurring places with sentiment
func NewPlaceCorrelationAnalyzer(deps *analysis.Deps) analysis.Analyzer {
	return &CorrelationAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(deps, analysis.PassPlaceCorrelation),
		dimension:    models.DimensionPlace,
		presence:     placePresence,
	}
}

// Analyze appends this dimension's results to the state
func (a *CorrelationAnalyzer) Analyze(ctx context.Context, state *analysis.RunState) error {
	if len(state.Days) == 0 {
		a.Logger.Info("No sentiment days, skipping correlation", zap.Int64("run_id", state.RunID))
		return nil
	}

	presence, opts, err := a.presence(a, state)
	if err != nil {
		return err
	}

	results := correlation.Analyze(state.Days, presence, opts)
	for i := range results {
		results[i].RunID = state.RunID
	}
	state.Correlations = append(state.Correlations, results...)

	a.Logger.Info("Correlation complete",
		zap.Int64("run_id", state.RunID),
		zap.String("dimension", string(a.dimension)),
		zap.Int("entities", countEntities(presence)),
		zap.Int("results", len(results)))
	return nil
}

func websitePresence(a *CorrelationAnalyzer, state *analysis.RunState) (correlation.Presence, correlation.Options, error) {
	dp := sentiment.BuildDomainPresence(state.Window, state.Visits, a.Logger)

	opts := correlation.DefaultOptions(models.DimensionWebsite)
	opts.ExampleURLs = dp.ExampleURLs
	return correlation.Presence(dp.Days), opts, nil
}

func personPresence(a *CorrelationAnalyzer, state *analysis.RunState) (correlation.Presence, correlation.Options, error) {
	return correlation.Presence(state.ContactPresence), correlation.DefaultOptions(models.DimensionPerson), nil
}

func placePresence(a *CorrelationAnalyzer, state *analysis.RunState) (correlation.Presence, correlation.Options, error) {
	p := a.Deps.Params
	presence, totals, err := correlation.PlacePresence(state.Places, state.Window, correlation.PlacePresenceOptions{
		MinDwellMinutes: p.PlaceMinDwellMinutes,
		Mode:            p.PlacePresenceMode,
	})
	if err != nil {
		return nil, correlation.Options{}, err
	}

	labels := make(map[string]string, len(state.Places))
	for _, pc := range state.Places {
		label := pc.Name
		if label == "" {
			label = fmt.Sprintf("Location %d", pc.Rank)
		}
		labels[pc.EntityKey()] = label
	}

	opts := correlation.DefaultOptions(models.DimensionPlace)
	opts.Totals = totals
	opts.Labels = labels
	return presence, opts, nil
}

func countEntities(p correlation.Presence) int {
	seen := make(map[string]struct{})
	for _, entities := range p {
		for e := range entities {
			seen[e] = struct{}{}
		}
	}
	return len(seen)
}

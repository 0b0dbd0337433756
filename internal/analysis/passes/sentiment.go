package passes

import (
	"context"

	"github.com/jengzang/moodtrail-backend-go/internal/analysis"
	"github.com/jengzang/moodtrail-backend-go/internal/analysis/sentiment"
)

func init() {
	analysis.RegisterAnalyzer(analysis.PassSentimentIngestion, NewSentimentIngestionAnalyzer)
}

// SentimentIngestionAnalyzer scores messages and builds the daily sentiment trajectory
type SentimentIngestionAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewSentimentIngestionAnalyzer creates a new sentiment ingestion analyzer
func NewSentimentIngestionAnalyzer(deps *analysis.Deps) analysis.Analyzer {
	return &SentimentIngestionAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(deps, analysis.PassSentimentIngestion),
	}
}

// Analyze runs the ingestion pipeline over the run's messages
func (a *SentimentIngestionAnalyzer) Analyze(ctx context.Context, state *analysis.RunState) error {
	p := a.Deps.Params
	pipeline := &sentiment.Pipeline{
		Oracle:        a.Deps.Oracle,
		BatchSize:     p.BatchSize,
		LanguageCode:  p.LanguageCode,
		RetryAttempts: p.RetryAttempts,
		NewBackOff:    a.Deps.NewBackOff,
		Limiter:       a.Deps.Limiter,
		Logger:        a.Logger,
	}

	ingestion, err := pipeline.Ingest(ctx, state.Window, state.Messages)
	if err != nil {
		return err
	}

	for i := range ingestion.Days {
		ingestion.Days[i].RunID = state.RunID
	}
	for i := range ingestion.Messages {
		ingestion.Messages[i].RunID = state.RunID
	}

	state.Days = ingestion.Days
	state.ScoredMessages = ingestion.Messages
	state.ContactPresence = ingestion.ContactPresence
	state.IngestStats = ingestion.Stats
	return nil
}

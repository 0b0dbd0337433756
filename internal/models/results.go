package models

// RunResults is the complete derived state of one analysis run, persisted atomically
type RunResults struct {
	Days         []DailySentiment    `json:"days"`
	Messages     []ScoredMessage     `json:"messages"`
	Places       []PlaceCluster      `json:"places"`
	Correlations []CorrelationResult `json:"correlations"`
}

// RunSummary is the short description stored on a completed run
type RunSummary struct {
	Days         int            `json:"days"`
	Messages     int            `json:"messages"`
	Places       int            `json:"places"`
	Correlations map[string]int `json:"correlations"` // Per dimension
}

// Summary counts the result set
func (r *RunResults) Summary() RunSummary {
	s := RunSummary{
		Days:         len(r.Days),
		Messages:     len(r.Messages),
		Places:       len(r.Places),
		Correlations: make(map[string]int, len(Dimensions)),
	}
	for _, d := range Dimensions {
		s.Correlations[string(d)] = 0
	}
	for _, c := range r.Correlations {
		s.Correlations[string(c.Dimension)]++
	}
	return s
}

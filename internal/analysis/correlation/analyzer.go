// Package correlation relates per-day entity presence to daily sentiment.
package correlation

import (
	"math"
	"sort"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/stats"
)

// DefaultMinOccurrences is the minimum number of present days for websites and persons
const DefaultMinOccurrences = 3

// minDaysPerCondition is the minimum number of present and of absent days
const minDaysPerCondition = 2

// Presence maps date (YYYY-MM-DD) -> entity -> occurrence count on that day.
// Analyze only uses whether the count is positive.
type Presence map[string]map[string]int

// Add records n occurrences of entity on date
func (p Presence) Add(date, entity string, n int) {
	if p[date] == nil {
		p[date] = make(map[string]int)
	}
	p[date][entity] += n
}

// Options controls one dimension's analysis
type Options struct {
	Dimension models.Dimension
	// MinOccurrences rejects entities whose total is lower; 0 disables the check
	MinOccurrences int
	// Totals overrides the total per entity (places report visit count).
	// Without an override the total is the number of present analyzed days.
	Totals map[string]int
	// Labels gives a display name per entity
	Labels map[string]string
	// ExampleURLs gives a representative URL per website entity
	ExampleURLs map[string]string
}

// DefaultOptions returns the thresholds used for a dimension
func DefaultOptions(dim models.Dimension) Options {
	opts := Options{Dimension: dim}
	switch dim {
	case models.DimensionWebsite, models.DimensionPerson:
		opts.MinOccurrences = DefaultMinOccurrences
	}
	return opts
}

// Analyze computes a correlation result for every entity present on at least one
// analyzed day. Entities lacking support are skipped. Results are ordered by
// correlation desc, then entity asc.
func Analyze(days []models.DailySentiment, presence Presence, opts Options) []models.CorrelationResult {
	if len(days) == 0 {
		return nil
	}

	sentiments := make([]float64, len(days))
	entitySet := make(map[string]struct{})
	for i, d := range days {
		sentiments[i] = d.Sentiment
		for entity := range presence[d.Date] {
			entitySet[entity] = struct{}{}
		}
	}

	entities := make([]string, 0, len(entitySet))
	for e := range entitySet {
		entities = append(entities, e)
	}
	sort.Strings(entities)

	var results []models.CorrelationResult
	for _, entity := range entities {
		r, ok := analyzeEntity(entity, days, sentiments, presence, opts)
		if ok {
			results = append(results, r)
		}
	}

	SortCanonical(results)
	return results
}

func analyzeEntity(entity string, days []models.DailySentiment, sentiments []float64, presence Presence, opts Options) (models.CorrelationResult, bool) {
	mask := make([]bool, len(days))
	var present, absent []float64
	total := 0
	for i, d := range days {
		if presence[d.Date][entity] > 0 {
			mask[i] = true
			present = append(present, d.Sentiment)
			total++
		} else {
			absent = append(absent, d.Sentiment)
		}
	}

	if t, ok := opts.Totals[entity]; ok {
		total = t
	}

	if len(present) < minDaysPerCondition || len(absent) < minDaysPerCondition {
		return models.CorrelationResult{}, false
	}
	if opts.MinOccurrences > 0 && total < opts.MinOccurrences {
		return models.CorrelationResult{}, false
	}

	r := stats.PearsonCorrelation(sentiments, stats.BinaryVector(mask))
	return models.CorrelationResult{
		Dimension:           opts.Dimension,
		Entity:              entity,
		Label:               opts.Labels[entity],
		ExampleURL:          opts.ExampleURLs[entity],
		Correlation:         r,
		DaysPresent:         len(present),
		DaysAbsent:          len(absent),
		AvgSentimentPresent: stats.Mean(present),
		AvgSentimentAbsent:  stats.Mean(absent),
		TotalOccurrences:    total,
		SignificanceScore:   Significance(r, len(present), len(absent)),
	}, true
}

// Significance weights correlation strength by the smaller condition's sample size
func Significance(r float64, daysPresent, daysAbsent int) float64 {
	return math.Abs(r) * float64(min(daysPresent, daysAbsent)) / 10.0
}

// SortCanonical orders results by correlation desc, then entity asc
func SortCanonical(results []models.CorrelationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Correlation != results[j].Correlation {
			return results[i].Correlation > results[j].Correlation
		}
		return results[i].Entity < results[j].Entity
	})
}

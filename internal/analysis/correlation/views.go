package correlation

import (
	"fmt"
	"sort"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

// MostPositive returns results with r > 0, strongest first
func MostPositive(results []models.CorrelationResult, limit int) []models.CorrelationResult {
	out := filter(results, func(r models.CorrelationResult) bool { return r.Correlation > 0 })
	sortBy(out, func(a, b models.CorrelationResult) bool { return a.Correlation > b.Correlation })
	return truncate(out, limit)
}

// MostNegative returns results with r < 0, most negative first
func MostNegative(results []models.CorrelationResult, limit int) []models.CorrelationResult {
	out := filter(results, func(r models.CorrelationResult) bool { return r.Correlation < 0 })
	sortBy(out, func(a, b models.CorrelationResult) bool { return a.Correlation < b.Correlation })
	return truncate(out, limit)
}

// MostSignificant returns results ordered by significance score desc
func MostSignificant(results []models.CorrelationResult, limit int) []models.CorrelationResult {
	out := filter(results, func(models.CorrelationResult) bool { return true })
	sortBy(out, func(a, b models.CorrelationResult) bool { return a.SignificanceScore > b.SignificanceScore })
	return truncate(out, limit)
}

// ApplyView dispatches a named view. A limit <= 0 returns every match.
func ApplyView(results []models.CorrelationResult, view string, limit int) ([]models.CorrelationResult, error) {
	switch view {
	case "", models.ViewAll:
		out := filter(results, func(models.CorrelationResult) bool { return true })
		SortCanonical(out)
		return truncate(out, limit), nil
	case models.ViewPositive:
		return MostPositive(results, limit), nil
	case models.ViewNegative:
		return MostNegative(results, limit), nil
	case models.ViewSignificant:
		return MostSignificant(results, limit), nil
	default:
		return nil, fmt.Errorf("unknown view: %s", view)
	}
}

func filter(results []models.CorrelationResult, keep func(models.CorrelationResult) bool) []models.CorrelationResult {
	out := make([]models.CorrelationResult, 0, len(results))
	for _, r := range results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// sortBy sorts by less, then entity asc for a stable total order
func sortBy(results []models.CorrelationResult, less func(a, b models.CorrelationResult) bool) {
	sort.SliceStable(results, func(i, j int) bool {
		if less(results[i], results[j]) {
			return true
		}
		if less(results[j], results[i]) {
			return false
		}
		return results[i].Entity < results[j].Entity
	})
}

func truncate(results []models.CorrelationResult, limit int) []models.CorrelationResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

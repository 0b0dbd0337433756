package correlation

import (
	"fmt"
	"time"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

// Place presence modes
const (
	// PlaceModeSpread marks a place on visit_count days spread evenly across its
	// first..last visit span. Clusters only need aggregate statistics.
	PlaceModeSpread = "spread"
	// PlaceModeExact marks a place on the start date of each member dwell
	PlaceModeExact = "exact"
)

// DefaultPlaceMinDwellMinutes is the accumulated dwell time a place needs to count as present
const DefaultPlaceMinDwellMinutes = 60.0

// PlacePresenceOptions configures PlacePresence
type PlacePresenceOptions struct {
	MinDwellMinutes float64
	Mode            string
}

// PlacePresence derives per-day place presence and the per-place occurrence totals.
// Entities are keyed by models.PlaceEntityKey.
func PlacePresence(clusters []models.PlaceCluster, window models.DateRange, opts PlacePresenceOptions) (Presence, map[string]int, error) {
	if opts.MinDwellMinutes <= 0 {
		opts.MinDwellMinutes = DefaultPlaceMinDwellMinutes
	}

	presence := make(Presence)
	totals := make(map[string]int, len(clusters))

	for i := range clusters {
		pc := &clusters[i]
		key := pc.EntityKey()
		totals[key] = pc.VisitCount

		if pc.TotalDwellMinutes < opts.MinDwellMinutes {
			continue
		}

		switch opts.Mode {
		case "", PlaceModeSpread:
			markSpread(presence, pc, key, window)
		case PlaceModeExact:
			for _, date := range pc.VisitDates {
				if window.ContainsDate(date) {
					presence.Add(date, key, 1)
				}
			}
		default:
			return nil, nil, fmt.Errorf("unknown place presence mode: %s", opts.Mode)
		}
	}

	return presence, totals, nil
}

func markSpread(presence Presence, pc *models.PlaceCluster, key string, window models.DateRange) {
	if pc.FirstVisit.IsZero() || pc.LastVisit.IsZero() {
		return
	}

	first := calendarDay(pc.FirstVisit)
	last := calendarDay(pc.LastVisit)
	spanDays := int(last.Sub(first).Hours()/24) + 1
	if spanDays <= 0 {
		spanDays = 1
	}

	daysToMark := min(pc.VisitCount, spanDays)
	for i := 0; i < daysToMark; i++ {
		offset := i * spanDays / daysToMark
		date := first.AddDate(0, 0, offset).Format(models.DateLayout)
		if window.ContainsDate(date) {
			presence.Add(date, key, 1)
		}
	}
}

// calendarDay truncates t to midnight of its own calendar date, expressed in UTC
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Package staypoint collapses a chronological GPS trail into dwell events.
package staypoint

import (
	"iter"
	"slices"
	"sort"
	"time"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/spatial"
)

// Default thresholds
const (
	DefaultStayDistanceMeters = 100.0
	DefaultStayTimeMinutes    = 10.0
)

// Detector finds stay points with an anchor-based sliding window
type Detector struct {
	StayDistanceMeters float64 // Max distance from the window anchor
	StayTimeMinutes    float64 // Min elapsed time between first and last fix
}

// NewDetector creates a detector, falling back to defaults for non-positive thresholds
func NewDetector(stayDistanceMeters, stayTimeMinutes float64) *Detector {
	if stayDistanceMeters <= 0 {
		stayDistanceMeters = DefaultStayDistanceMeters
	}
	if stayTimeMinutes <= 0 {
		stayTimeMinutes = DefaultStayTimeMinutes
	}
	return &Detector{
		StayDistanceMeters: stayDistanceMeters,
		StayTimeMinutes:    stayTimeMinutes,
	}
}

// SortFixes orders fixes chronologically, keeping input order for equal timestamps
func SortFixes(fixes []models.GPSFix) {
	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Timestamp.Before(fixes[j].Timestamp)
	})
}

// Detect yields dwell events from a chronologically sorted trail.
// The sequence is lazy and can be ranged over any number of times.
func (d *Detector) Detect(fixes []models.GPSFix) iter.Seq[models.DwellEvent] {
	minStay := time.Duration(d.StayTimeMinutes * float64(time.Minute))

	return func(yield func(models.DwellEvent) bool) {
		i := 0
		for i < len(fixes) {
			anchor := fixes[i]
			j := i + 1
			for j < len(fixes) {
				dist := spatial.HaversineDistance(anchor.Latitude, anchor.Longitude, fixes[j].Latitude, fixes[j].Longitude)
				if dist > d.StayDistanceMeters {
					break
				}
				j++
			}

			if j > i+1 && fixes[j-1].Timestamp.Sub(anchor.Timestamp) >= minStay {
				if !yield(buildDwell(fixes[i:j])) {
					return
				}
			}

			// Non-overlapping segments
			i = max(i+1, j)
		}
	}
}

// DetectAll collects every dwell event of the trail
func (d *Detector) DetectAll(fixes []models.GPSFix) []models.DwellEvent {
	return slices.Collect(d.Detect(fixes))
}

func buildDwell(window []models.GPSFix) models.DwellEvent {
	lats := make([]float64, len(window))
	lons := make([]float64, len(window))
	for k, f := range window {
		lats[k] = f.Latitude
		lons[k] = f.Longitude
	}
	lat, lon := spatial.Centroid(lats, lons)

	dwell := models.DwellEvent{
		Latitude:     lat,
		Longitude:    lon,
		StartTime:    window[0].Timestamp,
		EndTime:      window[len(window)-1].Timestamp,
		FixCount:     len(window),
		ActivityType: dominantActivity(window),
	}

	for _, f := range window {
		if dwell.LocationName == "" {
			dwell.LocationName = f.LocationName
		}
		if dwell.Address == "" {
			dwell.Address = f.Address
		}
		if dwell.Source == "" {
			dwell.Source = f.Source
		}
	}

	return dwell
}

// dominantActivity returns the most frequent non-empty tag; ties go to the first encountered
func dominantActivity(window []models.GPSFix) string {
	counts := make(map[string]int)
	var order []string
	for _, f := range window {
		if f.ActivityType == "" {
			continue
		}
		if counts[f.ActivityType] == 0 {
			order = append(order, f.ActivityType)
		}
		counts[f.ActivityType]++
	}

	best := ""
	for _, tag := range order {
		if counts[tag] > counts[best] {
			best = tag
		}
	}
	return best
}

package models

import "time"

// GPSFix is a single location sample produced by the ingestion collector
type GPSFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`

	// Optional hints carried through to dwell events
	ActivityType string `json:"activity_type,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	Address      string `json:"address,omitempty"`
	Source       string `json:"source,omitempty"`
}

// DwellEvent is a stay point: consecutive fixes where the subject remained roughly stationary
type DwellEvent struct {
	Latitude  float64   `json:"latitude"`  // Mean of contributing fixes
	Longitude float64   `json:"longitude"` // Mean of contributing fixes
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	FixCount  int       `json:"fix_count"`

	ActivityType string `json:"activity_type,omitempty"` // Dominant activity tag
	LocationName string `json:"location_name,omitempty"`
	Address      string `json:"address,omitempty"`
	Source       string `json:"source,omitempty"`
}

// Duration returns end minus start
func (d DwellEvent) Duration() time.Duration {
	return d.EndTime.Sub(d.StartTime)
}

// DurationMinutes returns the dwell duration in minutes
func (d DwellEvent) DurationMinutes() float64 {
	return d.Duration().Minutes()
}

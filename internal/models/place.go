package models

import "time"

// PlaceCluster represents a recurring location built from density-grouped dwell events
type PlaceCluster struct {
	ID    int64 `json:"id" db:"id"`
	RunID int64 `json:"run_id" db:"run_id"`

	// Rank is the 1-based position in the clusterer output (visit count desc, dwell desc)
	Rank int `json:"rank" db:"rank"`

	Name            string  `json:"name,omitempty" db:"name"`
	Address         string  `json:"address,omitempty" db:"address"`
	CenterLatitude  float64 `json:"center_latitude" db:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude" db:"center_longitude"`

	VisitCount        int       `json:"visit_count" db:"visit_count"`
	TotalDwellMinutes float64   `json:"total_dwell_minutes" db:"total_dwell_minutes"`
	FirstVisit        time.Time `json:"first_visit" db:"first_visit"`
	LastVisit         time.Time `json:"last_visit" db:"last_visit"`

	ActivityTypes map[string]int `json:"activity_types" db:"activity_types_json"`

	// VisitDates holds the start date (YYYY-MM-DD) of every member dwell, in member order
	VisitDates []string `json:"visit_dates" db:"visit_dates_json"`

	Members []DwellEvent `json:"-" db:"-"`
}

// AverageDwellMinutes returns the mean dwell time per visit
func (p *PlaceCluster) AverageDwellMinutes() float64 {
	if p.VisitCount == 0 {
		return 0
	}
	return p.TotalDwellMinutes / float64(p.VisitCount)
}

// EntityKey is the identifier a place uses inside correlation results
func (p *PlaceCluster) EntityKey() string {
	return PlaceEntityKey(p.Rank)
}

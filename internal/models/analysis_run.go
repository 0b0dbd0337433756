package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for every per-day key
const DateLayout = "2006-01-02"

// AnalysisRun represents one execution of the correlation pipeline over a date range
type AnalysisRun struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	StartDate   string `json:"start_date" db:"start_date"` // YYYY-MM-DD, inclusive
	EndDate     string `json:"end_date" db:"end_date"`     // YYYY-MM-DD, inclusive

	Status       string `json:"status" db:"status"` // pending, processing, completed, error
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	// Execution info
	StartedAt     int64  `json:"started_at,omitempty" db:"started_at"`     // Unix timestamp
	CompletedAt   int64  `json:"completed_at,omitempty" db:"completed_at"` // Unix timestamp
	ResultSummary string `json:"result_summary,omitempty" db:"result_summary"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Window returns the run's inclusive date range
func (r *AnalysisRun) Window() (DateRange, error) {
	return NewDateRange(r.StartDate, r.EndDate)
}

// RunStatus constants
const (
	RunStatusPending    = "pending"
	RunStatusProcessing = "processing"
	RunStatusCompleted  = "completed"
	RunStatusError      = "error"
)

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange parses two YYYY-MM-DD dates into a range
func NewDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, err
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Contains reports whether the calendar date of t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	return r.ContainsDate(t.Format(DateLayout))
}

// ContainsDate reports whether a YYYY-MM-DD date falls inside the range
func (r DateRange) ContainsDate(date string) bool {
	return date >= r.Start.Format(DateLayout) && date <= r.End.Format(DateLayout)
}

// StartTime returns the first instant of the range (00:00:00 UTC)
func (r DateRange) StartTime() time.Time {
	return r.Start
}

// EndTime returns the last second of the range (23:59:59 UTC)
func (r DateRange) EndTime() time.Time {
	return r.End.Add(24*time.Hour - time.Second)
}

package models

// Correlation result views
const (
	ViewAll         = "all"
	ViewPositive    = "positive"
	ViewNegative    = "negative"
	ViewSignificant = "significant"
)

// DefaultListLimit applies to ranked views when no limit is given
const DefaultListLimit = 10

// CorrelationFilter represents filter parameters for querying correlation results
type CorrelationFilter struct {
	RunID int64  `form:"run_id"` // 0 means every run
	View  string `form:"view"`   // all, positive, negative, significant
	Limit int    `form:"limit"`
}

// RunFilter represents filter parameters for listing analysis runs
type RunFilter struct {
	Status    string `form:"status"`
	StartDate string `form:"start_date"` // Runs starting on or after
	EndDate   string `form:"end_date"`   // Runs ending on or before
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// MessageFilter selects scored messages for the happiest and saddest views
type MessageFilter struct {
	RunID int64  `form:"run_id"`
	Date  string `form:"date"`
	Limit int    `form:"limit"`
}

// PlaceFilter selects place clusters for the most visited and longest stay views
type PlaceFilter struct {
	RunID int64 `form:"run_id"`
	Limit int   `form:"limit"`
}

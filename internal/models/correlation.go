package models

import "fmt"

// Dimension identifies which life-dimension a correlation result belongs to
type Dimension string

// Dimension constants
const (
	DimensionWebsite Dimension = "website"
	DimensionPerson  Dimension = "person"
	DimensionPlace   Dimension = "place"
)

// Dimensions lists every dimension in pipeline order
var Dimensions = []Dimension{DimensionWebsite, DimensionPerson, DimensionPlace}

// ParseDimension validates a dimension name
func ParseDimension(s string) (Dimension, error) {
	for _, d := range Dimensions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dimension: %s", s)
}

// CorrelationResult scores how strongly an entity's daily presence tracks daily sentiment
type CorrelationResult struct {
	ID        int64     `json:"id" db:"id"`
	RunID     int64     `json:"run_id" db:"run_id"`
	Dimension Dimension `json:"dimension" db:"dimension"`
	Entity    string    `json:"entity" db:"entity"` // Domain, contact name, or place key
	Label     string    `json:"label,omitempty" db:"label"`

	// ExampleURL is set for website results
	ExampleURL string `json:"example_url,omitempty" db:"example_url"`

	Correlation         float64 `json:"correlation" db:"correlation"`
	DaysPresent         int     `json:"days_present" db:"days_present"`
	DaysAbsent          int     `json:"days_absent" db:"days_absent"`
	AvgSentimentPresent float64 `json:"avg_sentiment_present" db:"avg_sentiment_present"`
	AvgSentimentAbsent  float64 `json:"avg_sentiment_absent" db:"avg_sentiment_absent"`
	TotalOccurrences    int     `json:"total_occurrences" db:"total_occurrences"`
	SignificanceScore   float64 `json:"significance_score" db:"significance_score"`
}

// PlaceEntityKey builds the correlation entity identifier for a place cluster rank
func PlaceEntityKey(rank int) string {
	return fmt.Sprintf("place-%d", rank)
}

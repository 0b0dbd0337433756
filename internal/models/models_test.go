package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRange(t *testing.T) {
	r, err := NewDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	assert.True(t, r.ContainsDate("2024-01-01"))
	assert.True(t, r.ContainsDate("2024-01-31"))
	assert.False(t, r.ContainsDate("2023-12-31"))
	assert.False(t, r.ContainsDate("2024-02-01"))
	assert.True(t, r.Contains(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), r.EndTime())

	_, err = NewDateRange("2024-02-01", "2024-01-01")
	assert.Error(t, err)
	_, err = NewDateRange("yesterday", "2024-01-01")
	assert.Error(t, err)
}

func TestSentimentLabel(t *testing.T) {
	assert.Equal(t, "Positive", SentimentLabel(0.31))
	assert.Equal(t, "Neutral", SentimentLabel(0.3))
	assert.Equal(t, "Neutral", SentimentLabel(-0.3))
	assert.Equal(t, "Negative", SentimentLabel(-0.31))
}

func TestParseDimension(t *testing.T) {
	d, err := ParseDimension("place")
	require.NoError(t, err)
	assert.Equal(t, DimensionPlace, d)

	_, err = ParseDimension("weather")
	assert.Error(t, err)
}

func TestRunResults_Summary(t *testing.T) {
	r := &RunResults{
		Days:         make([]DailySentiment, 3),
		Correlations: []CorrelationResult{{Dimension: DimensionWebsite}, {Dimension: DimensionWebsite}, {Dimension: DimensionPlace}},
	}

	assert.Equal(t, RunSummary{
		Days:         3,
		Correlations: map[string]int{"website": 2, "person": 0, "place": 1},
	}, r.Summary())
}

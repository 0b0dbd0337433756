package models

// DailySentiment is the mean sentiment of one calendar day within a run
type DailySentiment struct {
	ID           int64   `json:"id" db:"id"`
	RunID        int64   `json:"run_id" db:"run_id"`
	Date         string  `json:"date" db:"date"`           // YYYY-MM-DD
	Sentiment    float64 `json:"sentiment" db:"sentiment"` // -1.0 to 1.0
	MessageCount int     `json:"message_count" db:"message_count"`
}

// Label returns a human-readable sentiment bucket
func (d DailySentiment) Label() string {
	return SentimentLabel(d.Sentiment)
}

// ScoredMessage is a message that the sentiment oracle scored successfully
type ScoredMessage struct {
	ID        int64   `json:"id" db:"id"`
	RunID     int64   `json:"run_id" db:"run_id"`
	Date      string  `json:"date" db:"date"`
	Text      string  `json:"text" db:"text"`
	Sentiment float64 `json:"sentiment" db:"sentiment"`
	Source    string  `json:"source" db:"source"`
	Contact   string  `json:"contact,omitempty" db:"contact"`
	Timestamp string  `json:"timestamp,omitempty" db:"timestamp"` // Original timestamp from source
}

// SentimentLabel buckets a score into Positive, Negative or Neutral
func SentimentLabel(score float64) string {
	switch {
	case score > 0.3:
		return "Positive"
	case score < -0.3:
		return "Negative"
	default:
		return "Neutral"
	}
}

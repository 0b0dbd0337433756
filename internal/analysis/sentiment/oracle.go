// Package sentiment scores outgoing messages with an external oracle and
// aggregates them into a per-day sentiment trajectory.
package sentiment

import (
	"context"
	"errors"
)

// ErrOracleNotConfigured is returned when no sentiment oracle is available
var ErrOracleNotConfigured = errors.New("sentiment oracle not configured")

// Label is the oracle's categorical verdict for one text
type Label string

// Labels returned by the oracle
const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
	LabelNeutral  Label = "NEUTRAL"
	LabelMixed    Label = "MIXED"
)

// Scores holds the oracle's confidences, each in [0, 1]
type Scores struct {
	Positive float64
	Negative float64
	Neutral  float64
	Mixed    float64
}

// ItemResult is the oracle verdict for the text at Index within the batch
type ItemResult struct {
	Index  int
	Label  Label
	Scores Scores
}

// ItemError reports that the text at Index could not be scored
type ItemError struct {
	Index   int
	Code    string
	Message string
}

// BatchResult is the per-index outcome of one oracle call
type BatchResult struct {
	Results []ItemResult
	Errors  []ItemError
}

// Oracle scores a batch of texts. A returned error means the whole call failed;
// individual failures are reported through BatchResult.Errors.
type Oracle interface {
	BatchDetectSentiment(ctx context.Context, texts []string, languageCode string) (*BatchResult, error)
}

// Score maps an oracle verdict to a scalar in [-1, 1].
// Labels other than POSITIVE, NEGATIVE and NEUTRAL are treated as MIXED.
// Comprehend reports float32 confidences, so scores from ComprehendOracle carry
// float32 rounding (0.9-0.05 comes out near 0.85, not exactly 0.85).
func Score(label Label, s Scores) float64 {
	switch label {
	case LabelPositive:
		return s.Positive - s.Negative
	case LabelNegative:
		return -(s.Negative - s.Positive)
	case LabelNeutral:
		return s.Positive - s.Negative
	default:
		return 0.5 * (s.Positive - s.Negative)
	}
}

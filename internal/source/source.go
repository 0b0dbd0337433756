// Package source reads the subject's traces from the collector's export database.
package source

import (
	"context"
	"errors"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

// ErrSourceNotConfigured is returned when no trace source is available
var ErrSourceNotConfigured = errors.New("trace source not configured")

// DefaultPageSize is the number of rows fetched per query
const DefaultPageSize = 1000

// TraceSource provides the raw inputs of an analysis run.
// Results may include rows slightly outside the window; callers filter by calendar date.
type TraceSource interface {
	FetchMessages(ctx context.Context, window models.DateRange) ([]models.Message, error)
	FetchBrowserVisits(ctx context.Context, window models.DateRange) ([]models.BrowserVisit, error)
	FetchLocations(ctx context.Context, window models.DateRange) ([]models.GPSFix, error)
}

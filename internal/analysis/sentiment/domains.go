package sentiment

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/timestamp"
)

// ExtractDomain returns the lowercased host of a URL with a leading "www." removed.
// Returns "" for URLs without a host.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

// DomainPresence is the per-day website presence derived from browser history
type DomainPresence struct {
	// Days maps date -> domain -> history rows
	Days map[string]map[string]int
	// ExampleURLs keeps the first URL seen for each domain
	ExampleURLs map[string]string
}

// BuildDomainPresence buckets browser visits by calendar date and domain.
// Visits outside the window or with unparsable timestamps or URLs are skipped.
func BuildDomainPresence(window models.DateRange, visits []models.BrowserVisit, logger *zap.Logger) *DomainPresence {
	if logger == nil {
		logger = zap.NewNop()
	}

	dp := &DomainPresence{
		Days:        make(map[string]map[string]int),
		ExampleURLs: make(map[string]string),
	}

	skipped := 0
	for _, v := range visits {
		date, err := timestamp.CalendarDate(v.Timestamp)
		if err != nil {
			skipped++
			logger.Warn("Skipping browser visit with bad timestamp",
				zap.String("url", v.URL), zap.Error(err))
			continue
		}
		if !window.ContainsDate(date) {
			continue
		}

		domain := ExtractDomain(v.URL)
		if domain == "" {
			skipped++
			continue
		}

		// VisitCount is the browser's lifetime counter for the URL, so each row counts once
		if dp.Days[date] == nil {
			dp.Days[date] = make(map[string]int)
		}
		dp.Days[date][domain]++

		if _, ok := dp.ExampleURLs[domain]; !ok {
			dp.ExampleURLs[domain] = v.URL
		}
	}

	if skipped > 0 {
		logger.Info("Browser visits skipped", zap.Int("skipped", skipped), zap.Int("total", len(visits)))
	}
	return dp
}

package source

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jengzang/moodtrail-backend-go/internal/database"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/timestamp"
)

// SQLiteSource reads the collector tables imessages, whatsapp_messages,
// browser_history and location_history. Timestamps are ISO-8601 text.
type SQLiteSource struct {
	db       *sql.DB
	pageSize int
	logger   *zap.Logger
}

// NewSQLiteSource wraps an open collector database
func NewSQLiteSource(db *sql.DB, pageSize int, logger *zap.Logger) *SQLiteSource {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteSource{db: db, pageSize: pageSize, logger: logger}
}

// OpenSQLiteSource opens the collector database read-only
func OpenSQLiteSource(ctx context.Context, path string, logger *zap.Logger) (*SQLiteSource, error) {
	if path == "" {
		return nil, ErrSourceNotConfigured
	}
	db, err := database.Open(ctx, database.Config{Path: path, ReadOnly: true}, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceNotConfigured, err)
	}
	return NewSQLiteSource(db, DefaultPageSize, logger), nil
}

// Close closes the underlying database
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// bounds returns the text range [start, endExclusive) covering every ISO timestamp in the window
func bounds(window models.DateRange) (string, string) {
	return window.Start.Format(models.DateLayout), window.End.AddDate(0, 0, 1).Format(models.DateLayout)
}

// FetchMessages returns iMessage and WhatsApp messages written by the subject
func (s *SQLiteSource) FetchMessages(ctx context.Context, window models.DateRange) ([]models.Message, error) {
	start, end := bounds(window)

	imessages, err := fetchPages(ctx, s, "imessages", `
		SELECT COALESCE(text, ''), COALESCE(service, ''), COALESCE(contact, '')
		FROM imessages
		WHERE is_from_me = 1 AND service >= ? AND service < ?
		ORDER BY rowid
		LIMIT ? OFFSET ?
	`, []any{start, end}, func(rows *sql.Rows) (models.Message, bool, error) {
		m := models.Message{Source: models.SourceIMessage}
		err := rows.Scan(&m.Text, &m.Timestamp, &m.Contact)
		return m, true, err
	})
	if err != nil {
		return nil, err
	}

	whatsapp, err := fetchPages(ctx, s, "whatsapp_messages", `
		SELECT COALESCE(text, ''), COALESCE(timestamp, ''), COALESCE(chat_name, '')
		FROM whatsapp_messages
		WHERE from_name = 'Me' AND timestamp >= ? AND timestamp < ?
		ORDER BY rowid
		LIMIT ? OFFSET ?
	`, []any{start, end}, func(rows *sql.Rows) (models.Message, bool, error) {
		m := models.Message{Source: models.SourceWhatsApp}
		err := rows.Scan(&m.Text, &m.Timestamp, &m.Contact)
		if m.Contact == "" {
			m.Contact = "Unknown"
		}
		return m, true, err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Fetched messages",
		zap.Int("imessage", len(imessages)),
		zap.Int("whatsapp", len(whatsapp)))
	return append(imessages, whatsapp...), nil
}

// FetchBrowserVisits returns browser history rows in the window
func (s *SQLiteSource) FetchBrowserVisits(ctx context.Context, window models.DateRange) ([]models.BrowserVisit, error) {
	start, end := bounds(window)

	visits, err := fetchPages(ctx, s, "browser_history", `
		SELECT COALESCE(url, ''), COALESCE(timestamp, ''), COALESCE(visit_count, 0)
		FROM browser_history
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY rowid
		LIMIT ? OFFSET ?
	`, []any{start, end}, func(rows *sql.Rows) (models.BrowserVisit, bool, error) {
		var v models.BrowserVisit
		if err := rows.Scan(&v.URL, &v.Timestamp, &v.VisitCount); err != nil {
			return v, false, err
		}
		return v, v.URL != "" && v.Timestamp != "", nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Fetched browser history", zap.Int("visits", len(visits)))
	return visits, nil
}

// FetchLocations returns GPS fixes in the window. Rows with missing coordinates
// or unparsable timestamps are skipped.
func (s *SQLiteSource) FetchLocations(ctx context.Context, window models.DateRange) ([]models.GPSFix, error) {
	start, end := bounds(window)

	fixes, err := fetchPages(ctx, s, "location_history", `
		SELECT COALESCE(timestamp, ''), latitude, longitude,
		       COALESCE(activity_type, ''), COALESCE(location_name, ''),
		       COALESCE(address, ''), COALESCE(source, '')
		FROM location_history
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY rowid
		LIMIT ? OFFSET ?
	`, []any{start, end}, func(rows *sql.Rows) (models.GPSFix, bool, error) {
		var f models.GPSFix
		var raw string
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&raw, &lat, &lon, &f.ActivityType, &f.LocationName, &f.Address, &f.Source); err != nil {
			return f, false, err
		}
		if !lat.Valid || !lon.Valid {
			s.logger.Warn("Skipping location without coordinates", zap.String("timestamp", raw))
			return f, false, nil
		}
		t, err := timestamp.Parse(raw)
		if err != nil {
			s.logger.Warn("Skipping location with bad timestamp", zap.Error(err))
			return f, false, nil
		}
		f.Latitude, f.Longitude, f.Timestamp = lat.Float64, lon.Float64, t
		if f.Source == "" {
			f.Source = "ios"
		}
		return f, true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Fetched locations", zap.Int("fixes", len(fixes)))
	return fixes, nil
}

// fetchPages runs a LIMIT/OFFSET query page by page until a short page.
// scan returns keep=false to skip a row without failing.
func fetchPages[T any](ctx context.Context, s *SQLiteSource, table, query string, args []any, scan func(*sql.Rows) (T, bool, error)) ([]T, error) {
	var out []T
	for offset := 0; ; offset += s.pageSize {
		pageArgs := append(append([]any{}, args...), s.pageSize, offset)
		rows, err := s.db.QueryContext(ctx, query, pageArgs...)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", table, err)
		}

		n := 0
		for rows.Next() {
			n++
			item, keep, err := scan(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s: %w", table, err)
			}
			if keep {
				out = append(out, item)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
		}
		rows.Close()

		s.logger.Debug("Fetched page",
			zap.String("table", table),
			zap.Int("offset", offset),
			zap.Int("rows", n))
		if n < s.pageSize {
			return out, nil
		}
	}
}

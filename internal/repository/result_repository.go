package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jengzang/moodtrail-backend-go/internal/database"
	"github.com/jengzang/moodtrail-backend-go/internal/models"
)

// derivedTables hold per-run results; each is cleared and rewritten as a unit
var derivedTables = []string{"correlation_results", "place_clusters", "scored_messages", "daily_sentiments"}

// ResultRepository handles the derived state of analysis runs
type ResultRepository struct {
	db *sql.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// ClearRun deletes every derived row of one run
func (r *ResultRepository) ClearRun(ctx context.Context, runID int64) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		return clearRun(ctx, tx, runID)
	})
}

func clearRun(ctx context.Context, tx *sql.Tx, runID int64) error {
	for _, table := range derivedTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// SaveRunResults replaces the run's derived state and marks it completed in one transaction
func (r *ResultRepository) SaveRunResults(ctx context.Context, runID int64, results *models.RunResults, resultSummary string) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearRun(ctx, tx, runID); err != nil {
			return err
		}
		if err := insertDays(ctx, tx, runID, results.Days); err != nil {
			return err
		}
		if err := insertMessages(ctx, tx, runID, results.Messages); err != nil {
			return err
		}
		if err := insertPlaces(ctx, tx, runID, results.Places); err != nil {
			return err
		}
		if err := insertCorrelations(ctx, tx, runID, results.Correlations); err != nil {
			return err
		}
		return markCompleted(ctx, tx, runID, resultSummary)
	})
}

func insertDays(ctx context.Context, tx *sql.Tx, runID int64, days []models.DailySentiment) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_sentiments (run_id, date, sentiment, message_count)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare day insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		if _, err := stmt.ExecContext(ctx, runID, d.Date, d.Sentiment, d.MessageCount); err != nil {
			return fmt.Errorf("failed to insert day %s: %w", d.Date, err)
		}
	}
	return nil
}

func insertMessages(ctx context.Context, tx *sql.Tx, runID int64, messages []models.ScoredMessage) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scored_messages (run_id, date, text, sentiment, source, contact, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		if _, err := stmt.ExecContext(ctx, runID, m.Date, m.Text, m.Sentiment, m.Source, m.Contact, m.Timestamp); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	return nil
}

func insertPlaces(ctx context.Context, tx *sql.Tx, runID int64, places []models.PlaceCluster) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO place_clusters (
			run_id, rank, name, address, center_latitude, center_longitude,
			visit_count, total_dwell_minutes, first_visit, last_visit,
			activity_types_json, visit_dates_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare place insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range places {
		activities := p.ActivityTypes
		if activities == nil {
			activities = map[string]int{}
		}
		activitiesJSON, err := json.Marshal(activities)
		if err != nil {
			return fmt.Errorf("failed to encode activity types: %w", err)
		}
		dates := p.VisitDates
		if dates == nil {
			dates = []string{}
		}
		datesJSON, err := json.Marshal(dates)
		if err != nil {
			return fmt.Errorf("failed to encode visit dates: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			runID,
			p.Rank,
			p.Name,
			p.Address,
			p.CenterLatitude,
			p.CenterLongitude,
			p.VisitCount,
			p.TotalDwellMinutes,
			p.FirstVisit.UTC().Format(time.RFC3339Nano),
			p.LastVisit.UTC().Format(time.RFC3339Nano),
			string(activitiesJSON),
			string(datesJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to insert place %d: %w", p.Rank, err)
		}
	}
	return nil
}

func insertCorrelations(ctx context.Context, tx *sql.Tx, runID int64, results []models.CorrelationResult) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO correlation_results (
			run_id, dimension, entity, label, example_url, correlation,
			days_present, days_absent, avg_sentiment_present, avg_sentiment_absent,
			total_occurrences, significance_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare correlation insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range results {
		_, err := stmt.ExecContext(ctx,
			runID,
			string(c.Dimension),
			c.Entity,
			c.Label,
			c.ExampleURL,
			c.Correlation,
			c.DaysPresent,
			c.DaysAbsent,
			c.AvgSentimentPresent,
			c.AvgSentimentAbsent,
			c.TotalOccurrences,
			c.SignificanceScore,
		)
		if err != nil {
			return fmt.Errorf("failed to insert correlation %s/%s: %w", c.Dimension, c.Entity, err)
		}
	}
	return nil
}

// ListDays returns a run's daily sentiments in date order
func (r *ResultRepository) ListDays(ctx context.Context, runID int64) ([]models.DailySentiment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, date, sentiment, message_count
		FROM daily_sentiments
		WHERE run_id = ?
		ORDER BY date
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	days := []models.DailySentiment{}
	for rows.Next() {
		var d models.DailySentiment
		if err := rows.Scan(&d.ID, &d.RunID, &d.Date, &d.Sentiment, &d.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ListMessages returns scored messages ranked by sentiment, happiest first unless ascending
func (r *ResultRepository) ListMessages(ctx context.Context, filter models.MessageFilter, ascending bool) ([]models.ScoredMessage, error) {
	query := `
		SELECT id, run_id, date, text, sentiment, source, contact, timestamp
		FROM scored_messages
		WHERE 1=1
	`
	args := []any{}
	if filter.RunID > 0 {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}
	if filter.Date != "" {
		query += " AND date = ?"
		args = append(args, filter.Date)
	}
	if ascending {
		query += " ORDER BY sentiment ASC, id ASC"
	} else {
		query += " ORDER BY sentiment DESC, id ASC"
	}
	query += " LIMIT ?"
	args = append(args, limitOrDefault(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ScoredMessage{}
	for rows.Next() {
		var m models.ScoredMessage
		if err := rows.Scan(&m.ID, &m.RunID, &m.Date, &m.Text, &m.Sentiment, &m.Source, &m.Contact, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Place orderings
const (
	PlaceOrderVisits = "visit_count DESC, total_dwell_minutes DESC, id ASC"
	PlaceOrderDwell  = "total_dwell_minutes DESC, visit_count DESC, id ASC"
)

// ListPlaces returns place clusters in the given order (PlaceOrderVisits or PlaceOrderDwell)
func (r *ResultRepository) ListPlaces(ctx context.Context, filter models.PlaceFilter, order string) ([]models.PlaceCluster, error) {
	if order != PlaceOrderVisits && order != PlaceOrderDwell {
		return nil, fmt.Errorf("unsupported place order: %s", order)
	}

	query := `
		SELECT id, run_id, rank, name, address, center_latitude, center_longitude,
			   visit_count, total_dwell_minutes, first_visit, last_visit,
			   activity_types_json, visit_dates_json
		FROM place_clusters
		WHERE 1=1
	`
	args := []any{}
	if filter.RunID > 0 {
		query += " AND run_id = ?"
		args = append(args, filter.RunID)
	}
	query += " ORDER BY " + order + " LIMIT ?"
	args = append(args, limitOrDefault(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query places: %w", err)
	}
	defer rows.Close()

	places := []models.PlaceCluster{}
	for rows.Next() {
		var p models.PlaceCluster
		var firstVisit, lastVisit, activitiesJSON, datesJSON string
		err := rows.Scan(
			&p.ID, &p.RunID, &p.Rank, &p.Name, &p.Address,
			&p.CenterLatitude, &p.CenterLongitude,
			&p.VisitCount, &p.TotalDwellMinutes,
			&firstVisit, &lastVisit, &activitiesJSON, &datesJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		if p.FirstVisit, err = time.Parse(time.RFC3339Nano, firstVisit); err != nil {
			return nil, fmt.Errorf("failed to parse first visit: %w", err)
		}
		if p.LastVisit, err = time.Parse(time.RFC3339Nano, lastVisit); err != nil {
			return nil, fmt.Errorf("failed to parse last visit: %w", err)
		}
		if err := json.Unmarshal([]byte(activitiesJSON), &p.ActivityTypes); err != nil {
			return nil, fmt.Errorf("failed to decode activity types: %w", err)
		}
		if err := json.Unmarshal([]byte(datesJSON), &p.VisitDates); err != nil {
			return nil, fmt.Errorf("failed to decode visit dates: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// ListCorrelations returns a dimension's results in canonical order (correlation desc, entity asc)
func (r *ResultRepository) ListCorrelations(ctx context.Context, runID int64, dimension models.Dimension) ([]models.CorrelationResult, error) {
	query := `
		SELECT id, run_id, dimension, entity, label, example_url, correlation,
			   days_present, days_absent, avg_sentiment_present, avg_sentiment_absent,
			   total_occurrences, significance_score
		FROM correlation_results
		WHERE dimension = ?
	`
	args := []any{string(dimension)}
	if runID > 0 {
		query += " AND run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY correlation DESC, entity ASC, run_id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query correlations: %w", err)
	}
	defer rows.Close()

	results := []models.CorrelationResult{}
	for rows.Next() {
		var c models.CorrelationResult
		var dim string
		err := rows.Scan(
			&c.ID, &c.RunID, &dim, &c.Entity, &c.Label, &c.ExampleURL, &c.Correlation,
			&c.DaysPresent, &c.DaysAbsent, &c.AvgSentimentPresent, &c.AvgSentimentAbsent,
			&c.TotalOccurrences, &c.SignificanceScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correlation: %w", err)
		}
		c.Dimension = models.Dimension(dim)
		results = append(results, c)
	}
	return results, rows.Err()
}

// LoadRunResults reads back everything SaveRunResults wrote for a run
func (r *ResultRepository) LoadRunResults(ctx context.Context, runID int64) (*models.RunResults, error) {
	out := &models.RunResults{}
	var err error

	if out.Days, err = r.ListDays(ctx, runID); err != nil {
		return nil, err
	}
	if out.Messages, err = r.ListMessages(ctx, models.MessageFilter{RunID: runID, Limit: -1}, false); err != nil {
		return nil, err
	}
	if out.Places, err = r.ListPlaces(ctx, models.PlaceFilter{RunID: runID, Limit: -1}, PlaceOrderVisits); err != nil {
		return nil, err
	}
	for _, dim := range models.Dimensions {
		results, err := r.ListCorrelations(ctx, runID, dim)
		if err != nil {
			return nil, err
		}
		out.Correlations = append(out.Correlations, results...)
	}
	return out, nil
}

// limitOrDefault maps 0 to the default view size and negatives to no limit
func limitOrDefault(limit int) int {
	switch {
	case limit == 0:
		return models.DefaultListLimit
	case limit < 0:
		return -1
	default:
		return limit
	}
}

package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/timestamp"
)

// Pipeline defaults
const (
	DefaultBatchSize     = 25
	DefaultLanguageCode  = "en"
	DefaultRetryAttempts = 3

	// UnsupportedMessageText marks attachments and stickers; any text containing it is skipped
	UnsupportedMessageText = "[Unsupported message type]"
)

// Pipeline turns raw messages into a daily sentiment trajectory
type Pipeline struct {
	Oracle        Oracle
	BatchSize     int
	LanguageCode  string
	RetryAttempts int // Total attempts per batch call, including the first

	// NewBackOff builds the delay policy between attempts; nil means exponential
	NewBackOff func() backoff.BackOff
	// Limiter paces oracle calls; nil means unlimited
	Limiter *rate.Limiter

	Logger *zap.Logger
}

// IngestStats counts what happened to the input messages
type IngestStats struct {
	Received      int `json:"received"`
	Empty         int `json:"empty"`
	Unsupported   int `json:"unsupported"`
	BadTimestamp  int `json:"bad_timestamp"`
	OutOfWindow   int `json:"out_of_window"`
	Scored        int `json:"scored"`
	ItemErrors    int `json:"item_errors"`
	FailedBatches int `json:"failed_batches"`
}

// Ingestion is the output of one pipeline run
type Ingestion struct {
	// Days is ordered by date and omits days without any scored message
	Days []models.DailySentiment
	// Messages holds every scored message, ordered by date then input order
	Messages []models.ScoredMessage
	// ContactPresence maps date -> normalized contact -> message count
	ContactPresence map[string]map[string]int
	Stats           IngestStats
}

type pendingMessage struct {
	msg  models.Message
	date string
}

// Ingest filters, scores and aggregates messages falling inside the window.
// Oracle failures lose at most one batch; only context cancellation aborts the run.
func (p *Pipeline) Ingest(ctx context.Context, window models.DateRange, messages []models.Message) (*Ingestion, error) {
	if p.Oracle == nil {
		return nil, ErrOracleNotConfigured
	}
	logger := p.logger()

	out := &Ingestion{ContactPresence: make(map[string]map[string]int)}
	out.Stats.Received = len(messages)

	byDate := make(map[string][]pendingMessage)
	for _, m := range messages {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			out.Stats.Empty++
			continue
		}
		if strings.Contains(text, UnsupportedMessageText) {
			out.Stats.Unsupported++
			continue
		}
		date, err := timestamp.CalendarDate(m.Timestamp)
		if err != nil {
			out.Stats.BadTimestamp++
			logger.Warn("Skipping message with bad timestamp",
				zap.String("source", m.Source), zap.Error(err))
			continue
		}
		if !window.ContainsDate(date) {
			out.Stats.OutOfWindow++
			continue
		}

		m.Text = text
		byDate[date] = append(byDate[date], pendingMessage{msg: m, date: date})

		if contact := NormalizeContact(m.Contact); contact != "" {
			if out.ContactPresence[date] == nil {
				out.ContactPresence[date] = make(map[string]int)
			}
			out.ContactPresence[date][contact]++
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	batchSize := p.batchSize()
	for _, date := range dates {
		pending := byDate[date]
		var sum float64
		var scored int

		for start := 0; start < len(pending); start += batchSize {
			end := min(start+batchSize, len(pending))
			batch := pending[start:end]

			scores, err := p.scoreBatch(ctx, date, batch, &out.Stats)
			if err != nil {
				return nil, err
			}
			for i, s := range scores {
				if s == nil {
					continue
				}
				m := batch[i].msg
				out.Messages = append(out.Messages, models.ScoredMessage{
					Date:      date,
					Text:      m.Text,
					Sentiment: *s,
					Source:    m.Source,
					Contact:   NormalizeContact(m.Contact),
					Timestamp: m.Timestamp,
				})
				sum += *s
				scored++
			}
		}

		if scored == 0 {
			logger.Debug("No scored messages for day", zap.String("date", date))
			continue
		}
		out.Stats.Scored += scored
		out.Days = append(out.Days, models.DailySentiment{
			Date:         date,
			Sentiment:    sum / float64(scored),
			MessageCount: scored,
		})
	}

	logger.Info("Sentiment ingestion complete",
		zap.Int("received", out.Stats.Received),
		zap.Int("scored", out.Stats.Scored),
		zap.Int("days", len(out.Days)),
		zap.Int("item_errors", out.Stats.ItemErrors),
		zap.Int("failed_batches", out.Stats.FailedBatches))

	return out, nil
}

// scoreBatch returns one score per batch entry, nil where scoring failed.
// An error is returned only when the context is done.
func (p *Pipeline) scoreBatch(ctx context.Context, date string, batch []pendingMessage, stats *IngestStats) ([]*float64, error) {
	logger := p.logger()
	texts := make([]string, len(batch))
	for i, pm := range batch {
		texts[i] = pm.msg.Text
	}

	var result *BatchResult
	attempt := 0
	op := func() error {
		attempt++
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		r, err := p.Oracle.BatchDetectSentiment(ctx, texts, p.languageCode())
		if err != nil {
			logger.Warn("Sentiment batch call failed",
				zap.String("date", date),
				zap.Int("attempt", attempt),
				zap.Int("batch_size", len(texts)),
				zap.Error(err))
			return err
		}
		result = r
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(p.backOff(), uint64(p.retryAttempts()-1)), ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("sentiment ingestion cancelled: %w", ctxErr)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("sentiment ingestion cancelled: %w", err)
		}
		stats.FailedBatches++
		logger.Error("Dropping sentiment batch after retries",
			zap.String("date", date),
			zap.Int("batch_size", len(texts)),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return make([]*float64, len(batch)), nil
	}

	scores := make([]*float64, len(batch))
	if result == nil {
		return scores, nil
	}
	for _, ie := range result.Errors {
		stats.ItemErrors++
		logger.Warn("Sentiment item failed",
			zap.String("date", date),
			zap.Int("index", ie.Index),
			zap.String("code", ie.Code),
			zap.String("message", ie.Message))
	}
	for _, r := range result.Results {
		if r.Index < 0 || r.Index >= len(batch) {
			logger.Warn("Oracle returned out-of-range index",
				zap.Int("index", r.Index), zap.Int("batch_size", len(batch)))
			continue
		}
		s := Score(r.Label, r.Scores)
		scores[r.Index] = &s
	}
	return scores, nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Pipeline) batchSize() int {
	if p.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return p.BatchSize
}

func (p *Pipeline) languageCode() string {
	if p.LanguageCode == "" {
		return DefaultLanguageCode
	}
	return p.LanguageCode
}

func (p *Pipeline) retryAttempts() int {
	if p.RetryAttempts <= 0 {
		return DefaultRetryAttempts
	}
	return p.RetryAttempts
}

func (p *Pipeline) backOff() backoff.BackOff {
	if p.NewBackOff != nil {
		return p.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Package worker runs analysis runs in the background, one at a time.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCapacity is the number of runs that can wait in the queue
const DefaultCapacity = 64

var (
	// ErrQueueFull is returned when the queue cannot accept another run
	ErrQueueFull = errors.New("analysis queue is full")
	// ErrQueueStopped is returned after Stop
	ErrQueueStopped = errors.New("analysis queue is stopped")
)

// Executor runs one analysis run to completion
type Executor interface {
	Execute(ctx context.Context, runID int64) error
}

type job struct {
	id       string
	runID    int64
	enqueued time.Time
}

// Queue is a single-consumer job queue
type Queue struct {
	executor Executor
	jobs     chan job
	logger   *zap.Logger

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewQueue creates a queue; capacity <= 0 uses DefaultCapacity
func NewQueue(executor Executor, capacity int, logger *zap.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		executor: executor,
		jobs:     make(chan job, capacity),
		logger:   logger.Named("worker"),
	}
}

// Submit enqueues a run without blocking and returns the job ID
func (q *Queue) Submit(runID int64) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return "", ErrQueueStopped
	}

	j := job{id: uuid.NewString(), runID: runID, enqueued: time.Now()}
	select {
	case q.jobs <- j:
		q.logger.Info("Run queued", zap.String("job_id", j.id), zap.Int64("run_id", runID), zap.Int("queued", len(q.jobs)))
		return j.id, nil
	default:
		return "", ErrQueueFull
	}
}

// Run consumes jobs until ctx is done. It returns nil on cancellation.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-q.jobs:
			q.execute(ctx, j)
		}
	}
}

// Start runs the consumer in a goroutine until Stop
func (q *Queue) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	q.mu.Lock()
	q.cancel = cancel
	q.done = done
	q.mu.Unlock()

	go func() {
		defer close(done)
		q.Run(ctx)
	}()
}

// Stop rejects new submissions, cancels the running job and waits for the consumer
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	cancel, done := q.cancel, q.done
	q.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Pending returns the number of queued jobs
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) execute(ctx context.Context, j job) {
	logger := q.logger.With(zap.String("job_id", j.id), zap.Int64("run_id", j.runID))
	logger.Info("Run dequeued", zap.Duration("waited", time.Since(j.enqueued)))

	start := time.Now()
	if err := q.executor.Execute(ctx, j.runID); err != nil {
		logger.Warn("Run finished with error", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}
	logger.Info("Run finished", zap.Duration("elapsed", time.Since(start)))
}

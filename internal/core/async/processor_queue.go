package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/quizgen/internal/core"
)

var (
	ErrQueueFull   = errors.New("queue full")
	ErrQueueClosed = errors.New("queue is shutting down")
)

// Job is one file waiting for extraction.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

// FileProcessor is the part of core.Processor the workers call.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*core.Outcome, error)
}

// Stats are cumulative counters since the queue started.
type Stats struct {
	Queued    int64 `json:"queued"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Pending   int   `json:"pending"`
}

// ProcessorQueue runs ProcessFile on a fixed set of workers. A path already
// waiting in the queue is not queued twice, which absorbs repeated watcher events.
type ProcessorQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch     chan Job
	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	pending map[string]struct{}

	queued, processed, failed, dropped atomic.Int64
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithProcessTimeout bounds a single ProcessFile call.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewProcessorQueue starts the workers immediately.
func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
		pending: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.base, q.cancel = context.WithCancel(context.Background())
	for i := 1; i <= q.workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	return q
}

func (q *ProcessorQueue) work(workerID int) {
	defer q.wg.Done()
	logger := q.logger.With("worker_id", workerID)
	logger.Debug("queue.worker.started")

	for job := range q.ch {
		q.mu.Lock()
		delete(q.pending, job.Path)
		q.mu.Unlock()

		ctx, cancel := context.WithTimeout(q.base, q.timeout)
		out, err := q.proc.ProcessFile(ctx, job.Path)
		cancel()

		if err != nil {
			q.failed.Add(1)
			logger.Error("queue.process.failed", "path", job.Path, "error", err)
			continue
		}
		q.processed.Add(1)
		logger.Info("queue.process.ok",
			"path", job.Path,
			"job_id", out.JobID,
			"cached", out.Cached,
			"wait_ms", time.Since(job.SubmittedAt).Milliseconds(),
		)
	}
	logger.Debug("queue.worker.stopped")
}

// Enqueue never blocks: a full queue is reported to the caller. Queueing a path
// that is still waiting is a no-op.
func (q *ProcessorQueue) Enqueue(_ context.Context, path string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "path", path)
		return ErrQueueClosed
	}
	if _, ok := q.pending[path]; ok {
		q.logger.Debug("queue.enqueue.duplicate", "path", path)
		return nil
	}
	select {
	case q.ch <- Job{Path: path, SubmittedAt: time.Now()}:
		q.pending[path] = struct{}{}
		q.queued.Add(1)
		q.logger.Info("queue.enqueue.ok", "path", path)
		return nil
	default:
		q.dropped.Add(1)
		q.logger.Warn("queue.enqueue.full", "path", path)
		return ErrQueueFull
	}
}

func (q *ProcessorQueue) Stats() Stats {
	q.mu.Lock()
	pending := len(q.pending)
	q.mu.Unlock()
	return Stats{
		Queued:    q.queued.Load(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
		Pending:   pending,
	}
}

// Shutdown stops accepting work and waits for queued jobs to finish. If ctx ends
// first, in-flight jobs are cancelled and Shutdown returns without waiting for them.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("queue.shutdown.interrupted", "stats", q.Stats())
	case <-done:
		q.cancel()
		q.logger.Info("queue.shutdown.drained", "stats", q.Stats())
	}
}

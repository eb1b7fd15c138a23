package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
	defaultTimeout   = 3 * time.Minute
)

type ProcessorQueue struct {
	runner   DocumentRunner
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult func(Outcome)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
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

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHandler registers fn to receive every outcome. fn is called from
// worker goroutines and must be safe for concurrent use.
func WithResultHandler(fn func(Outcome)) Option {
	return func(q *ProcessorQueue) { q.onResult = fn }
}

func NewProcessorQueue(runner DocumentRunner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		runner:  runner,
		logger:  logger,
		workers: defaultWorkers,
		timeout: defaultTimeout,
		ch:      make(chan Job, defaultQueueSize),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	doc, err := q.runner.Run(ctx, job.Path, job.Filename, job.DocType)
	cancel()

	if err != nil {
		q.logger.Error("queue.job.failed",
			"worker_id", workerID,
			"file", job.Path,
			"trace_id", job.TraceID,
			"error", err,
		)
	} else {
		q.logger.Info("queue.job.ok",
			"worker_id", workerID,
			"file", job.Path,
			"trace_id", job.TraceID,
			"method", doc.Method(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"waited_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		)
	}
	if q.onResult != nil {
		q.onResult(Outcome{Job: job, Document: doc, Err: err, WorkerID: workerID})
	}
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "file", job.Path)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueue.ok", "file", job.Path)
		return nil
	default:
	}

	q.logger.Warn("queue.enqueue.backpressure", "file", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish, or for
// ctx to end.
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
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}

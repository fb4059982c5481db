package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/jobs"
)

// Queue is an in-memory publisher and consumer built on a buffered channel.
// It is safe for concurrent use and suits single-instance deployments; a
// multi-instance setup would swap in a broker behind the same interfaces.
// Durable import state lives in import_logs, so jobs lost on restart are
// swept up as stale imports rather than silently forgotten.
type Queue struct {
	jobChan    chan *jobs.PDFImportJob
	closeChan  chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewQueue creates an in-memory job queue. bufferSize bounds how many jobs
// can wait before PublishPDFImport blocks; workers bounds concurrent
// handlers.
func NewQueue(bufferSize, workers int, logger *slog.Logger) *Queue {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		jobChan:    make(chan *jobs.PDFImportJob, bufferSize),
		closeChan:  make(chan struct{}),
		workers:    workers,
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     logger.With(slog.String("component", "job_queue")),
	}
}

// WithMaxRetries overrides the default retry budget stamped on jobs that
// publish without one.
func (q *Queue) WithMaxRetries(n int) *Queue {
	if n > 0 {
		q.maxRetries = n
	}
	return q
}

// PublishPDFImport implements jobs.Publisher.
func (q *Queue) PublishPDFImport(ctx context.Context, job *jobs.PDFImportJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Type == "" {
		job.Type = jobs.JobTypePDFImport
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.maxRetries
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements jobs.Consumer. Each worker calls the handler for one job
// at a time.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob runs the handler once and re-enqueues on error until the job
// runs out of retries.
func (q *Queue) processJob(ctx context.Context, job *jobs.PDFImportJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err == nil {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		return
	}

	job.Error = err.Error()

	if job.RetryCount >= job.MaxRetries {
		job.Status = jobs.JobStatusFailed
		q.logger.Error("job exhausted retries",
			slog.String("job_id", job.JobID),
			slog.String("log_id", job.LogID.String()),
			slog.Int("retries", job.RetryCount),
			slog.Any("error", err))
		return
	}

	job.RetryCount++
	job.Status = jobs.JobStatusRetrying
	q.logger.Warn("job failed, scheduling retry",
		slog.String("job_id", job.JobID),
		slog.Int("retry", job.RetryCount),
		slog.Any("error", err))

	backoff := time.Duration(job.RetryCount) * q.retryDelay
	time.AfterFunc(backoff, func() {
		job.Status = jobs.JobStatusPending
		job.StartedAt = nil
		job.CompletedAt = nil
		if err := q.PublishPDFImport(ctx, job); err != nil {
			q.logger.Error("failed to re-enqueue job",
				slog.String("job_id", job.JobID),
				slog.Any("error", err))
		}
	})
}

// Depth reports how many jobs are waiting. Exposed for the queue depth
// gauge.
func (q *Queue) Depth() int {
	return len(q.jobChan)
}

// Stop implements jobs.Consumer. It refuses new jobs and waits for in-flight
// handlers until ctx expires.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)

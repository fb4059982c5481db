package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/jobs"
)

func newTestJob() *jobs.PDFImportJob {
	return &jobs.PDFImportJob{
		TenantID:  uuid.New(),
		AccountID: uuid.New(),
		LogID:     uuid.New(),
		FileKey:   "imports/t/a/log-123-statement.pdf",
		FileName:  "statement.pdf",
	}
}

func TestQueuePublishSetsDefaults(t *testing.T) {
	q := NewQueue(4, 1, nil)
	defer q.Close()

	job := newTestJob()
	require.NoError(t, q.PublishPDFImport(context.Background(), job))

	queued := <-q.jobChan
	assert.NotEmpty(t, queued.JobID)
	assert.Equal(t, jobs.JobTypePDFImport, queued.Type)
	assert.Equal(t, jobs.JobStatusPending, queued.Status)
	assert.False(t, queued.CreatedAt.IsZero())
	assert.Equal(t, 3, queued.MaxRetries)
	assert.Equal(t, 0, q.Depth())
}

func TestQueueDeliversJobToHandler(t *testing.T) {
	q := NewQueue(4, 2, nil)

	received := make(chan jobs.Job, 1)
	require.NoError(t, q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		received <- job
		return nil
	}))

	job := newTestJob()
	require.NoError(t, q.PublishPDFImport(context.Background(), job))

	select {
	case got := <-received:
		pdfJob, ok := got.(*jobs.PDFImportJob)
		require.True(t, ok)
		assert.Equal(t, job.LogID, pdfJob.LogID)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never received the job")
	}

	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, jobs.JobStatusCompleted, job.Status)
	assert.Empty(t, job.Error)
}

func TestQueueRetriesUntilHandlerSucceeds(t *testing.T) {
	q := NewQueue(4, 1, nil)
	q.retryDelay = time.Millisecond

	attempts := make(chan int, 8)
	calls := 0
	require.NoError(t, q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		calls++
		attempts <- calls
		if calls < 3 {
			return errors.New("store unreachable")
		}
		return nil
	}))

	job := newTestJob()
	require.NoError(t, q.PublishPDFImport(context.Background(), job))

	deadline := time.After(5 * time.Second)
	for seen := 0; seen < 3; {
		select {
		case <-attempts:
			seen++
		case <-deadline:
			t.Fatalf("saw only %d attempts before timeout", seen)
		}
	}

	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, jobs.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.RetryCount)
	assert.Empty(t, job.Error)
}

func TestQueueFailsJobAfterMaxRetries(t *testing.T) {
	q := NewQueue(4, 1, nil)
	q.retryDelay = time.Millisecond

	attempts := make(chan struct{}, 8)
	require.NoError(t, q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		attempts <- struct{}{}
		return errors.New("still broken")
	}))

	job := newTestJob()
	job.MaxRetries = 1
	require.NoError(t, q.PublishPDFImport(context.Background(), job))

	deadline := time.After(5 * time.Second)
	for seen := 0; seen < 2; {
		select {
		case <-attempts:
			seen++
		case <-deadline:
			t.Fatalf("saw only %d attempts before timeout", seen)
		}
	}

	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, jobs.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, "still broken", job.Error)
}

func TestQueuePublishAfterClose(t *testing.T) {
	q := NewQueue(4, 1, nil)
	require.NoError(t, q.Close())

	err := q.PublishPDFImport(context.Background(), newTestJob())
	assert.ErrorContains(t, err, "queue is closed")
}

func TestQueuePublishBlockedByFullBuffer(t *testing.T) {
	q := NewQueue(1, 1, nil)
	defer q.Close()

	require.NoError(t, q.PublishPDFImport(context.Background(), newTestJob()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.PublishPDFImport(ctx, newTestJob())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueStopWaitsForInflightJob(t *testing.T) {
	q := NewQueue(4, 1, nil)

	started := make(chan struct{})
	finished := make(chan struct{})
	require.NoError(t, q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		close(finished)
		return nil
	}))

	require.NoError(t, q.PublishPDFImport(context.Background(), newTestJob()))
	<-started

	require.NoError(t, q.Stop(context.Background()))

	select {
	case <-finished:
	default:
		t.Fatal("stop returned before the in-flight job finished")
	}
}

func TestQueueDepth(t *testing.T) {
	q := NewQueue(8, 1, nil)
	defer q.Close()

	assert.Equal(t, 0, q.Depth())
	require.NoError(t, q.PublishPDFImport(context.Background(), newTestJob()))
	require.NoError(t, q.PublishPDFImport(context.Background(), newTestJob()))
	assert.Equal(t, 2, q.Depth())
}

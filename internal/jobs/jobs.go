package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType identifies the kind of work a queued job carries.
type JobType string

const (
	JobTypePDFImport JobType = "pdf-import"
)

// JobStatus tracks a job through the queue lifecycle.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// PDFImportJob asks a worker to parse a stored PDF statement and persist
// its transactions. The payload carries everything the worker needs, so a
// consumer on another process can handle it without shared state.
type PDFImportJob struct {
	JobID             string     `json:"job_id"`
	Type              JobType    `json:"type"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	UserID            uuid.UUID  `json:"user_id"`
	AccountID         uuid.UUID  `json:"account_id"`
	LogID             uuid.UUID  `json:"log_id"`
	FileKey           string     `json:"file_key"`
	FileName          string     `json:"file_name"`
	DefaultCategoryID uuid.UUID  `json:"default_category_id"`
	CheckDuplicates   bool       `json:"check_duplicates"`
	NotifyEmail       string     `json:"notify_email,omitempty"`
	Status            JobStatus  `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	Error             string     `json:"error,omitempty"`
	RetryCount        int        `json:"retry_count"`
	MaxRetries        int        `json:"max_retries"`
}

// Validate reports whether the payload carries enough to locate the work.
// Consumers drop invalid jobs instead of retrying them.
func (j *PDFImportJob) Validate() error {
	if j.TenantID == uuid.Nil {
		return fmt.Errorf("pdf import job missing tenant id")
	}
	if j.AccountID == uuid.Nil {
		return fmt.Errorf("pdf import job missing account id")
	}
	if j.LogID == uuid.Nil {
		return fmt.Errorf("pdf import job missing log id")
	}
	if j.FileKey == "" {
		return fmt.Errorf("pdf import job missing file key")
	}
	if j.DefaultCategoryID == uuid.Nil {
		return fmt.Errorf("pdf import job missing default category id")
	}
	return nil
}

// Job is the generic view the queue has of any payload.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *PDFImportJob) GetID() string        { return j.JobID }
func (j *PDFImportJob) GetType() JobType     { return JobTypePDFImport }
func (j *PDFImportJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs. Implementations may be in-memory or backed by a
// broker; callers only see this interface.
type Publisher interface {
	PublishPDFImport(ctx context.Context, job *PDFImportJob) error
	Close() error
}

// Consumer pulls jobs and hands them to a handler. A handler error means
// the job should be retried; nil acknowledges it.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. Return an error only when a retry could
// succeed.
type JobHandler func(ctx context.Context, job Job) error

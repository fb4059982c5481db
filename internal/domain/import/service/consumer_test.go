package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/jobs"
	"github.com/FACorreiaa/pocket-ledger/pkg/mailer"
)

// fakeMailer implements mailer.Mailer for testing
type fakeMailer struct {
	to   []string
	sent []mailer.ImportSummary
}

func (f *fakeMailer) SendImportCompleted(_ context.Context, to string, summary mailer.ImportSummary) error {
	f.to = append(f.to, to)
	f.sent = append(f.sent, summary)
	return nil
}

type stubJob struct{}

func (stubJob) GetID() string             { return "stub" }
func (stubJob) GetType() jobs.JobType     { return "other" }
func (stubJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }

type consumerEnv struct {
	*testEnv
	consumer *Consumer
	store    *fakeStorage
	mail     *fakeMailer
}

func newConsumerEnv() *consumerEnv {
	env := newTestEnv()
	store := &fakeStorage{}
	mail := &fakeMailer{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return &consumerEnv{
		testEnv:  env,
		consumer: NewConsumer(env.svc, store, logger).WithMailer(mail),
		store:    store,
		mail:     mail,
	}
}

// queuedJob creates an open import log and, when fileData is non-nil, the
// stored file belonging to it.
func (e *consumerEnv) queuedJob(t *testing.T, fileName string, fileData []byte) *jobs.PDFImportJob {
	t.Helper()
	log := &repository.ImportLog{
		TenantID:  e.tenantID,
		UserID:    e.userID,
		AccountID: e.account.ID,
		FileName:  fileName,
		FileType:  "pdf",
		FileSize:  int64(len(fileData)),
	}
	require.NoError(t, e.repo.CreateImportLog(context.Background(), log))

	key := fmt.Sprintf("imports/%s/%s/%s-1-%s", e.tenantID, e.account.ID, log.ID, fileName)
	if fileData != nil {
		_, err := e.store.Put(context.Background(), key, "application/octet-stream", bytes.NewReader(fileData))
		require.NoError(t, err)
	}
	return &jobs.PDFImportJob{
		JobID:             "job-1",
		Type:              jobs.JobTypePDFImport,
		TenantID:          e.tenantID,
		UserID:            e.userID,
		AccountID:         e.account.ID,
		LogID:             log.ID,
		FileKey:           key,
		FileName:          fileName,
		DefaultCategoryID: uuid.New(),
		CheckDuplicates:   true,
		NotifyEmail:       "user@example.com",
	}
}

func TestConsumerProcessesQueuedStatement(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", []byte(sampleCSV))

	err := env.consumer.Handle(context.Background(), job)
	require.NoError(t, err)

	log := env.repo.logs[job.LogID]
	assert.Equal(t, repository.StatusSuccess, log.Status)
	assert.Equal(t, 2, log.TransactionsImported)
	assert.Equal(t, 0, log.TransactionsFailed)
	require.NotNil(t, log.CompletedAt)

	require.Len(t, env.repo.inserted, 2)
	assert.Equal(t, job.DefaultCategoryID, env.repo.inserted[0].CategoryID)

	require.Len(t, env.mail.sent, 1)
	assert.Equal(t, "user@example.com", env.mail.to[0])
	assert.Equal(t, "success", env.mail.sent[0].Status)
	assert.Equal(t, 2, env.mail.sent[0].Imported)
	assert.Equal(t, "statement.csv", env.mail.sent[0].FileName)
}

func TestConsumerDropsInvalidPayload(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", []byte(sampleCSV))
	job.DefaultCategoryID = uuid.Nil

	err := env.consumer.Handle(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, repository.StatusProcessing, env.repo.logs[job.LogID].Status)
	assert.Empty(t, env.repo.inserted)
	assert.Empty(t, env.mail.sent)
}

func TestConsumerDropsUnknownPayloadType(t *testing.T) {
	env := newConsumerEnv()
	err := env.consumer.Handle(context.Background(), stubJob{})
	require.NoError(t, err)
	assert.Empty(t, env.repo.inserted)
}

func TestConsumerUnknownLogDropped(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", []byte(sampleCSV))
	delete(env.repo.logs, job.LogID)

	err := env.consumer.Handle(context.Background(), job)
	require.NoError(t, err)
	assert.Empty(t, env.repo.inserted)
	assert.Empty(t, env.repo.finalized)
}

func TestConsumerLogLookupErrorRetried(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", []byte(sampleCSV))
	env.repo.getLogErr = errors.New("db down")

	err := env.consumer.Handle(context.Background(), job)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load import log")
	assert.Empty(t, env.repo.inserted)
}

func TestConsumerFinalizedLogDropped(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", []byte(sampleCSV))
	env.repo.logs[job.LogID].Status = repository.StatusSuccess

	err := env.consumer.Handle(context.Background(), job)
	require.NoError(t, err)
	assert.Empty(t, env.repo.inserted)
	assert.Empty(t, env.repo.finalized)
	assert.Empty(t, env.mail.sent)
}

func TestConsumerMissingAccountFailsLog(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", []byte(sampleCSV))
	env.accounts.account = nil

	err := env.consumer.Handle(context.Background(), job)
	require.NoError(t, err)

	fin, ok := env.repo.finalized[job.LogID]
	require.True(t, ok)
	assert.Equal(t, repository.StatusFailed, fin.Status)
	require.NotNil(t, fin.ErrorMessage)
	assert.Equal(t, "account not found", *fin.ErrorMessage)

	require.Len(t, env.mail.sent, 1)
	assert.Equal(t, "failed", env.mail.sent[0].Status)
}

func TestConsumerMissingFileFailsLog(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", nil)

	err := env.consumer.Handle(context.Background(), job)
	require.NoError(t, err)

	fin, ok := env.repo.finalized[job.LogID]
	require.True(t, ok)
	assert.Equal(t, repository.StatusFailed, fin.Status)
	require.NotNil(t, fin.ErrorMessage)
	assert.Equal(t, "file missing from storage", *fin.ErrorMessage)
}

func TestConsumerStorageErrorRetried(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", []byte(sampleCSV))
	env.store.getErr = errors.New("network blip")

	err := env.consumer.Handle(context.Background(), job)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to open stored file")

	// still open so the retry can pick it up
	assert.Equal(t, repository.StatusProcessing, env.repo.logs[job.LogID].Status)
}

func TestConsumerParseFailureFailsLog(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.pdf", []byte("garbage bytes"))

	err := env.consumer.Handle(context.Background(), job)
	require.NoError(t, err)

	fin, ok := env.repo.finalized[job.LogID]
	require.True(t, ok)
	assert.Equal(t, repository.StatusFailed, fin.Status)
	require.NotNil(t, fin.ErrorMessage)
	assert.True(t, strings.HasPrefix(*fin.ErrorMessage, "failed to parse file:"), *fin.ErrorMessage)

	require.Len(t, env.mail.sent, 1)
	assert.Equal(t, "failed", env.mail.sent[0].Status)
}

func TestConsumerEmptyStatementFailsLog(t *testing.T) {
	env := newConsumerEnv()
	job := env.queuedJob(t, "statement.csv", []byte("Date,Description,Amount\nnot-a-date,Mystery,abc\n"))

	err := env.consumer.Handle(context.Background(), job)
	require.NoError(t, err)

	fin, ok := env.repo.finalized[job.LogID]
	require.True(t, ok)
	assert.Equal(t, repository.StatusFailed, fin.Status)
	require.NotNil(t, fin.ErrorMessage)
	assert.Equal(t, "no transactions found in file", *fin.ErrorMessage)
}

package jobs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPDFImportJobValidate(t *testing.T) {
	valid := func() *PDFImportJob {
		return &PDFImportJob{
			TenantID:          uuid.New(),
			AccountID:         uuid.New(),
			LogID:             uuid.New(),
			FileKey:           "imports/t/a/log-123-statement.pdf",
			DefaultCategoryID: uuid.New(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*PDFImportJob)
		wantErr string
	}{
		{"valid", func(j *PDFImportJob) {}, ""},
		{"missing tenant", func(j *PDFImportJob) { j.TenantID = uuid.Nil }, "tenant id"},
		{"missing account", func(j *PDFImportJob) { j.AccountID = uuid.Nil }, "account id"},
		{"missing log", func(j *PDFImportJob) { j.LogID = uuid.Nil }, "log id"},
		{"missing file key", func(j *PDFImportJob) { j.FileKey = "" }, "file key"},
		{"missing default category", func(j *PDFImportJob) { j.DefaultCategoryID = uuid.Nil }, "default category id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := valid()
			tt.mutate(job)
			err := job.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestPDFImportJobAccessors(t *testing.T) {
	job := &PDFImportJob{JobID: "j-1", Status: JobStatusPending}
	assert.Equal(t, "j-1", job.GetID())
	assert.Equal(t, JobTypePDFImport, job.GetType())
	assert.Equal(t, JobStatusPending, job.GetStatus())
}

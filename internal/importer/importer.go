package importer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindEmployeeImport  Kind = "employee-import"
	KindTimeEntryImport Kind = "time-entry-import"
)

func (k Kind) Valid() bool {
	return k == KindEmployeeImport || k == KindTimeEntryImport
}

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ImportJob tracks one bulk upload through queued, processing and a terminal
// state. Status transitions are driven only by the pipeline; once terminal
// the record is immutable history.
type ImportJob struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid"`
	Kind         Kind       `json:"kind" gorm:"not null"`
	Status       Status     `json:"status" gorm:"not null;index"`
	FileName     string     `json:"file_name" gorm:"column:file_name"`
	TotalRows    int        `json:"total_rows" gorm:"column:total_rows"`
	Succeeded    int        `json:"succeeded" gorm:"default:0"`
	Failed       int        `json:"failed" gorm:"default:0"`
	ErrorMessage *string    `json:"error_message,omitempty" gorm:"column:error_message"`
	RawContent   []byte     `json:"-" gorm:"column:raw_content"`
	RowErrors    []RowError `json:"row_errors" gorm:"foreignKey:JobID;references:ID"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	StartedAt    *time.Time `json:"started_at,omitempty" gorm:"column:started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" gorm:"column:completed_at"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}

func NewImportJob(kind Kind, fileName string, totalRows int) *ImportJob {
	return &ImportJob{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    StatusQueued,
		FileName:  fileName,
		TotalRows: totalRows,
		CreatedAt: time.Now(),
	}
}

// Terminal reports whether the job can no longer change.
func (j *ImportJob) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// RowError records one rejected input row. RowNumber is 1-based over data
// rows; the header counts as row 0. The list is append-only while the job
// is processing.
type RowError struct {
	ID           int64     `json:"-" gorm:"primaryKey"`
	JobID        string    `json:"-" gorm:"column:job_id;type:uuid;not null;index"`
	RowNumber    int       `json:"row_number" gorm:"column:row_number"`
	RawData      string    `json:"raw_data" gorm:"column:raw_data"`
	ErrorMessage string    `json:"error_message" gorm:"column:error_message"`
	CreatedAt    time.Time `json:"-" gorm:"column:created_at;default:now()"`
}

func (RowError) TableName() string {
	return "import_row_errors"
}

var (
	ErrImportJobNotFound = errors.New("import job not found")
	ErrQueueFull         = errors.New("import queue is full")

	// ErrJobAlreadyClaimed signals a lost race for the queued->processing
	// transition; exactly one claimer wins.
	ErrJobAlreadyClaimed = errors.New("import job already claimed")
)

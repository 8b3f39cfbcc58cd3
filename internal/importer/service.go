package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	apperrors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/core/events"
	"github.com/frahmantamala/people-analytics/internal/department"
	"github.com/frahmantamala/people-analytics/internal/employee"
	"github.com/frahmantamala/people-analytics/internal/timeentry"
)

// RepositoryAPI is the durable job store. Counters increment atomically and
// status transitions are guarded so a terminal job can never move again.
type RepositoryAPI interface {
	CreateJob(job *ImportJob) error
	GetJob(id string) (*ImportJob, error)
	ListJobs(limit int) ([]*ImportJob, error)
	ListQueued(olderThan time.Time, limit int) ([]*ImportJob, error)
	MarkProcessing(id string, startedAt time.Time) error
	MarkCompleted(id string, completedAt time.Time) error
	MarkFailed(id string, message string, completedAt time.Time) error
	IncrementSucceeded(id string) error
	IncrementFailed(id string) error
	AppendRowError(rowErr *RowError) error
}

// EmployeeWriter is the slice of the employee service the pipeline needs.
type EmployeeWriter interface {
	CreateEmployee(ctx context.Context, dto employee.CreateEmployeeDTO) (*employee.Employee, error)
	GetEmployeeByEmail(email string) (*employee.Employee, error)
}

// DepartmentResolver maps free-text department names from upload rows to
// department records, creating them when absent.
type DepartmentResolver interface {
	GetOrCreate(name string) (*department.Department, error)
}

type TimeEntryWriter interface {
	CreateTimeEntry(dto timeentry.CreateTimeEntryDTO) (*timeentry.TimeEntry, error)
}

// Queue hands a submitted job to the background worker pool.
type Queue interface {
	Enqueue(jobID string, kind Kind, content []byte) error
}

type Service struct {
	store       RepositoryAPI
	employees   EmployeeWriter
	departments DepartmentResolver
	timeEntries TimeEntryWriter
	queue       Queue
	bus         *events.EventBus
	syncRows    int
	logger      *slog.Logger
}

func NewService(
	store RepositoryAPI,
	employees EmployeeWriter,
	departments DepartmentResolver,
	timeEntries TimeEntryWriter,
	queue Queue,
	bus *events.EventBus,
	syncRowThreshold int,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:       store,
		employees:   employees,
		departments: departments,
		timeEntries: timeEntries,
		queue:       queue,
		bus:         bus,
		syncRows:    syncRowThreshold,
		logger:      logger,
	}
}

// Submit parses the header, validates required columns and creates a queued
// job. Files at or under the sync threshold are processed on the calling
// goroutine; larger files go to the worker pool and the caller polls.
func (s *Service) Submit(ctx context.Context, content []byte, fileName string, kind Kind) (*ImportJob, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("unknown import kind", apperrors.ErrCodeValidationFailed)
	}

	parsed, appErr := ParseFile(content, kind)
	if appErr != nil {
		s.logger.Warn("import rejected at submit",
			"kind", kind, "file_name", fileName, "error", appErr.Message)
		return nil, appErr
	}

	job := NewImportJob(kind, fileName, len(parsed.Rows))
	job.RawContent = content
	if err := s.store.CreateJob(job); err != nil {
		s.logger.Error("failed to create import job", "error", err, "kind", kind)
		return nil, err
	}

	s.logger.Info("import job submitted",
		"job_id", job.ID, "kind", kind, "file_name", fileName, "total_rows", job.TotalRows)

	if job.TotalRows <= s.syncRows {
		s.Process(ctx, job.ID, content)
		return s.GetStatus(job.ID)
	}

	if err := s.queue.Enqueue(job.ID, kind, content); err != nil {
		s.failJob(ctx, job, time.Now(), "import queue is full, resubmit later")
		return nil, apperrors.NewInternalError("could not enqueue import job", err)
	}
	return job, nil
}

// Process runs the job state machine: queued to processing, rows in file
// order, then a single terminal transition with exactly one finished event.
// A fatal condition before rows marks the job failed with a top-level
// message; a row failure is recorded and never aborts the loop; an
// infrastructure fault mid-job fails the job but keeps prior rows committed.
func (s *Service) Process(ctx context.Context, jobID string, content []byte) {
	job, err := s.store.GetJob(jobID)
	if err != nil || job == nil {
		s.logger.Error("import job vanished before processing", "job_id", jobID, "error", err)
		return
	}
	if job.Status != StatusQueued {
		s.logger.Warn("skipping job not in queued state", "job_id", jobID, "status", job.Status)
		return
	}

	started := time.Now()
	if err := s.store.MarkProcessing(jobID, started); err != nil {
		if err == ErrJobAlreadyClaimed {
			s.logger.Info("job claimed elsewhere, skipping", "job_id", jobID)
		} else {
			s.logger.Error("failed to mark job processing", "job_id", jobID, "error", err)
		}
		return
	}
	job.Status = StatusProcessing

	parsed, appErr := ParseFile(content, job.Kind)
	if appErr != nil {
		s.failJob(ctx, job, started, appErr.Message)
		return
	}

	var succeeded, failed int
	batch := newBatchTracker()
	for _, row := range parsed.Rows {
		if row.ParseErr != "" {
			s.recordRowFailure(job, row, row.ParseErr)
			failed++
			continue
		}

		var rowErr *apperrors.AppError
		var infraErr error
		switch job.Kind {
		case KindEmployeeImport:
			rowErr, infraErr = s.processEmployeeRow(ctx, row, batch)
		case KindTimeEntryImport:
			rowErr, infraErr = s.processTimeEntryRow(row, batch)
		}

		if infraErr != nil {
			s.logger.Error("infrastructure fault during import, aborting job",
				"job_id", job.ID, "row", row.Number, "error", infraErr)
			job.Succeeded = succeeded
			job.Failed = failed
			s.failJob(ctx, job, started, "processing aborted by an internal error")
			return
		}
		if rowErr != nil {
			s.recordRowFailure(job, row, rowErr.GetDetailedMessage())
			failed++
			continue
		}

		if err := s.store.IncrementSucceeded(job.ID); err != nil {
			s.logger.Error("failed to increment succeeded counter", "job_id", job.ID, "error", err)
		}
		succeeded++
	}

	now := time.Now()
	if err := s.store.MarkCompleted(job.ID, now); err != nil {
		s.logger.Error("failed to mark job completed", "job_id", job.ID, "error", err)
		return
	}

	s.logger.Info("import job completed",
		"job_id", job.ID, "kind", job.Kind,
		"succeeded", succeeded, "failed", failed,
		"duration_ms", now.Sub(started).Milliseconds())

	s.bus.Publish(ctx, events.NewImportJobFinishedEvent(
		job.ID, string(job.Kind), string(StatusCompleted), succeeded, failed, now.Sub(started)))
}

// GetStatus returns a snapshot of the job with its row errors. Never blocks
// on a job that is mid-processing.
func (s *Service) GetStatus(jobID string) (*ImportJob, error) {
	job, err := s.store.GetJob(jobID)
	if err != nil {
		s.logger.Error("failed to get import job", "job_id", jobID, "error", err)
		return nil, err
	}
	if job == nil {
		return nil, ErrImportJobNotFound
	}
	return job, nil
}

// ProcessQueued claims queued jobs older than the cutoff and runs them on
// the calling process. The standalone worker polls through this; the
// claim-once guard on the processing transition keeps a job from running
// twice when the submitting server is still alive.
func (s *Service) ProcessQueued(ctx context.Context, olderThan time.Time, limit int) int {
	jobs, err := s.store.ListQueued(olderThan, limit)
	if err != nil {
		s.logger.Error("failed to list queued jobs", "error", err)
		return 0
	}

	for _, job := range jobs {
		s.Process(ctx, job.ID, job.RawContent)
	}
	return len(jobs)
}

// History lists recent jobs, newest first.
func (s *Service) History(limit int) ([]*ImportJob, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.store.ListJobs(limit)
}

func (s *Service) processEmployeeRow(ctx context.Context, row Row, batch *batchTracker) (*apperrors.AppError, error) {
	dto := employee.CreateEmployeeDTO{
		Name:     row.Fields["name"],
		Email:    row.Fields["email"],
		Position: row.Fields["position"],
	}
	dto.Normalize()

	if batch.seenEmail(dto.Email) {
		return apperrors.NewConflictError(
			fmt.Sprintf("duplicate email %s earlier in this file", dto.Email),
			apperrors.ErrCodeDuplicateInBatch), nil
	}

	hireDate, err := time.Parse("2006-01-02", row.Fields["hire_date"])
	if err != nil {
		return apperrors.NewValidationError("hire_date must be YYYY-MM-DD", apperrors.ErrCodeInvalidDate), nil
	}
	dto.HireDate = hireDate

	deptName := row.Fields["department"]
	if deptName == "" {
		return apperrors.NewValidationError("department is required", apperrors.ErrCodeDepartmentNotFound), nil
	}
	dept, err := s.departments.GetOrCreate(deptName)
	if err != nil {
		return nil, err
	}
	dto.DepartmentID = &dept.ID

	if _, err := s.employees.CreateEmployee(ctx, dto); err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok {
			return appErr, nil
		}
		return nil, err
	}

	batch.recordEmail(dto.Email)
	return nil, nil
}

func (s *Service) processTimeEntryRow(row Row, batch *batchTracker) (*apperrors.AppError, error) {
	email := row.Fields["employee_email"]
	if email == "" {
		return apperrors.NewValidationError("employee_email is required", apperrors.ErrCodeInvalidEmail), nil
	}

	emp, err := s.employees.GetEmployeeByEmail(email)
	if err != nil {
		if err == employee.ErrEmployeeNotFound {
			return apperrors.NewNotFoundError(
				fmt.Sprintf("no active employee with email %s", email),
				apperrors.ErrCodeEmployeeNotFound), nil
		}
		return nil, err
	}

	entryDate, err := time.Parse("2006-01-02", row.Fields["date"])
	if err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD", apperrors.ErrCodeInvalidDate), nil
	}

	hours, err := strconv.ParseFloat(row.Fields["hours"], 64)
	if err != nil {
		return apperrors.NewValidationError("hours must be a number", apperrors.ErrCodeInvalidHours), nil
	}

	billable, err := parseBillable(row.Fields["billable"])
	if err != nil {
		return apperrors.NewValidationError("billable must be true or false", apperrors.ErrCodeValidationFailed), nil
	}

	dto := timeentry.CreateTimeEntryDTO{
		EmployeeID:  emp.ID,
		EntryDate:   entryDate,
		Hours:       hours,
		Description: row.Fields["description"],
		Billable:    billable,
	}
	dto.Normalize()

	if batch.seenEntry(emp.ID, entryDate, dto.Description) {
		return apperrors.NewConflictError(
			"duplicate time entry earlier in this file for the same employee, date and description",
			apperrors.ErrCodeDuplicateInBatch), nil
	}

	// the time entry service serializes per-employee writes, covering this
	// row against concurrent jobs and direct API requests
	if _, err := s.timeEntries.CreateTimeEntry(dto); err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok {
			return appErr, nil
		}
		return nil, err
	}

	batch.recordEntry(emp.ID, entryDate, dto.Description)
	return nil, nil
}

func (s *Service) recordRowFailure(job *ImportJob, row Row, message string) {
	if err := s.store.AppendRowError(&RowError{
		JobID:        job.ID,
		RowNumber:    row.Number,
		RawData:      row.Raw,
		ErrorMessage: message,
		CreatedAt:    time.Now(),
	}); err != nil {
		s.logger.Error("failed to append row error", "job_id", job.ID, "row", row.Number, "error", err)
	}
	if err := s.store.IncrementFailed(job.ID); err != nil {
		s.logger.Error("failed to increment failed counter", "job_id", job.ID, "error", err)
	}
}

// failJob is the single path to the failed state; it publishes the finished
// event exactly once for that transition.
func (s *Service) failJob(ctx context.Context, job *ImportJob, started time.Time, message string) {
	now := time.Now()
	if err := s.store.MarkFailed(job.ID, message, now); err != nil {
		s.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
		return
	}

	s.logger.Warn("import job failed",
		"job_id", job.ID, "kind", job.Kind, "reason", message)

	s.bus.Publish(ctx, events.NewImportJobFinishedEvent(
		job.ID, string(job.Kind), string(StatusFailed), job.Succeeded, job.Failed, now.Sub(started)))
}

// batchTracker remembers keys of rows already accepted in the current job so
// later duplicates inside the same file are rejected, not silently merged.
type batchTracker struct {
	emails  map[string]struct{}
	entries map[string]struct{}
}

func newBatchTracker() *batchTracker {
	return &batchTracker{
		emails:  make(map[string]struct{}),
		entries: make(map[string]struct{}),
	}
}

func (b *batchTracker) seenEmail(email string) bool {
	_, ok := b.emails[email]
	return ok
}

func (b *batchTracker) recordEmail(email string) {
	b.emails[email] = struct{}{}
}

func entryKey(employeeID int64, date time.Time, description string) string {
	return fmt.Sprintf("%d|%s|%s", employeeID, date.Format("2006-01-02"), description)
}

func (b *batchTracker) seenEntry(employeeID int64, date time.Time, description string) bool {
	_, ok := b.entries[entryKey(employeeID, date, description)]
	return ok
}

func (b *batchTracker) recordEntry(employeeID int64, date time.Time, description string) {
	b.entries[entryKey(employeeID, date, description)] = struct{}{}
}
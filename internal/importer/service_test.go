package importer_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/core/events"
	"github.com/frahmantamala/people-analytics/internal/department"
	"github.com/frahmantamala/people-analytics/internal/employee"
	"github.com/frahmantamala/people-analytics/internal/importer"
	"github.com/frahmantamala/people-analytics/internal/notification"
	"github.com/frahmantamala/people-analytics/internal/timeentry"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestImporterService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Importer Service Suite")
}

// MockStore implements importer.RepositoryAPI in memory
type MockStore struct {
	jobs      map[string]*importer.ImportJob
	rowErrors map[string][]importer.RowError
}

func NewMockStore() *MockStore {
	return &MockStore{
		jobs:      make(map[string]*importer.ImportJob),
		rowErrors: make(map[string][]importer.RowError),
	}
}

func (m *MockStore) CreateJob(job *importer.ImportJob) error {
	m.jobs[job.ID] = job
	return nil
}

func (m *MockStore) GetJob(id string) (*importer.ImportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	job.RowErrors = m.rowErrors[id]
	return job, nil
}

func (m *MockStore) ListJobs(limit int) ([]*importer.ImportJob, error) {
	var jobs []*importer.ImportJob
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (m *MockStore) ListQueued(olderThan time.Time, limit int) ([]*importer.ImportJob, error) {
	var jobs []*importer.ImportJob
	for _, j := range m.jobs {
		if j.Status == importer.StatusQueued && j.CreatedAt.Before(olderThan) {
			jobs = append(jobs, j)
		}
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (m *MockStore) MarkProcessing(id string, startedAt time.Time) error {
	job := m.jobs[id]
	if job.Status != importer.StatusQueued {
		return importer.ErrJobAlreadyClaimed
	}
	job.Status = importer.StatusProcessing
	job.StartedAt = &startedAt
	return nil
}

func (m *MockStore) MarkCompleted(id string, completedAt time.Time) error {
	job := m.jobs[id]
	job.Status = importer.StatusCompleted
	job.CompletedAt = &completedAt
	return nil
}

func (m *MockStore) MarkFailed(id string, message string, completedAt time.Time) error {
	job := m.jobs[id]
	job.Status = importer.StatusFailed
	job.ErrorMessage = &message
	job.CompletedAt = &completedAt
	return nil
}

func (m *MockStore) IncrementSucceeded(id string) error {
	m.jobs[id].Succeeded++
	return nil
}

func (m *MockStore) IncrementFailed(id string) error {
	m.jobs[id].Failed++
	return nil
}

func (m *MockStore) AppendRowError(rowErr *importer.RowError) error {
	m.rowErrors[rowErr.JobID] = append(m.rowErrors[rowErr.JobID], *rowErr)
	return nil
}

// MockDirectory implements importer.EmployeeWriter. FailOn simulates an
// infrastructure fault when persisting the given email.
type MockDirectory struct {
	employees   map[string]*employee.Employee
	nextID      int64
	failOnEmail string
	failWith    error
}

func NewMockDirectory() *MockDirectory {
	return &MockDirectory{employees: make(map[string]*employee.Employee), nextID: 1}
}

func (m *MockDirectory) FailOn(email string, err error) {
	m.failOnEmail = email
	m.failWith = err
}

func (m *MockDirectory) Seed(name, email string) *employee.Employee {
	emp := &employee.Employee{ID: m.nextID, Name: name, Email: email, IsActive: true}
	m.nextID++
	m.employees[email] = emp
	return emp
}

func (m *MockDirectory) CreateEmployee(_ context.Context, dto employee.CreateEmployeeDTO) (*employee.Employee, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	if _, exists := m.employees[dto.Email]; exists {
		return nil, apperrors.NewConflictError("email already registered", apperrors.ErrCodeEmailAlreadyExists)
	}
	if m.failOnEmail != "" && dto.Email == m.failOnEmail {
		return nil, m.failWith
	}
	return m.Seed(dto.Name, dto.Email), nil
}

func (m *MockDirectory) GetEmployeeByEmail(email string) (*employee.Employee, error) {
	emp, ok := m.employees[strings.ToLower(strings.TrimSpace(email))]
	if !ok || !emp.IsActive {
		return nil, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

// MockDepartments implements importer.DepartmentResolver
type MockDepartments struct {
	byName map[string]*department.Department
	nextID int64
}

func NewMockDepartments() *MockDepartments {
	return &MockDepartments{byName: make(map[string]*department.Department), nextID: 1}
}

func (m *MockDepartments) GetOrCreate(name string) (*department.Department, error) {
	if dept, ok := m.byName[name]; ok {
		return dept, nil
	}
	dept := &department.Department{ID: m.nextID, Name: name}
	m.nextID++
	m.byName[name] = dept
	return dept, nil
}

// MockTimeEntries implements importer.TimeEntryWriter with the same daily cap
// and duplicate rules the real service enforces
type MockTimeEntries struct {
	entries []*timeentry.TimeEntry
	nextID  int64
}

func NewMockTimeEntries() *MockTimeEntries {
	return &MockTimeEntries{nextID: 1}
}

func (m *MockTimeEntries) SeedHours(employeeID int64, date time.Time, hours float64) {
	m.entries = append(m.entries, &timeentry.TimeEntry{
		ID: m.nextID, EmployeeID: employeeID, EntryDate: date,
		Hours: hours, Description: "previously logged work on the matter",
	})
	m.nextID++
}

func (m *MockTimeEntries) CreateTimeEntry(dto timeentry.CreateTimeEntryDTO) (*timeentry.TimeEntry, error) {
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	day := dto.EntryDate.Format("2006-01-02")
	var persisted int64
	for _, e := range m.entries {
		if e.EmployeeID == dto.EmployeeID && e.EntryDate.Format("2006-01-02") == day {
			if e.Description == dto.Description {
				return nil, apperrors.NewConflictError("duplicate description for this day", apperrors.ErrCodeDuplicateEntry)
			}
			persisted += timeentry.Hundredths(e.Hours)
		}
	}
	if appErr := timeentry.ValidateDailyCap(dto.Hours, timeentry.HoursFromHundredths(persisted)); appErr != nil {
		return nil, appErr
	}
	entry := &timeentry.TimeEntry{
		ID: m.nextID, EmployeeID: dto.EmployeeID, EntryDate: dto.EntryDate,
		Hours: dto.Hours, Description: dto.Description, Billable: dto.Billable,
	}
	m.nextID++
	m.entries = append(m.entries, entry)
	return entry, nil
}

// MockQueue implements importer.Queue
type MockQueue struct {
	enqueued []string
	full     bool
}

func (m *MockQueue) Enqueue(jobID string, _ importer.Kind, _ []byte) error {
	if m.full {
		return importer.ErrQueueFull
	}
	m.enqueued = append(m.enqueued, jobID)
	return nil
}

// CountingNotifier implements notification.Notifier
type CountingNotifier struct {
	count atomic.Int64
	last  atomic.Value
}

func (n *CountingNotifier) Notify(_ context.Context, event notification.JobEvent) error {
	n.last.Store(event)
	n.count.Add(1)
	return nil
}

var _ = Describe("Importer Service", func() {
	var (
		store       *MockStore
		directory   *MockDirectory
		departments *MockDepartments
		timeEntries *MockTimeEntries
		queue       *MockQueue
		notifier    *CountingNotifier
		service     *importer.Service
		ctx         context.Context
	)

	newService := func(syncThreshold int) *importer.Service {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		notification.Register(bus, notifier)
		return importer.NewService(store, directory, departments, timeEntries, queue, bus, syncThreshold, logger)
	}

	BeforeEach(func() {
		store = NewMockStore()
		directory = NewMockDirectory()
		departments = NewMockDepartments()
		timeEntries = NewMockTimeEntries()
		queue = &MockQueue{}
		notifier = &CountingNotifier{}
		service = newService(100)
		ctx = context.Background()
	})

	Describe("employee imports", func() {
		It("processes every valid row and completes", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n" +
				"Ravi Narang,ravi@example.com,Partner,Tax,2019-01-02\n" +
				"Tom Okafor,tom@example.com,Paralegal,Corporate,2024-02-01\n")

			job, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(importer.StatusCompleted))
			Expect(job.Succeeded).To(Equal(3))
			Expect(job.Failed).To(Equal(0))

			_, err = directory.GetEmployeeByEmail("ravi@example.com")
			Expect(err).NotTo(HaveOccurred())
		})

		It("creates departments on first use", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Emerging Companies,2023-04-17\n")

			_, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(departments.byName).To(HaveKey("Emerging Companies"))
		})

		It("rejects a duplicate email later in the same file", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n" +
				"Jane Again,JANE@example.com,Counsel,Tax,2022-01-01\n")

			job, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(importer.StatusCompleted))
			Expect(job.Succeeded).To(Equal(1))
			Expect(job.Failed).To(Equal(1))
			Expect(job.RowErrors).To(HaveLen(1))
			Expect(job.RowErrors[0].RowNumber).To(Equal(2))
			Expect(job.RowErrors[0].ErrorMessage).To(ContainSubstring("duplicate email"))
		})

		It("fails the job on an infrastructure fault but keeps earlier rows", func() {
			directory.FailOn("tom@example.com", errors.New("connection reset by peer"))
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n" +
				"Ravi Narang,ravi@example.com,Partner,Tax,2019-01-02\n" +
				"Tom Okafor,tom@example.com,Paralegal,Corporate,2024-02-01\n")

			job, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(importer.StatusFailed))
			Expect(job.Succeeded).To(Equal(2))
			Expect(job.Failed).To(Equal(0))
			Expect(*job.ErrorMessage).To(ContainSubstring("internal error"))

			_, err = directory.GetEmployeeByEmail("jane@example.com")
			Expect(err).NotTo(HaveOccurred())
			_, err = directory.GetEmployeeByEmail("ravi@example.com")
			Expect(err).NotTo(HaveOccurred())

			Eventually(notifier.count.Load).Should(Equal(int64(1)))
			event := notifier.last.Load().(notification.JobEvent)
			Expect(event.Status).To(Equal("failed"))
			Expect(event.Succeeded).To(Equal(2))
		})

		It("records a row error for an unparseable hire date", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,17/04/2023\n")

			job, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Succeeded).To(Equal(0))
			Expect(job.Failed).To(Equal(1))
		})
	})

	Describe("time entry imports", func() {
		day := "2024-01-10"

		BeforeEach(func() {
			directory.Seed("Jane Smith", "jane@example.com")
		})

		It("completes with one row error when row 3 of 5 is invalid", func() {
			content := []byte("employee_email,date,hours,description,billable\n" +
				"jane@example.com," + day + ",2.00,Drafted revisions to the merger agreement,true\n" +
				"jane@example.com," + day + ",3.00,Reviewed disclosure schedules with counsel,true\n" +
				"jane@example.com," + day + ",30.00,Worked an impossible number of hours today,true\n" +
				"jane@example.com," + day + ",1.50,Prepared closing checklist for signing,false\n" +
				"jane@example.com," + day + ",2.25,Coordinated signature pages with opposing counsel,true\n")

			job, err := service.Submit(ctx, content, "hours.csv", importer.KindTimeEntryImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(importer.StatusCompleted))
			Expect(job.Succeeded).To(Equal(4))
			Expect(job.Failed).To(Equal(1))
			Expect(job.RowErrors).To(HaveLen(1))
			Expect(job.RowErrors[0].RowNumber).To(Equal(3))
		})

		It("rejects an identical employee, date and description seen earlier in the file", func() {
			content := []byte("employee_email,date,hours,description,billable\n" +
				"jane@example.com," + day + ",2.00,Drafted revisions to the merger agreement,true\n" +
				"jane@example.com," + day + ",2.00,Drafted revisions to the merger agreement,true\n")

			job, err := service.Submit(ctx, content, "hours.csv", importer.KindTimeEntryImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Succeeded).To(Equal(1))
			Expect(job.Failed).To(Equal(1))
			Expect(job.RowErrors[0].ErrorMessage).To(ContainSubstring("duplicate time entry"))
		})

		It("fails a row for an email with no active employee", func() {
			content := []byte("employee_email,date,hours,description,billable\n" +
				"nobody@example.com," + day + ",2.00,Drafted revisions to the merger agreement,true\n")

			job, err := service.Submit(ctx, content, "hours.csv", importer.KindTimeEntryImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Failed).To(Equal(1))
			Expect(job.RowErrors[0].ErrorMessage).To(ContainSubstring("nobody@example.com"))
		})

		Context("with 20.00 hours already persisted for the day", func() {
			BeforeEach(func() {
				date, err := time.Parse("2006-01-02", day)
				Expect(err).NotTo(HaveOccurred())
				timeEntries.SeedHours(1, date, 20.00)
			})

			It("rejects a row pushing the day past 24 hours", func() {
				content := []byte("employee_email,date,hours,description,billable\n" +
					"jane@example.com," + day + ",5.00,Drafted revisions to the merger agreement,true\n")

				job, err := service.Submit(ctx, content, "hours.csv", importer.KindTimeEntryImport)
				Expect(err).NotTo(HaveOccurred())
				Expect(job.Succeeded).To(Equal(0))
				Expect(job.Failed).To(Equal(1))
			})

			It("accepts a row keeping the day within the cap", func() {
				content := []byte("employee_email,date,hours,description,billable\n" +
					"jane@example.com," + day + ",3.00,Drafted revisions to the merger agreement,true\n")

				job, err := service.Submit(ctx, content, "hours.csv", importer.KindTimeEntryImport)
				Expect(err).NotTo(HaveOccurred())
				Expect(job.Succeeded).To(Equal(1))
				Expect(job.Failed).To(Equal(0))
			})
		})
	})

	Describe("Submit", func() {
		It("rejects an empty file without creating a job", func() {
			_, err := service.Submit(ctx, []byte(""), "empty.csv", importer.KindEmployeeImport)
			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeEmptyFile))
			Expect(appErr.StatusCode).To(Equal(422))
			Expect(store.jobs).To(BeEmpty())
		})

		It("rejects an unknown kind", func() {
			_, err := service.Submit(ctx, []byte("a,b\n1,2\n"), "x.csv", importer.Kind("mystery"))
			Expect(err).To(HaveOccurred())
		})

		Context("above the sync threshold", func() {
			BeforeEach(func() {
				service = newService(1)
			})

			It("enqueues the job and returns it still queued", func() {
				content := []byte("name,email,position,department,hire_date\n" +
					"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n" +
					"Ravi Narang,ravi@example.com,Partner,Tax,2019-01-02\n")

				job, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
				Expect(err).NotTo(HaveOccurred())
				Expect(job.Status).To(Equal(importer.StatusQueued))
				Expect(queue.enqueued).To(ConsistOf(job.ID))
			})

			It("fails the job when the queue is full", func() {
				queue.full = true
				content := []byte("name,email,position,department,hire_date\n" +
					"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n" +
					"Ravi Narang,ravi@example.com,Partner,Tax,2019-01-02\n")

				_, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
				Expect(err).To(HaveOccurred())

				var failed *importer.ImportJob
				for _, j := range store.jobs {
					failed = j
				}
				Expect(failed).NotTo(BeNil())
				Expect(failed.Status).To(Equal(importer.StatusFailed))
				Expect(*failed.ErrorMessage).To(ContainSubstring("queue"))
			})
		})
	})

	Describe("ProcessQueued", func() {
		BeforeEach(func() {
			service = newService(0)
		})

		It("claims and runs queued jobs left behind by the server", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n")

			job, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(importer.StatusQueued))

			processed := service.ProcessQueued(ctx, time.Now().Add(time.Minute), 10)
			Expect(processed).To(Equal(1))

			refreshed, err := service.GetStatus(job.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.Status).To(Equal(importer.StatusCompleted))
			Expect(refreshed.Succeeded).To(Equal(1))
		})

		It("skips jobs newer than the cutoff", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n")

			_, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).NotTo(HaveOccurred())

			processed := service.ProcessQueued(ctx, time.Now().Add(-time.Hour), 10)
			Expect(processed).To(Equal(0))
		})
	})

	Describe("GetStatus", func() {
		It("returns not found for an unknown job id", func() {
			_, err := service.GetStatus("2c9b07a1-0000-0000-0000-000000000000")
			Expect(err).To(Equal(importer.ErrImportJobNotFound))
		})
	})

	Describe("terminal notifications", func() {
		It("notifies exactly once when a job completes", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n")

			job, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).NotTo(HaveOccurred())
			Expect(job.Status).To(Equal(importer.StatusCompleted))

			Eventually(notifier.count.Load).Should(Equal(int64(1)))
			Consistently(notifier.count.Load, "200ms").Should(Equal(int64(1)))

			event := notifier.last.Load().(notification.JobEvent)
			Expect(event.JobID).To(Equal(job.ID))
			Expect(event.Status).To(Equal("completed"))
			Expect(event.Succeeded).To(Equal(1))
		})

		It("notifies when a job fails at the queue", func() {
			service = newService(0)
			queue.full = true
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n")

			_, err := service.Submit(ctx, content, "staff.csv", importer.KindEmployeeImport)
			Expect(err).To(HaveOccurred())

			Eventually(notifier.count.Load).Should(Equal(int64(1)))
			event := notifier.last.Load().(notification.JobEvent)
			Expect(event.Status).To(Equal("failed"))
		})
	})
})

package timeentry

import (
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/employee"
)

// RepositoryAPI defines data access for time entries. Reads exclude
// soft-deleted entries.
type RepositoryAPI interface {
	Create(entry *TimeEntry) error
	GetByID(id int64) (*TimeEntry, error)
	GetAll(query ListTimeEntriesQuery) ([]*TimeEntry, int64, error)
	GetByEmployeeAndDate(employeeID int64, date time.Time) ([]*TimeEntry, error)
	SumHoursForDay(employeeID int64, date time.Time, excludeID int64) (float64, error)
	Update(entry *TimeEntry) error
	SoftDelete(id int64, deletedAt time.Time) error
	SearchByDescription(query string, limit int) ([]*TimeEntry, error)

	// WithEmployeeLock runs fn inside one transaction while holding an
	// exclusive lock on the employee, so check-then-write sequences on the
	// same employee serialize even across server and worker processes.
	WithEmployeeLock(employeeID int64, fn func(RepositoryAPI) error) error
}

// EmployeeLookup is the slice of the employee service this package needs.
type EmployeeLookup interface {
	GetEmployeeByID(id int64) (*employee.Employee, error)
}

type Service struct {
	repo      RepositoryAPI
	employees EmployeeLookup
	locks     *keyedMutex
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, employees EmployeeLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

func (s *Service) CreateTimeEntry(dto CreateTimeEntryDTO) (*TimeEntry, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Error("time entry validation failed", "error", err, "employee_id", dto.EmployeeID)
		return nil, err
	}

	emp, err := s.employees.GetEmployeeByID(dto.EmployeeID)
	if err != nil {
		if err == employee.ErrEmployeeNotFound {
			return nil, apperrors.NewNotFoundError("employee not found", apperrors.ErrCodeEmployeeNotFound)
		}
		return nil, err
	}
	if !emp.IsActive {
		return nil, apperrors.NewNotFoundError("employee not found", apperrors.ErrCodeEmployeeNotFound)
	}

	// the employee's lock is held across the duplicate and cap checks and the
	// write, so concurrent requests and import rows cannot jointly exceed the
	// daily cap
	lock := s.locks.lockFor(dto.EmployeeID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	entry := &TimeEntry{
		EmployeeID:  dto.EmployeeID,
		EntryDate:   dto.EntryDate,
		Hours:       dto.Hours,
		Description: dto.Description,
		Billable:    dto.Billable,
		MatterCode:  dto.MatterCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.WithEmployeeLock(dto.EmployeeID, func(r RepositoryAPI) error {
		existing, err := r.GetByEmployeeAndDate(dto.EmployeeID, dto.EntryDate)
		if err != nil {
			s.logger.Error("failed to load entries for duplicate check", "error", err,
				"employee_id", dto.EmployeeID, "date", dto.EntryDate.Format("2006-01-02"))
			return err
		}
		for _, e := range existing {
			if e.Description == dto.Description {
				return apperrors.NewConflictError(
					"time entry with this description already exists for this employee and date",
					apperrors.ErrCodeDuplicateEntry)
			}
		}

		persisted, err := r.SumHoursForDay(dto.EmployeeID, dto.EntryDate, 0)
		if err != nil {
			s.logger.Error("failed to sum daily hours", "error", err, "employee_id", dto.EmployeeID)
			return err
		}
		if capErr := ValidateDailyCap(dto.Hours, persisted); capErr != nil {
			s.logger.Warn("daily hour cap exceeded",
				"employee_id", dto.EmployeeID,
				"date", dto.EntryDate.Format("2006-01-02"),
				"candidate_hours", dto.Hours,
				"persisted_hours", persisted)
			return capErr
		}

		return r.Create(entry)
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); !ok {
			s.logger.Error("failed to create time entry", "error", err, "employee_id", dto.EmployeeID)
		}
		return nil, err
	}

	s.logger.Info("time entry created",
		"time_entry_id", entry.ID,
		"employee_id", entry.EmployeeID,
		"hours", entry.Hours,
		"billable", entry.Billable)

	return entry, nil
}

func (s *Service) GetTimeEntryByID(id int64) (*TimeEntry, error) {
	entry, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get time entry", "error", err, "time_entry_id", id)
		return nil, err
	}
	if entry == nil {
		return nil, ErrTimeEntryNotFound
	}
	return entry, nil
}

func (s *Service) GetTimeEntries(query ListTimeEntriesQuery) (*TimeEntriesResponse, error) {
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	if query.StartDate != nil && query.EndDate != nil && query.StartDate.After(*query.EndDate) {
		return nil, apperrors.NewValidationError("start date must be before or equal to end date", apperrors.ErrCodeInvalidDate)
	}

	entries, total, err := s.repo.GetAll(query)
	if err != nil {
		s.logger.Error("failed to list time entries", "error", err)
		return nil, err
	}

	return &TimeEntriesResponse{
		TimeEntries: entries,
		Total:       total,
		Limit:       query.Limit,
		Offset:      query.Offset,
	}, nil
}

func (s *Service) UpdateTimeEntry(id int64, dto UpdateTimeEntryDTO) (*TimeEntry, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("time entry validation failed", "error", err, "time_entry_id", id)
		return nil, err
	}

	entry, err := s.GetTimeEntryByID(id)
	if err != nil {
		return nil, err
	}

	lock := s.locks.lockFor(entry.EmployeeID)
	lock.Lock()
	defer lock.Unlock()

	finalDate := entry.EntryDate
	if dto.EntryDate != nil {
		finalDate = *dto.EntryDate
	}
	finalHours := entry.Hours
	if dto.Hours != nil {
		finalHours = *dto.Hours
	}

	err = s.repo.WithEmployeeLock(entry.EmployeeID, func(r RepositoryAPI) error {
		// re-check the daily cap against the other entries on the target date
		persisted, err := r.SumHoursForDay(entry.EmployeeID, finalDate, entry.ID)
		if err != nil {
			return err
		}
		if capErr := ValidateDailyCap(finalHours, persisted); capErr != nil {
			return capErr
		}

		if dto.EntryDate != nil {
			entry.EntryDate = *dto.EntryDate
		}
		if dto.Hours != nil {
			entry.Hours = *dto.Hours
		}
		if dto.Description != nil {
			entry.Description = *dto.Description
		}
		if dto.Billable != nil {
			entry.Billable = *dto.Billable
		}
		if dto.MatterCode != nil {
			entry.MatterCode = dto.MatterCode
		}
		entry.UpdatedAt = time.Now()

		return r.Update(entry)
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); !ok {
			s.logger.Error("failed to update time entry", "error", err, "time_entry_id", id)
		}
		return nil, err
	}

	s.logger.Info("time entry updated", "time_entry_id", id)
	return entry, nil
}

func (s *Service) DeleteTimeEntry(id int64) error {
	entry, err := s.GetTimeEntryByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(entry.ID, time.Now()); err != nil {
		s.logger.Error("failed to delete time entry", "error", err, "time_entry_id", id)
		return err
	}

	s.logger.Info("time entry deleted", "time_entry_id", id)
	return nil
}

func (s *Service) SearchTimeEntries(query string, limit int) ([]*TimeEntry, error) {
	if len(query) < 2 {
		return nil, apperrors.NewValidationError("search query must be at least 2 characters", apperrors.ErrCodeValidationFailed)
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return s.repo.SearchByDescription(query, limit)
}

// keyedMutex hands out one mutex per employee id. Locks are never released
// from the map; the set of employees is small and process-lifetime.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*sync.Mutex)}
}

func (k *keyedMutex) lockFor(id int64) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	lock, ok := k.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[id] = lock
	}
	return lock
}

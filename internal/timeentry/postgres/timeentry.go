package postgres

import (
	"time"

	"github.com/frahmantamala/people-analytics/internal/timeentry"
	"gorm.io/gorm"
)

// TimeEntryRepository implements the timeentry.RepositoryAPI interface using GORM
type TimeEntryRepository struct {
	db *gorm.DB
}

func NewTimeEntryRepository(db *gorm.DB) timeentry.RepositoryAPI {
	return &TimeEntryRepository{db: db}
}

func (r *TimeEntryRepository) Create(entry *timeentry.TimeEntry) error {
	return r.db.Create(entry).Error
}

// high bits namespacing per-employee time entry locks away from any other
// advisory lock users in the database
const employeeLockNamespace int64 = 7201 << 32

// WithEmployeeLock runs fn in one transaction holding pg_advisory_xact_lock
// on the employee, so check-then-write sequences serialize across the HTTP
// server and the standalone import worker. The lock releases with the
// transaction. Advisory locks exist only on Postgres; other dialects run the
// transaction alone.
func (r *TimeEntryRepository) WithEmployeeLock(employeeID int64, fn func(timeentry.RepositoryAPI) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", employeeLockNamespace^employeeID).Error; err != nil {
				return err
			}
		}
		return fn(&TimeEntryRepository{db: tx})
	})
}

func (r *TimeEntryRepository) GetByID(id int64) (*timeentry.TimeEntry, error) {
	var entry timeentry.TimeEntry
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *TimeEntryRepository) GetAll(query timeentry.ListTimeEntriesQuery) ([]*timeentry.TimeEntry, int64, error) {
	var entries []*timeentry.TimeEntry
	var total int64

	db := r.db.Model(&timeentry.TimeEntry{}).Where("deleted_at IS NULL")

	if query.EmployeeID != nil {
		db = db.Where("employee_id = ?", *query.EmployeeID)
	}
	if query.StartDate != nil {
		db = db.Where("entry_date >= ?", query.StartDate.Format("2006-01-02"))
	}
	if query.EndDate != nil {
		db = db.Where("entry_date <= ?", query.EndDate.Format("2006-01-02"))
	}
	if query.Billable != nil {
		db = db.Where("billable = ?", *query.Billable)
	}
	if query.Search != "" {
		db = db.Where("description LIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("entry_date DESC, id DESC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *TimeEntryRepository) GetByEmployeeAndDate(employeeID int64, date time.Time) ([]*timeentry.TimeEntry, error) {
	var entries []*timeentry.TimeEntry
	err := r.db.
		Where("employee_id = ? AND entry_date = ? AND deleted_at IS NULL",
			employeeID, date.Format("2006-01-02")).
		Find(&entries).Error
	return entries, err
}

// SumHoursForDay totals the employee's persisted hours on a date, skipping
// soft-deleted entries. excludeID lets updates leave their own row out of
// the cap check; pass 0 to include everything.
func (r *TimeEntryRepository) SumHoursForDay(employeeID int64, date time.Time, excludeID int64) (float64, error) {
	var sum *float64
	db := r.db.Model(&timeentry.TimeEntry{}).
		Where("employee_id = ? AND entry_date = ? AND deleted_at IS NULL",
			employeeID, date.Format("2006-01-02"))
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Select("SUM(hours)").Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *TimeEntryRepository) Update(entry *timeentry.TimeEntry) error {
	entry.UpdatedAt = time.Now()
	return r.db.Save(entry).Error
}

func (r *TimeEntryRepository) SoftDelete(id int64, deletedAt time.Time) error {
	return r.db.Model(&timeentry.TimeEntry{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at": deletedAt,
			"updated_at": deletedAt,
		}).Error
}

func (r *TimeEntryRepository) SearchByDescription(query string, limit int) ([]*timeentry.TimeEntry, error) {
	var entries []*timeentry.TimeEntry
	err := r.db.
		Where("description LIKE ? AND deleted_at IS NULL", "%"+query+"%").
		Order("entry_date DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

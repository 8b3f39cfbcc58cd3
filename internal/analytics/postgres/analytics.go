package postgres

import (
	"context"

	"github.com/frahmantamala/people-analytics/internal/analytics"
	"gorm.io/gorm"
)

// AnalyticsRepository implements the analytics.RepositoryAPI read model
// using GORM over the time_entries/employees/departments tables.
type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) analytics.RepositoryAPI {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) EntriesForRange(ctx context.Context, query analytics.SummarizeQuery, includeInactive bool) ([]analytics.EntryRow, error) {
	var rows []analytics.EntryRow

	db := r.db.WithContext(ctx).
		Table("time_entries").
		Select("time_entries.employee_id, employees.name AS employee_name, " +
			"employees.department_id, departments.name AS department_name, " +
			"time_entries.hours, time_entries.billable").
		Joins("JOIN employees ON employees.id = time_entries.employee_id").
		Joins("LEFT JOIN departments ON departments.id = employees.department_id").
		Where("time_entries.deleted_at IS NULL").
		Where("time_entries.entry_date >= ? AND time_entries.entry_date <= ?",
			query.From.Format("2006-01-02"), query.To.Format("2006-01-02"))

	if !includeInactive {
		db = db.Where("employees.is_active = ?", true)
	}
	if query.EmployeeID != nil {
		db = db.Where("time_entries.employee_id = ?", *query.EmployeeID)
	}
	if query.DepartmentID != nil {
		db = db.Where("employees.department_id = ?", *query.DepartmentID)
	}

	// entry order does not matter; the service sorts its output
	err := db.Scan(&rows).Error
	return rows, err
}

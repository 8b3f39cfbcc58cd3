package postgres

import (
	"strings"
	"time"

	"github.com/frahmantamala/people-analytics/internal/employee"
	"gorm.io/gorm"
)

// EmployeeRepository implements the employee.RepositoryAPI interface using GORM
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.RepositoryAPI {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(emp *employee.Employee) error {
	return r.db.Create(emp).Error
}

func (r *EmployeeRepository) GetByID(id int64) (*employee.Employee, error) {
	var emp employee.Employee
	err := r.db.Where("id = ?", id).First(&emp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

// FindByEmail matches active employees only; soft-deleted employees release
// their email for reuse.
func (r *EmployeeRepository) FindByEmail(email string) (*employee.Employee, error) {
	var emp employee.Employee
	err := r.db.Where("lower(email) = ? AND is_active = ?", strings.ToLower(email), true).First(&emp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) GetAll(query employee.ListEmployeesQuery) ([]*employee.Employee, int64, error) {
	base := r.db.Model(&employee.Employee{}).Where("is_active = ?", true)

	if query.DepartmentID != nil {
		base = base.Where("department_id = ?", *query.DepartmentID)
	}
	if query.Search != "" {
		pattern := "%" + strings.ToLower(query.Search) + "%"
		base = base.Where("lower(name) LIKE ? OR lower(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var employees []*employee.Employee
	err := base.
		Order("name ASC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&employees).Error
	return employees, total, err
}

func (r *EmployeeRepository) Update(emp *employee.Employee) error {
	emp.UpdatedAt = time.Now()
	return r.db.Save(emp).Error
}

func (r *EmployeeRepository) SoftDelete(id int64, deletedAt time.Time) error {
	return r.db.Model(&employee.Employee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"deleted_at": deletedAt,
			"updated_at": time.Now(),
		}).Error
}

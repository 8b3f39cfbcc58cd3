package postgres

import (
	"time"

	"github.com/frahmantamala/people-analytics/internal/department"
	"github.com/frahmantamala/people-analytics/internal/employee"
	"gorm.io/gorm"
)

// DepartmentRepository implements the department.RepositoryAPI interface using GORM
type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetAll() ([]*department.Department, error) {
	var departments []*department.Department
	err := r.db.Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) GetByID(id int64) (*department.Department, error) {
	var dept department.Department
	err := r.db.Where("id = ?", id).First(&dept).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) GetByName(name string) (*department.Department, error) {
	var dept department.Department
	err := r.db.Where("name = ?", name).First(&dept).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) Create(dept *department.Department) error {
	return r.db.Create(dept).Error
}

func (r *DepartmentRepository) Update(dept *department.Department) error {
	dept.UpdatedAt = time.Now()
	return r.db.Save(dept).Error
}

// CountEmployees counts active employees only; soft-deleted employees do not
// block a department delete.
func (r *DepartmentRepository) CountEmployees(id int64) (int64, error) {
	var count int64
	err := r.db.Model(&employee.Employee{}).
		Where("department_id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count, err
}

func (r *DepartmentRepository) Delete(id int64) error {
	return r.db.Where("id = ?", id).Delete(&department.Department{}).Error
}

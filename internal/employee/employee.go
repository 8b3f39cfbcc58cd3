package employee

import (
	"errors"
	"time"
)

// Employee represents a staff member. Soft-deleted rather than removed so
// historical time entries keep a valid owner.
type Employee struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"not null"`
	Email        string     `json:"email" gorm:"not null;uniqueIndex"`
	Position     string     `json:"position"`
	DepartmentID *int64     `json:"department_id,omitempty" gorm:"column:department_id"`
	HireDate     time.Time  `json:"hire_date" gorm:"column:hire_date;type:date;not null"`
	IsActive     bool       `json:"is_active" gorm:"column:is_active;default:true"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" gorm:"column:deleted_at"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) Deactivate() {
	now := time.Now()
	e.IsActive = false
	e.DeletedAt = &now
	e.UpdatedAt = now
}

var (
	ErrEmployeeNotFound = errors.New("employee not found")
)

package department

import (
	"errors"
	"time"
)

// Department groups employees for reporting. Referenced, never owned, by
// Employee.
type Department struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;uniqueIndex"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Department) TableName() string {
	return "departments"
}

func NewDepartment(name, description string) *Department {
	now := time.Now()
	return &Department{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

var (
	ErrDepartmentNotFound = errors.New("department not found")
	ErrNameAlreadyExists  = errors.New("department name already exists")
	ErrDepartmentInUse    = errors.New("department still has employees assigned")
)

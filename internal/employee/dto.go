package employee

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/core/common/validation"
)

type CreateEmployeeDTO struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Position     string    `json:"position"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	HireDate     time.Time `json:"hire_date"`
}

// Normalize lowercases the email and trims whitespace so uniqueness checks
// are case-insensitive.
func (dto *CreateEmployeeDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.Position = strings.TrimSpace(dto.Position)
}

func (dto CreateEmployeeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MinTokens(2).MaxLength(100)
	v.Field("email", dto.Email).Required().Email().MaxLength(255)
	v.Field("hire_date", dto.HireDate).Required().NotFuture()
	return v.Validate()
}

type UpdateEmployeeDTO struct {
	Name         *string    `json:"name,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Position     *string    `json:"position,omitempty"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	HireDate     *time.Time `json:"hire_date,omitempty"`
}

func (dto *UpdateEmployeeDTO) Normalize() {
	if dto.Name != nil {
		trimmed := strings.TrimSpace(*dto.Name)
		dto.Name = &trimmed
	}
	if dto.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*dto.Email))
		dto.Email = &lowered
	}
}

func (dto UpdateEmployeeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("name", *dto.Name).Required().MinTokens(2).MaxLength(100)
	}
	if dto.Email != nil {
		v.Field("email", *dto.Email).Required().Email().MaxLength(255)
	}
	if dto.HireDate != nil {
		v.Field("hire_date", *dto.HireDate).Required().NotFuture()
	}
	return v.Validate()
}

type ListEmployeesQuery struct {
	Limit        int
	Offset       int
	DepartmentID *int64
	Search       string
}

type EmployeesResponse struct {
	Employees []*Employee `json:"employees"`
	Total     int64       `json:"total"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}

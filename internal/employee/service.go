package employee

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/search"
)

// RepositoryAPI defines the data access methods for employees. FindByEmail
// and GetAll only consider active employees unless stated otherwise.
type RepositoryAPI interface {
	Create(emp *Employee) error
	GetByID(id int64) (*Employee, error)
	FindByEmail(email string) (*Employee, error)
	GetAll(query ListEmployeesQuery) ([]*Employee, int64, error)
	Update(emp *Employee) error
	SoftDelete(id int64, deletedAt time.Time) error
}

// DepartmentChecker is the slice of the department service this package needs.
type DepartmentChecker interface {
	Exists(id int64) (bool, error)
	GetName(id int64) (string, error)
}

type Service struct {
	repo        RepositoryAPI
	departments DepartmentChecker
	indexer     search.Indexer
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, departments DepartmentChecker, indexer search.Indexer, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		indexer:     indexer,
		logger:      logger,
	}
}

func (s *Service) CreateEmployee(ctx context.Context, dto CreateEmployeeDTO) (*Employee, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Error("employee validation failed", "error", err, "email", dto.Email)
		return nil, err
	}

	existing, err := s.repo.FindByEmail(dto.Email)
	if err != nil {
		s.logger.Error("failed to check email uniqueness", "error", err, "email", dto.Email)
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("employee with this email already exists", apperrors.ErrCodeEmailAlreadyExists)
	}

	// department is optional; when given it must exist
	if dto.DepartmentID != nil {
		exists, err := s.departments.Exists(*dto.DepartmentID)
		if err != nil {
			s.logger.Error("failed to check department", "error", err, "department_id", *dto.DepartmentID)
			return nil, err
		}
		if !exists {
			return nil, apperrors.NewNotFoundError("department not found", apperrors.ErrCodeDepartmentNotFound)
		}
	}

	now := time.Now()
	emp := &Employee{
		Name:         dto.Name,
		Email:        dto.Email,
		Position:     dto.Position,
		DepartmentID: dto.DepartmentID,
		HireDate:     dto.HireDate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(emp); err != nil {
		s.logger.Error("failed to create employee", "error", err, "email", dto.Email)
		return nil, err
	}

	s.logger.Info("employee created",
		"employee_id", emp.ID,
		"email", emp.Email)

	s.indexEmployee(ctx, emp)

	return emp, nil
}

func (s *Service) GetEmployeeByID(id int64) (*Employee, error) {
	emp, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}

// GetEmployeeByEmail resolves an active employee by email, case-insensitive.
// The time-entry import pipeline keys rows on this.
func (s *Service) GetEmployeeByEmail(email string) (*Employee, error) {
	emp, err := s.repo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.logger.Error("failed to find employee by email", "error", err, "email", email)
		return nil, err
	}
	if emp == nil {
		return nil, ErrEmployeeNotFound
	}
	return emp, nil
}

func (s *Service) GetEmployees(query ListEmployeesQuery) (*EmployeesResponse, error) {
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	employees, total, err := s.repo.GetAll(query)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, err
	}

	return &EmployeesResponse{
		Employees: employees,
		Total:     total,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id int64, dto UpdateEmployeeDTO) (*Employee, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Error("employee validation failed", "error", err, "employee_id", id)
		return nil, err
	}

	emp, err := s.GetEmployeeByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Email != nil && *dto.Email != emp.Email {
		existing, err := s.repo.FindByEmail(*dto.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, apperrors.NewConflictError("employee with this email already exists", apperrors.ErrCodeEmailAlreadyExists)
		}
		emp.Email = *dto.Email
	}

	if dto.DepartmentID != nil {
		exists, err := s.departments.Exists(*dto.DepartmentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NewNotFoundError("department not found", apperrors.ErrCodeDepartmentNotFound)
		}
		emp.DepartmentID = dto.DepartmentID
	}

	if dto.Name != nil {
		emp.Name = *dto.Name
	}
	if dto.Position != nil {
		emp.Position = *dto.Position
	}
	if dto.HireDate != nil {
		emp.HireDate = *dto.HireDate
	}
	emp.UpdatedAt = time.Now()

	if err := s.repo.Update(emp); err != nil {
		s.logger.Error("failed to update employee", "error", err, "employee_id", id)
		return nil, err
	}

	s.logger.Info("employee updated", "employee_id", id)

	s.indexEmployee(ctx, emp)

	return emp, nil
}

// DeleteEmployee soft-deletes the employee. Time entries are never removed
// with their owner; historical summaries depend on them.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	emp, err := s.GetEmployeeByID(id)
	if err != nil {
		return err
	}

	emp.Deactivate()
	if err := s.repo.SoftDelete(id, *emp.DeletedAt); err != nil {
		s.logger.Error("failed to soft delete employee", "error", err, "employee_id", id)
		return err
	}

	s.logger.Info("employee soft deleted", "employee_id", id)

	s.indexEmployee(ctx, emp)

	return nil
}

func (s *Service) SearchEmployees(ctx context.Context, query string, limit int) ([]search.EmployeeDocument, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return s.indexer.QueryEmployees(ctx, query, limit)
}

// indexEmployee pushes the employee document to the search index. Indexing
// failure never fails the write; it is logged and dropped.
func (s *Service) indexEmployee(ctx context.Context, emp *Employee) {
	var deptName string
	if emp.DepartmentID != nil {
		name, err := s.departments.GetName(*emp.DepartmentID)
		if err != nil {
			s.logger.Warn("could not resolve department name for indexing",
				"employee_id", emp.ID, "department_id", *emp.DepartmentID, "error", err)
		}
		deptName = name
	}

	doc := search.EmployeeDocument{
		ID:         emp.ID,
		Name:       emp.Name,
		Email:      emp.Email,
		Position:   emp.Position,
		Department: deptName,
		Active:     emp.IsActive,
	}

	if err := s.indexer.UpsertEmployeeDocument(ctx, doc); err != nil {
		s.logger.Warn("search index upsert failed", "employee_id", emp.ID, "error", err)
	}
}

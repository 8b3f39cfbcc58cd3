package department

import (
	"log/slog"
)

type RepositoryAPI interface {
	GetAll() ([]*Department, error)
	GetByID(id int64) (*Department, error)
	GetByName(name string) (*Department, error)
	Create(dept *Department) error
	Update(dept *Department) error
	CountEmployees(id int64) (int64, error)
	Delete(id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAll() ([]*Department, error) {
	departments, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to get departments", "error", err)
		return nil, err
	}
	return departments, nil
}

func (s *Service) GetByID(id int64) (*Department, error) {
	dept, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get department", "error", err, "department_id", id)
		return nil, err
	}
	if dept == nil {
		return nil, ErrDepartmentNotFound
	}
	return dept, nil
}

func (s *Service) Create(dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("department validation failed", "error", err)
		return nil, err
	}

	existing, err := s.repo.GetByName(dto.Name)
	if err != nil {
		s.logger.Error("failed to check department name", "error", err, "name", dto.Name)
		return nil, err
	}
	if existing != nil {
		return nil, ErrNameAlreadyExists
	}

	dept := NewDepartment(dto.Name, dto.Description)
	if err := s.repo.Create(dept); err != nil {
		s.logger.Error("failed to create department", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("department created", "department_id", dept.ID, "name", dept.Name)
	return dept, nil
}

// GetOrCreate resolves a department by name, creating it when absent. Used by
// the employee import pipeline where department names arrive as free text.
func (s *Service) GetOrCreate(name string) (*Department, error) {
	existing, err := s.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	dept := NewDepartment(name, "")
	if err := s.repo.Create(dept); err != nil {
		return nil, err
	}

	s.logger.Info("department auto-created during import", "department_id", dept.ID, "name", name)
	return dept, nil
}

func (s *Service) Update(id int64, dto UpdateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("department validation failed", "error", err, "department_id", id)
		return nil, err
	}

	dept, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil && *dto.Name != dept.Name {
		existing, err := s.repo.GetByName(*dto.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrNameAlreadyExists
		}
		dept.Name = *dto.Name
	}
	if dto.Description != nil {
		dept.Description = *dto.Description
	}

	if err := s.repo.Update(dept); err != nil {
		s.logger.Error("failed to update department", "error", err, "department_id", id)
		return nil, err
	}

	return dept, nil
}

func (s *Service) Delete(id int64) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}

	count, err := s.repo.CountEmployees(id)
	if err != nil {
		s.logger.Error("failed to count department employees", "error", err, "department_id", id)
		return err
	}
	if count > 0 {
		s.logger.Warn("department delete rejected, employees still assigned",
			"department_id", id, "employee_count", count)
		return ErrDepartmentInUse
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete department", "error", err, "department_id", id)
		return err
	}

	s.logger.Info("department deleted", "department_id", id)
	return nil
}

// Exists reports whether the referenced department is present. The employee
// validation layer calls this before accepting a department_id.
func (s *Service) Exists(id int64) (bool, error) {
	dept, err := s.repo.GetByID(id)
	if err != nil {
		return false, err
	}
	return dept != nil, nil
}

// GetName returns the department name, or empty string when the department is
// missing. Used for search-index documents.
func (s *Service) GetName(id int64) (string, error) {
	dept, err := s.repo.GetByID(id)
	if err != nil {
		return "", err
	}
	if dept == nil {
		return "", nil
	}
	return dept.Name, nil
}

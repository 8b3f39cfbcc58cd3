package department

import "errors"

type CreateDepartmentDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (dto CreateDepartmentDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if len(dto.Name) > 100 {
		return errors.New("name must not exceed 100 characters")
	}
	return nil
}

type UpdateDepartmentDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (dto UpdateDepartmentDTO) Validate() error {
	if dto.Name != nil && *dto.Name == "" {
		return errors.New("name cannot be empty")
	}
	if dto.Name != nil && len(*dto.Name) > 100 {
		return errors.New("name must not exceed 100 characters")
	}
	return nil
}

type DepartmentsResponse struct {
	Departments []*Department `json:"departments"`
}

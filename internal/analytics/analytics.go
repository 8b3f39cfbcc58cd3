package analytics

import (
	"time"
)

// Scope selects the aggregation granularity.
type Scope string

const (
	ScopeEmployee   Scope = "employee"
	ScopeDepartment Scope = "department"
	ScopeFirm       Scope = "firm"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeEmployee, ScopeDepartment, ScopeFirm:
		return true
	}
	return false
}

// EntryRow is one persisted time entry joined with its owner's current
// department, as read by the aggregation queries.
type EntryRow struct {
	EmployeeID     int64   `gorm:"column:employee_id"`
	EmployeeName   string  `gorm:"column:employee_name"`
	DepartmentID   *int64  `gorm:"column:department_id"`
	DepartmentName string  `gorm:"column:department_name"`
	Hours          float64 `gorm:"column:hours"`
	Billable       bool    `gorm:"column:billable"`
}

type EmployeeSummary struct {
	EmployeeID      int64   `json:"employee_id"`
	EmployeeName    string  `json:"employee_name"`
	TotalHours      float64 `json:"total_hours"`
	BillableHours   float64 `json:"billable_hours"`
	UtilizationRate float64 `json:"utilization_rate"`
}

type DepartmentSummary struct {
	DepartmentID    int64             `json:"department_id"`
	DepartmentName  string            `json:"department_name"`
	TotalHours      float64           `json:"total_hours"`
	BillableHours   float64           `json:"billable_hours"`
	UtilizationRate float64           `json:"utilization_rate"`
	Employees       []EmployeeSummary `json:"employees"`
}

// Summary is the aggregation result. For a fixed dataset and range the
// output is bit-identical across calls: departments sort by name, employees
// within a department sort by name then id.
type Summary struct {
	Scope             Scope               `json:"scope"`
	From              time.Time           `json:"from"`
	To                time.Time           `json:"to"`
	TotalHours        float64             `json:"total_hours"`
	BillableHours     float64             `json:"billable_hours"`
	UtilizationRate   float64             `json:"utilization_rate"`
	Departments       []DepartmentSummary `json:"departments,omitempty"`
	NoDepartmentCount int                 `json:"no_department_count"`
}

package analytics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	apperrors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/timeentry"
)

// RepositoryAPI is the read-only view over persisted time entries the
// aggregation runs on. Soft-deleted entries are never returned.
type RepositoryAPI interface {
	EntriesForRange(ctx context.Context, query SummarizeQuery, includeInactive bool) ([]EntryRow, error)
}

type SummarizeQuery struct {
	Scope        Scope
	From         time.Time
	To           time.Time
	EmployeeID   *int64
	DepartmentID *int64
}

func (q SummarizeQuery) validate() *apperrors.AppError {
	if !q.Scope.Valid() {
		return apperrors.NewValidationError("scope must be one of employee, department, firm", apperrors.ErrCodeValidationFailed)
	}
	if q.From.IsZero() || q.To.IsZero() {
		return apperrors.NewValidationError("from and to dates are required", apperrors.ErrCodeInvalidDate)
	}
	if q.From.After(q.To) {
		return apperrors.NewValidationError("from date must be before or equal to to date", apperrors.ErrCodeInvalidDate)
	}
	if q.Scope == ScopeEmployee && q.EmployeeID == nil {
		return apperrors.NewValidationError("employee_id is required for employee scope", apperrors.ErrCodeValidationFailed)
	}
	if q.Scope == ScopeDepartment && q.DepartmentID == nil {
		return apperrors.NewValidationError("department_id is required for department scope", apperrors.ErrCodeValidationFailed)
	}
	return nil
}

type Service struct {
	repo            RepositoryAPI
	includeInactive bool
	logger          *slog.Logger
}

// NewService builds the aggregation service. includeInactive controls
// whether soft-deleted employees' historical hours count toward summaries.
func NewService(repo RepositoryAPI, includeInactive bool, logger *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		includeInactive: includeInactive,
		logger:          logger,
	}
}

// Summarize computes totals and utilization for the scope over the date
// range. Read-only; calling it twice over the same persisted state yields
// identical output.
func (s *Service) Summarize(ctx context.Context, query SummarizeQuery) (*Summary, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}

	rows, err := s.repo.EntriesForRange(ctx, query, s.includeInactive)
	if err != nil {
		s.logger.Error("failed to read entries for summary", "error", err, "scope", query.Scope)
		return nil, err
	}

	return buildSummary(query, rows), nil
}

type employeeAccum struct {
	id       int64
	name     string
	total    int64
	billable int64
}

type departmentAccum struct {
	id        int64
	name      string
	employees map[int64]*employeeAccum
}

// buildSummary folds entry rows into the summary. All hour arithmetic runs
// on int64 hundredths; utilization is the exact ratio of the two sums.
func buildSummary(query SummarizeQuery, rows []EntryRow) *Summary {
	var totalH, billableH int64
	departments := make(map[int64]*departmentAccum)
	noDepartment := make(map[int64]struct{})

	for _, row := range rows {
		h := timeentry.Hundredths(row.Hours)
		totalH += h
		if row.Billable {
			billableH += h
		}

		if row.DepartmentID == nil {
			noDepartment[row.EmployeeID] = struct{}{}
			continue
		}

		dept, ok := departments[*row.DepartmentID]
		if !ok {
			dept = &departmentAccum{
				id:        *row.DepartmentID,
				name:      row.DepartmentName,
				employees: make(map[int64]*employeeAccum),
			}
			departments[*row.DepartmentID] = dept
		}
		emp, ok := dept.employees[row.EmployeeID]
		if !ok {
			emp = &employeeAccum{id: row.EmployeeID, name: row.EmployeeName}
			dept.employees[row.EmployeeID] = emp
		}
		emp.total += h
		if row.Billable {
			emp.billable += h
		}
	}

	summary := &Summary{
		Scope:             query.Scope,
		From:              query.From,
		To:                query.To,
		TotalHours:        timeentry.HoursFromHundredths(totalH),
		BillableHours:     timeentry.HoursFromHundredths(billableH),
		UtilizationRate:   utilization(billableH, totalH),
		NoDepartmentCount: len(noDepartment),
	}

	if query.Scope == ScopeEmployee {
		return summary
	}

	for _, dept := range departments {
		var deptTotal, deptBillable int64
		employees := make([]EmployeeSummary, 0, len(dept.employees))
		for _, emp := range dept.employees {
			deptTotal += emp.total
			deptBillable += emp.billable
			employees = append(employees, EmployeeSummary{
				EmployeeID:      emp.id,
				EmployeeName:    emp.name,
				TotalHours:      timeentry.HoursFromHundredths(emp.total),
				BillableHours:   timeentry.HoursFromHundredths(emp.billable),
				UtilizationRate: utilization(emp.billable, emp.total),
			})
		}
		sort.Slice(employees, func(i, j int) bool {
			if employees[i].EmployeeName != employees[j].EmployeeName {
				return employees[i].EmployeeName < employees[j].EmployeeName
			}
			return employees[i].EmployeeID < employees[j].EmployeeID
		})

		summary.Departments = append(summary.Departments, DepartmentSummary{
			DepartmentID:    dept.id,
			DepartmentName:  dept.name,
			TotalHours:      timeentry.HoursFromHundredths(deptTotal),
			BillableHours:   timeentry.HoursFromHundredths(deptBillable),
			UtilizationRate: utilization(deptBillable, deptTotal),
			Employees:       employees,
		})
	}
	sort.Slice(summary.Departments, func(i, j int) bool {
		if summary.Departments[i].DepartmentName != summary.Departments[j].DepartmentName {
			return summary.Departments[i].DepartmentName < summary.Departments[j].DepartmentName
		}
		return summary.Departments[i].DepartmentID < summary.Departments[j].DepartmentID
	})

	return summary
}

// utilization is billable over total, 0 when there are no hours at all.
func utilization(billable, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(billable) / float64(total)
}

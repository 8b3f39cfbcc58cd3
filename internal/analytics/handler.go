package analytics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/people-analytics/internal/transport"
)

type ServiceAPI interface {
	Summarize(ctx context.Context, query SummarizeQuery) (*Summary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Overview returns the firm-wide summary for the range.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.Summarize(r.Context(), SummarizeQuery{
		Scope: ScopeFirm,
		From:  from,
		To:    to,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

// DepartmentBreakdown returns per-department totals for the range, with the
// count of employees that logged hours while holding no department.
func (h *Handler) DepartmentBreakdown(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	query := SummarizeQuery{Scope: ScopeFirm, From: from, To: to}
	if deptStr := r.URL.Query().Get("department_id"); deptStr != "" {
		d, err := strconv.ParseInt(deptStr, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid department_id")
			return
		}
		query.Scope = ScopeDepartment
		query.DepartmentID = &d
	}

	summary, err := h.Service.Summarize(r.Context(), query)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if summary.Departments == nil {
		summary.Departments = []DepartmentSummary{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"from":                summary.From,
		"to":                  summary.To,
		"departments":         summary.Departments,
		"no_department_count": summary.NoDepartmentCount,
	})
}

// EmployeeUtilization returns one employee's totals and utilization rate.
func (h *Handler) EmployeeUtilization(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	empStr := r.URL.Query().Get("employee_id")
	empID, err := strconv.ParseInt(empStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee_id")
		return
	}

	summary, err := h.Service.Summarize(r.Context(), SummarizeQuery{
		Scope:      ScopeEmployee,
		From:       from,
		To:         to,
		EmployeeID: &empID,
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		h.WriteError(w, http.StatusUnprocessableEntity, "invalid from date (use YYYY-MM-DD)")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		h.WriteError(w, http.StatusUnprocessableEntity, "invalid to date (use YYYY-MM-DD)")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

package employee

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/people-analytics/internal/search"
	"github.com/frahmantamala/people-analytics/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateEmployee(ctx context.Context, dto CreateEmployeeDTO) (*Employee, error)
	GetEmployeeByID(id int64) (*Employee, error)
	GetEmployees(query ListEmployeesQuery) (*EmployeesResponse, error)
	UpdateEmployee(ctx context.Context, id int64, dto UpdateEmployeeDTO) (*Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
	SearchEmployees(ctx context.Context, query string, limit int) ([]search.EmployeeDocument, error)
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

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto CreateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateEmployee: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	emp, err := h.Service.CreateEmployee(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateEmployee: employee created",
		"employee_id", emp.ID, "email", emp.Email)

	h.WriteJSON(w, http.StatusCreated, emp)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	emp, err := h.Service.GetEmployeeByID(id)
	if err != nil {
		if err == ErrEmployeeNotFound {
			h.WriteError(w, http.StatusNotFound, "employee not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) GetEmployees(w http.ResponseWriter, r *http.Request) {
	query := ListEmployeesQuery{Limit: 20, Offset: 0}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			query.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			query.Offset = o
		}
	}
	if deptStr := r.URL.Query().Get("department_id"); deptStr != "" {
		if d, err := strconv.ParseInt(deptStr, 10, 64); err == nil {
			query.DepartmentID = &d
		}
	}
	query.Search = r.URL.Query().Get("search")

	resp, err := h.Service.GetEmployees(query)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	var dto UpdateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateEmployee: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	emp, err := h.Service.UpdateEmployee(r.Context(), id, dto)
	if err != nil {
		if err == ErrEmployeeNotFound {
			h.WriteError(w, http.StatusNotFound, "employee not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee ID")
		return
	}

	if err := h.Service.DeleteEmployee(r.Context(), id); err != nil {
		if err == ErrEmployeeNotFound {
			h.WriteError(w, http.StatusNotFound, "employee not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		h.WriteError(w, http.StatusUnprocessableEntity, "search query must be at least 2 characters")
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	results, err := h.Service.SearchEmployees(r.Context(), query, limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if results == nil {
		results = []search.EmployeeDocument{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"query":   query,
	})
}

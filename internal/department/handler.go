package department

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/people-analytics/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetAll() ([]*Department, error)
	GetByID(id int64) (*Department, error)
	Create(dto CreateDepartmentDTO) (*Department, error)
	Update(id int64, dto UpdateDepartmentDTO) (*Department, error)
	Delete(id int64) error
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

func (h *Handler) GetDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.GetAll()
	if err != nil {
		h.Logger.Error("GetDepartments: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get departments")
		return
	}

	h.WriteJSON(w, http.StatusOK, DepartmentsResponse{Departments: departments})
}

func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	dept, err := h.Service.GetByID(id)
	if err != nil {
		if err == ErrDepartmentNotFound {
			h.WriteError(w, http.StatusNotFound, "department not found")
			return
		}
		h.Logger.Error("GetDepartment: service error", "error", err, "department_id", id)
		h.WriteError(w, http.StatusInternalServerError, "failed to get department")
		return
	}

	h.WriteJSON(w, http.StatusOK, dept)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var dto CreateDepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateDepartment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dept, err := h.Service.Create(dto)
	if err != nil {
		switch err {
		case ErrNameAlreadyExists:
			h.WriteError(w, http.StatusConflict, "department name already exists")
		default:
			h.HandleServiceError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, dept)
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	var dto UpdateDepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateDepartment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dept, err := h.Service.Update(id, dto)
	if err != nil {
		switch err {
		case ErrDepartmentNotFound:
			h.WriteError(w, http.StatusNotFound, "department not found")
		case ErrNameAlreadyExists:
			h.WriteError(w, http.StatusConflict, "department name already exists")
		default:
			h.HandleServiceError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, dept)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department ID")
		return
	}

	if err := h.Service.Delete(id); err != nil {
		switch err {
		case ErrDepartmentNotFound:
			h.WriteError(w, http.StatusNotFound, "department not found")
		case ErrDepartmentInUse:
			h.WriteError(w, http.StatusConflict, "department still has employees assigned")
		default:
			h.Logger.Error("DeleteDepartment: service error", "error", err, "department_id", id)
			h.WriteError(w, http.StatusInternalServerError, "failed to delete department")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

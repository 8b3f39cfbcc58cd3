package timeentry

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/people-analytics/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateTimeEntry(dto CreateTimeEntryDTO) (*TimeEntry, error)
	GetTimeEntryByID(id int64) (*TimeEntry, error)
	GetTimeEntries(query ListTimeEntriesQuery) (*TimeEntriesResponse, error)
	UpdateTimeEntry(id int64, dto UpdateTimeEntryDTO) (*TimeEntry, error)
	DeleteTimeEntry(id int64) error
	SearchTimeEntries(query string, limit int) ([]*TimeEntry, error)
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

func (h *Handler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var dto CreateTimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateTimeEntry: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Service.CreateTimeEntry(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateTimeEntry: time entry created",
		"time_entry_id", entry.ID, "employee_id", entry.EmployeeID)

	h.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) GetTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid time entry ID")
		return
	}

	entry, err := h.Service.GetTimeEntryByID(id)
	if err != nil {
		if err == ErrTimeEntryNotFound {
			h.WriteError(w, http.StatusNotFound, "time entry not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) GetTimeEntries(w http.ResponseWriter, r *http.Request) {
	query := ListTimeEntriesQuery{Limit: 20, Offset: 0}

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
	if empStr := r.URL.Query().Get("employee_id"); empStr != "" {
		if e, err := strconv.ParseInt(empStr, 10, 64); err == nil {
			query.EmployeeID = &e
		}
	}
	if startStr := r.URL.Query().Get("start_date"); startStr != "" {
		if t, err := time.Parse("2006-01-02", startStr); err == nil {
			query.StartDate = &t
		} else {
			h.WriteError(w, http.StatusUnprocessableEntity, "invalid start_date (use YYYY-MM-DD)")
			return
		}
	}
	if endStr := r.URL.Query().Get("end_date"); endStr != "" {
		if t, err := time.Parse("2006-01-02", endStr); err == nil {
			query.EndDate = &t
		} else {
			h.WriteError(w, http.StatusUnprocessableEntity, "invalid end_date (use YYYY-MM-DD)")
			return
		}
	}
	if billableStr := r.URL.Query().Get("billable"); billableStr != "" {
		if b, err := strconv.ParseBool(billableStr); err == nil {
			query.Billable = &b
		}
	}
	query.Search = r.URL.Query().Get("search")

	resp, err := h.Service.GetTimeEntries(query)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid time entry ID")
		return
	}

	var dto UpdateTimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateTimeEntry: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Service.UpdateTimeEntry(id, dto)
	if err != nil {
		if err == ErrTimeEntryNotFound {
			h.WriteError(w, http.StatusNotFound, "time entry not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid time entry ID")
		return
	}

	if err := h.Service.DeleteTimeEntry(id); err != nil {
		if err == ErrTimeEntryNotFound {
			h.WriteError(w, http.StatusNotFound, "time entry not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SearchTimeEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	entries, err := h.Service.SearchTimeEntries(query, limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if entries == nil {
		entries = []*TimeEntry{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"results": entries,
		"query":   query,
	})
}

package importer

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/people-analytics/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Submit(ctx context.Context, content []byte, fileName string, kind Kind) (*ImportJob, error)
	GetStatus(jobID string) (*ImportJob, error)
	History(limit int) ([]*ImportJob, error)
}

type Handler struct {
	*transport.BaseHandler
	Service     ServiceAPI
	maxFileSize int64
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, maxFileSize int64) *Handler {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		maxFileSize: maxFileSize,
	}
}

func (h *Handler) SubmitEmployeeImport(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, KindEmployeeImport)
}

func (h *Handler) SubmitTimeEntryImport(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, KindTimeEntryImport)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, kind Kind) {
	content, fileName, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	job, err := h.Service.Submit(r.Context(), content, fileName, kind)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusAccepted, job)
}

// readUpload accepts either a multipart form with a "file" part or a raw
// CSV body. The whole upload is read into memory, bounded by maxFileSize.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
			h.WriteError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
			return nil, "", false
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "missing file part")
			return nil, "", false
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "could not read uploaded file")
			return nil, "", false
		}
		return content, header.Filename, true
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		h.WriteError(w, http.StatusRequestEntityTooLarge, "upload too large or unreadable")
		return nil, "", false
	}
	return content, "upload.csv", true
}

func (h *Handler) GetImportJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := h.Service.GetStatus(jobID)
	if err != nil {
		if err == ErrImportJobNotFound {
			h.WriteError(w, http.StatusNotFound, "import job not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) ListImportJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	jobs, err := h.Service.History(limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if jobs == nil {
		jobs = []*ImportJob{}
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

func (h *Handler) EmployeeTemplate(w http.ResponseWriter, r *http.Request) {
	h.writeTemplate(w, KindEmployeeImport, "employee_import_template.csv")
}

func (h *Handler) TimeEntryTemplate(w http.ResponseWriter, r *http.Request) {
	h.writeTemplate(w, KindTimeEntryImport, "time_entry_import_template.csv")
}

func (h *Handler) writeTemplate(w http.ResponseWriter, kind Kind, fileName string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(Template(kind))); err != nil {
		h.Logger.Error("failed to write template", "kind", kind, "error", err)
	}
}

package importer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	apperrors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/importer"
	"github.com/frahmantamala/people-analytics/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// StubImportService implements importer.ServiceAPI with canned responses
type StubImportService struct {
	submitted     []byte
	submittedName string
	submittedKind importer.Kind
	submitErr     error
	job           *importer.ImportJob
	statusErr     error
}

func (s *StubImportService) Submit(_ context.Context, content []byte, fileName string, kind importer.Kind) (*importer.ImportJob, error) {
	s.submitted = content
	s.submittedName = fileName
	s.submittedKind = kind
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.job, nil
}

func (s *StubImportService) GetStatus(jobID string) (*importer.ImportJob, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.job, nil
}

func (s *StubImportService) History(limit int) ([]*importer.ImportJob, error) {
	if s.job == nil {
		return nil, nil
	}
	return []*importer.ImportJob{s.job}, nil
}

var _ = Describe("Importer Handler", func() {
	var (
		stub    *StubImportService
		handler *importer.Handler
		router  *chi.Mux
	)

	const csvBody = "name,email,position,department,hire_date\n" +
		"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n"

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		stub = &StubImportService{
			job: importer.NewImportJob(importer.KindEmployeeImport, "staff.csv", 1),
		}
		handler = importer.NewHandler(&transport.BaseHandler{Logger: slogger}, stub, 1<<20)

		router = chi.NewRouter()
		router.Post("/imports/employees", handler.SubmitEmployeeImport)
		router.Post("/imports/time-entries", handler.SubmitTimeEntryImport)
		router.Get("/imports/{id}", handler.GetImportJob)
		router.Get("/imports", handler.ListImportJobs)
		router.Get("/imports/employees/template", handler.EmployeeTemplate)
	})

	Describe("submitting uploads", func() {
		It("accepts a raw CSV body", func() {
			req := httptest.NewRequest(http.MethodPost, "/imports/employees", strings.NewReader(csvBody))
			req.Header.Set("Content-Type", "text/csv")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(stub.submitted).To(Equal([]byte(csvBody)))
			Expect(stub.submittedName).To(Equal("upload.csv"))
			Expect(stub.submittedKind).To(Equal(importer.KindEmployeeImport))
		})

		It("accepts a multipart form with a file part", func() {
			var body bytes.Buffer
			writer := multipart.NewWriter(&body)
			part, err := writer.CreateFormFile("file", "q1_hours.csv")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte(csvBody))
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/imports/time-entries", &body)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(stub.submittedName).To(Equal("q1_hours.csv"))
			Expect(stub.submittedKind).To(Equal(importer.KindTimeEntryImport))
		})

		It("rejects a multipart form without a file part", func() {
			var body bytes.Buffer
			writer := multipart.NewWriter(&body)
			Expect(writer.WriteField("note", "no file here")).To(Succeed())
			Expect(writer.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/imports/employees", &body)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("passes a fatal validation failure through as 422", func() {
			stub.submitErr = apperrors.NewFatalImportError("file is empty", apperrors.ErrCodeEmptyFile)

			req := httptest.NewRequest(http.MethodPost, "/imports/employees", strings.NewReader(""))
			req.Header.Set("Content-Type", "text/csv")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))

			var response struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Error.Code).To(Equal("EMPTY_FILE"))
		})
	})

	Describe("GET /imports/{id}", func() {
		It("returns the job as JSON", func() {
			req := httptest.NewRequest(http.MethodGet, "/imports/"+stub.job.ID, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var response importer.ImportJob
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.ID).To(Equal(stub.job.ID))
			Expect(response.Status).To(Equal(importer.StatusQueued))
		})

		It("returns 404 for an unknown job", func() {
			stub.statusErr = importer.ErrImportJobNotFound

			req := httptest.NewRequest(http.MethodGet, "/imports/missing", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /imports", func() {
		It("wraps the jobs in a list payload", func() {
			req := httptest.NewRequest(http.MethodGet, "/imports?limit=5", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var response struct {
				Jobs []importer.ImportJob `json:"jobs"`
			}
			Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())
			Expect(response.Jobs).To(HaveLen(1))
		})
	})

	Describe("templates", func() {
		It("serves the employee template as a CSV attachment", func() {
			req := httptest.NewRequest(http.MethodGet, "/imports/employees/template", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("text/csv"))
			Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring("employee_import_template.csv"))
			Expect(w.Body.String()).To(HavePrefix("name,email,position,department,hire_date"))
		})
	})
})

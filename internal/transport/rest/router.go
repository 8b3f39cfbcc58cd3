package rest

import (
	"database/sql"
	"log/slog"

	"github.com/frahmantamala/people-analytics/internal/analytics"
	"github.com/frahmantamala/people-analytics/internal/department"
	"github.com/frahmantamala/people-analytics/internal/employee"
	"github.com/frahmantamala/people-analytics/internal/importer"
	"github.com/frahmantamala/people-analytics/internal/timeentry"
	"github.com/frahmantamala/people-analytics/internal/transport/middleware"
	"github.com/go-chi/chi"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	allowedOrigins string,
	departmentHandler *department.Handler,
	employeeHandler *employee.Handler,
	timeEntryHandler *timeentry.Handler,
	analyticsHandler *analytics.Handler,
	importHandler *importer.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if departmentHandler != nil {
			r.Route("/departments", func(dr chi.Router) {
				dr.Get("/", departmentHandler.GetDepartments)
				dr.Post("/", departmentHandler.CreateDepartment)
				dr.Get("/{id}", departmentHandler.GetDepartment)
				dr.Patch("/{id}", departmentHandler.UpdateDepartment)
				dr.Delete("/{id}", departmentHandler.DeleteDepartment)
			})
		}

		if employeeHandler != nil {
			r.Route("/employees", func(er chi.Router) {
				er.Get("/", employeeHandler.GetEmployees)
				er.Post("/", employeeHandler.CreateEmployee)
				er.Get("/search", employeeHandler.SearchEmployees)
				er.Get("/{id}", employeeHandler.GetEmployee)
				er.Patch("/{id}", employeeHandler.UpdateEmployee)
				er.Delete("/{id}", employeeHandler.DeleteEmployee)
			})
		}

		if timeEntryHandler != nil {
			r.Route("/time-entries", func(tr chi.Router) {
				tr.Get("/", timeEntryHandler.GetTimeEntries)
				tr.Post("/", timeEntryHandler.CreateTimeEntry)
				tr.Get("/search", timeEntryHandler.SearchTimeEntries)
				tr.Get("/{id}", timeEntryHandler.GetTimeEntry)
				tr.Patch("/{id}", timeEntryHandler.UpdateTimeEntry)
				tr.Delete("/{id}", timeEntryHandler.DeleteTimeEntry)
			})
		}

		if analyticsHandler != nil {
			r.Route("/analytics", func(ar chi.Router) {
				ar.Get("/overview", analyticsHandler.Overview)
				ar.Get("/departments", analyticsHandler.DepartmentBreakdown)
				ar.Get("/utilization", analyticsHandler.EmployeeUtilization)
			})
		}

		if importHandler != nil {
			r.Route("/imports", func(ir chi.Router) {
				ir.Get("/", importHandler.ListImportJobs)
				ir.Post("/employees", importHandler.SubmitEmployeeImport)
				ir.Post("/time-entries", importHandler.SubmitTimeEntryImport)
				ir.Get("/employees/template", importHandler.EmployeeTemplate)
				ir.Get("/time-entries/template", importHandler.TimeEntryTemplate)
				ir.Get("/{id}", importHandler.GetImportJob)
			})
		}
	})
}

package analytics_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/people-analytics/internal/analytics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAnalyticsService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Analytics Service Suite")
}

// MockRepository implements analytics.RepositoryAPI for testing
type MockRepository struct {
	rows      []analytics.EntryRow
	callCount int
}

func (m *MockRepository) EntriesForRange(_ context.Context, query analytics.SummarizeQuery, _ bool) ([]analytics.EntryRow, error) {
	m.callCount++
	if query.EmployeeID != nil {
		var filtered []analytics.EntryRow
		for _, r := range m.rows {
			if r.EmployeeID == *query.EmployeeID {
				filtered = append(filtered, r)
			}
		}
		return filtered, nil
	}
	return m.rows, nil
}

func deptID(id int64) *int64 { return &id }

var _ = Describe("Analytics Service", func() {
	var (
		mockRepo *MockRepository
		service  *analytics.Service
		ctx      context.Context
		from, to time.Time
	)

	firmQuery := func() analytics.SummarizeQuery {
		return analytics.SummarizeQuery{Scope: analytics.ScopeFirm, From: from, To: to}
	}

	BeforeEach(func() {
		mockRepo = &MockRepository{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = analytics.NewService(mockRepo, true, logger)
		ctx = context.Background()
		from = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	})

	Describe("Summarize", func() {
		Context("with 100 total hours of which 60 are billable", func() {
			BeforeEach(func() {
				mockRepo.rows = []analytics.EntryRow{
					{EmployeeID: 1, EmployeeName: "Jane Smith", DepartmentID: deptID(1), DepartmentName: "Corporate", Hours: 40.00, Billable: true},
					{EmployeeID: 1, EmployeeName: "Jane Smith", DepartmentID: deptID(1), DepartmentName: "Corporate", Hours: 10.00, Billable: false},
					{EmployeeID: 2, EmployeeName: "Ravi Narang", DepartmentID: deptID(1), DepartmentName: "Corporate", Hours: 20.00, Billable: true},
					{EmployeeID: 3, EmployeeName: "Tom Okafor", DepartmentID: deptID(2), DepartmentName: "Litigation", Hours: 30.00, Billable: false},
				}
			})

			It("reports utilization 0.60 at firm level", func() {
				summary, err := service.Summarize(ctx, firmQuery())
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.TotalHours).To(Equal(100.00))
				Expect(summary.BillableHours).To(Equal(60.00))
				Expect(summary.UtilizationRate).To(Equal(0.60))
			})

			It("sorts departments by name and employees by name", func() {
				summary, err := service.Summarize(ctx, firmQuery())
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.Departments).To(HaveLen(2))
				Expect(summary.Departments[0].DepartmentName).To(Equal("Corporate"))
				Expect(summary.Departments[1].DepartmentName).To(Equal("Litigation"))

				corp := summary.Departments[0]
				Expect(corp.Employees).To(HaveLen(2))
				Expect(corp.Employees[0].EmployeeName).To(Equal("Jane Smith"))
				Expect(corp.Employees[1].EmployeeName).To(Equal("Ravi Narang"))
				Expect(corp.TotalHours).To(Equal(70.00))
				Expect(corp.BillableHours).To(Equal(60.00))
			})

			It("is deterministic across repeated calls", func() {
				first, err := service.Summarize(ctx, firmQuery())
				Expect(err).NotTo(HaveOccurred())
				second, err := service.Summarize(ctx, firmQuery())
				Expect(err).NotTo(HaveOccurred())
				Expect(first).To(Equal(second))
				Expect(mockRepo.callCount).To(Equal(2))
			})
		})

		Context("with no entries at all", func() {
			It("reports utilization exactly 0", func() {
				summary, err := service.Summarize(ctx, firmQuery())
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.TotalHours).To(BeZero())
				Expect(summary.UtilizationRate).To(BeZero())
			})
		})

		Context("with employees holding no department", func() {
			BeforeEach(func() {
				mockRepo.rows = []analytics.EntryRow{
					{EmployeeID: 1, EmployeeName: "Jane Smith", DepartmentID: deptID(1), DepartmentName: "Corporate", Hours: 8.00, Billable: true},
					{EmployeeID: 4, EmployeeName: "Free Agent", DepartmentID: nil, Hours: 4.00, Billable: true},
					{EmployeeID: 4, EmployeeName: "Free Agent", DepartmentID: nil, Hours: 2.00, Billable: false},
					{EmployeeID: 5, EmployeeName: "Other Agent", DepartmentID: nil, Hours: 1.00, Billable: false},
				}
			})

			It("excludes them from the breakdown but counts their hours and heads", func() {
				summary, err := service.Summarize(ctx, firmQuery())
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.TotalHours).To(Equal(15.00))
				Expect(summary.Departments).To(HaveLen(1))
				Expect(summary.NoDepartmentCount).To(Equal(2))
			})
		})

		Context("employee scope", func() {
			BeforeEach(func() {
				mockRepo.rows = []analytics.EntryRow{
					{EmployeeID: 1, EmployeeName: "Jane Smith", DepartmentID: deptID(1), DepartmentName: "Corporate", Hours: 6.00, Billable: true},
					{EmployeeID: 2, EmployeeName: "Ravi Narang", DepartmentID: deptID(1), DepartmentName: "Corporate", Hours: 9.00, Billable: false},
				}
			})

			It("sums only that employee and omits the breakdown", func() {
				id := int64(1)
				summary, err := service.Summarize(ctx, analytics.SummarizeQuery{
					Scope: analytics.ScopeEmployee, From: from, To: to, EmployeeID: &id,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.TotalHours).To(Equal(6.00))
				Expect(summary.UtilizationRate).To(Equal(1.00))
				Expect(summary.Departments).To(BeEmpty())
			})

			It("requires an employee id", func() {
				_, err := service.Summarize(ctx, analytics.SummarizeQuery{
					Scope: analytics.ScopeEmployee, From: from, To: to,
				})
				Expect(err).To(HaveOccurred())
			})
		})

		It("rejects an unknown scope", func() {
			_, err := service.Summarize(ctx, analytics.SummarizeQuery{Scope: "galaxy", From: from, To: to})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an inverted date range", func() {
			_, err := service.Summarize(ctx, analytics.SummarizeQuery{Scope: analytics.ScopeFirm, From: to, To: from})
			Expect(err).To(HaveOccurred())
		})
	})
})

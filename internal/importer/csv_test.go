package importer_test

import (
	apperrors "github.com/frahmantamala/people-analytics/internal"
	"github.com/frahmantamala/people-analytics/internal/importer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseFile", func() {
	Context("fatal conditions", func() {
		It("rejects an empty file", func() {
			_, appErr := importer.ParseFile([]byte("   \n"), importer.KindEmployeeImport)
			Expect(appErr).NotTo(BeNil())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeEmptyFile))
			Expect(appErr.StatusCode).To(Equal(422))
		})

		It("rejects a header missing required columns", func() {
			content := []byte("name,email,position\nJane Smith,jane@example.com,Associate\n")
			_, appErr := importer.ParseFile(content, importer.KindEmployeeImport)
			Expect(appErr).NotTo(BeNil())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeMissingColumns))
			Expect(appErr.Message).To(ContainSubstring("department"))
			Expect(appErr.Message).To(ContainSubstring("hire_date"))
		})

		It("rejects a header-only file", func() {
			content := []byte("name,email,position,department,hire_date\n")
			_, appErr := importer.ParseFile(content, importer.KindEmployeeImport)
			Expect(appErr).NotTo(BeNil())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeEmptyFile))
		})
	})

	Context("data rows", func() {
		It("numbers data rows from 1, header excluded", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com,Associate,Corporate,2023-04-17\n" +
				"Ravi Narang,ravi@example.com,Partner,Tax,2019-01-02\n")
			parsed, appErr := importer.ParseFile(content, importer.KindEmployeeImport)
			Expect(appErr).To(BeNil())
			Expect(parsed.Rows).To(HaveLen(2))
			Expect(parsed.Rows[0].Number).To(Equal(1))
			Expect(parsed.Rows[1].Number).To(Equal(2))
			Expect(parsed.Rows[1].Fields["email"]).To(Equal("ravi@example.com"))
		})

		It("flags a row with too few columns instead of failing the parse", func() {
			content := []byte("name,email,position,department,hire_date\n" +
				"Jane Smith,jane@example.com\n" +
				"Ravi Narang,ravi@example.com,Partner,Tax,2019-01-02\n")
			parsed, appErr := importer.ParseFile(content, importer.KindEmployeeImport)
			Expect(appErr).To(BeNil())
			Expect(parsed.Rows).To(HaveLen(2))
			Expect(parsed.Rows[0].ParseErr).To(ContainSubstring("expected 5 columns"))
			Expect(parsed.Rows[1].ParseErr).To(BeEmpty())
		})

		It("matches columns case-insensitively and trims whitespace", func() {
			content := []byte("Name, Email ,Position,Department,Hire_Date\n" +
				" Jane Smith , jane@example.com ,Associate,Corporate,2023-04-17\n")
			parsed, appErr := importer.ParseFile(content, importer.KindEmployeeImport)
			Expect(appErr).To(BeNil())
			Expect(parsed.Rows[0].Fields["name"]).To(Equal("Jane Smith"))
			Expect(parsed.Rows[0].Fields["email"]).To(Equal("jane@example.com"))
		})
	})
})

var _ = Describe("Template", func() {
	It("starts with the required employee header", func() {
		Expect(importer.Template(importer.KindEmployeeImport)).
			To(HavePrefix("name,email,position,department,hire_date\n"))
	})

	It("starts with the required time entry header", func() {
		Expect(importer.Template(importer.KindTimeEntryImport)).
			To(HavePrefix("employee_email,date,hours,description,billable\n"))
	})
})

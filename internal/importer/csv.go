package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/frahmantamala/people-analytics/internal"
)

var requiredColumns = map[Kind][]string{
	KindEmployeeImport:  {"name", "email", "position", "department", "hire_date"},
	KindTimeEntryImport: {"employee_email", "date", "hours", "description", "billable"},
}

// Row is one data row of an upload. Number is 1-based; the header is row 0.
// ParseErr is set when the row itself could not be read as CSV, in which
// case Fields is nil and the row must be recorded as a row error.
type Row struct {
	Number   int
	Fields   map[string]string
	Raw      string
	ParseErr string
}

type ParsedFile struct {
	Header []string
	Rows   []Row
}

// ParseFile reads the whole upload. Fatal conditions (empty file, unreadable
// header, missing required columns) return an AppError and no rows; a bad
// individual data row never fails the parse, it comes back with ParseErr set.
func ParseFile(content []byte, kind Kind) (*ParsedFile, *apperrors.AppError) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, apperrors.NewFatalImportError("file is empty", apperrors.ErrCodeEmptyFile)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewFatalImportError("could not read file header", apperrors.ErrCodeMalformedFile).WithCause(err)
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		columns[i] = name
		index[name] = i
	}

	var missing []string
	for _, col := range requiredColumns[kind] {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewFatalImportError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
			apperrors.ErrCodeMissingColumns)
	}

	parsed := &ParsedFile{Header: columns}
	rowNumber := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNumber++
		if err != nil {
			parsed.Rows = append(parsed.Rows, Row{
				Number:   rowNumber,
				Raw:      "",
				ParseErr: fmt.Sprintf("unreadable row: %v", err),
			})
			continue
		}

		raw := strings.Join(record, ",")
		if len(record) < len(columns) {
			parsed.Rows = append(parsed.Rows, Row{
				Number:   rowNumber,
				Raw:      raw,
				ParseErr: fmt.Sprintf("expected %d columns, got %d", len(columns), len(record)),
			})
			continue
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			fields[col] = strings.TrimSpace(record[i])
		}
		parsed.Rows = append(parsed.Rows, Row{
			Number: rowNumber,
			Fields: fields,
			Raw:    raw,
		})
	}

	if len(parsed.Rows) == 0 {
		return nil, apperrors.NewFatalImportError("file has no data rows", apperrors.ErrCodeEmptyFile)
	}

	return parsed, nil
}

// Template returns a downloadable CSV skeleton for the import kind: the
// required header plus one example row.
func Template(kind Kind) string {
	switch kind {
	case KindEmployeeImport:
		return "name,email,position,department,hire_date\n" +
			"Jane Smith,jane.smith@example.com,Senior Associate,Corporate,2023-04-17\n"
	case KindTimeEntryImport:
		return "employee_email,date,hours,description,billable\n" +
			"jane.smith@example.com,2024-01-10,7.50,Drafted revisions to the merger agreement,true\n"
	}
	return ""
}

func parseBillable(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid billable value %q", value)
}

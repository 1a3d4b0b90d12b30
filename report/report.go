package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/utils"
)

const (
	TimestampLayout = "Jan 2, 2006, 03:04 PM"
	UnknownEmployee = "Unknown Employee"
)

var Header = []string{"Employee", "Punch Type", "Timestamp", "Location", "Synced"}

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

type Report struct {
	Criteria Criteria                 `json:"-"`
	Records  []model.AttendanceRecord `json:"records"`
	Stats    Stats                    `json:"stats"`

	names map[string]string
	loc   *time.Location
}

// New filters records by c and summarizes them against the current employees.
func New(employees []model.Employee, records []model.AttendanceRecord, c Criteria, loc *time.Location) *Report {
	filtered := Filter(records, c, loc)
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}
	return &Report{
		Criteria: c,
		Records:  filtered,
		Stats:    Summarize(len(employees), filtered),
		names:    names,
		loc:      loc,
	}
}

// Build loads employees and records from the store and creates the report.
func Build(ctx context.Context, rs *store.RecordStore, c Criteria) (*Report, error) {
	employees, err := rs.Employees(ctx)
	if err != nil {
		return nil, err
	}
	records, err := rs.Records(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	return New(employees, records, c, rs.Location()), nil
}

// EmployeeName resolves the current name of the employee, falling back to the
// name copied onto the record.
func (r *Report) EmployeeName(rec model.AttendanceRecord) string {
	if name, ok := r.names[rec.EmployeeID]; ok {
		return name
	}
	if rec.EmployeeName != "" {
		return rec.EmployeeName
	}
	return UnknownEmployee
}

// Rows returns the header followed by one row per record.
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Records)+1)
	rows = append(rows, Header)
	for _, rec := range r.Records {
		rows = append(rows, []string{
			r.EmployeeName(rec),
			string(rec.PunchType),
			rec.Timestamp.In(r.loc).Format(TimestampLayout),
			rec.Location.Coordinates(),
			utils.FormatBoolean(rec.IsSynced, "Yes", "No"),
		})
	}
	return rows
}

func (r *Report) FileName(f Format) string {
	return FileName(r.Criteria, string(f))
}

// Render writes the report in the given format.
func (r *Report) Render(f Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case XLSX:
		err = r.WriteXLSX(&buf)
	default:
		err = r.WriteCSV(&buf)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

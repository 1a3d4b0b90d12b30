// Package report filters attendance records for administrators and exports them.
package report

import (
	"time"

	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/utils"
)

// Criteria selects the records of a report.
type Criteria struct {
	// EmployeeID is an employee id, or empty/"all" for everyone.
	EmployeeID string
	// Date limits the report to one local calendar date.
	Date *time.Time
}

func (c Criteria) query() store.Query {
	return store.Query{EmployeeID: c.EmployeeID, Date: c.Date}
}

// DateLabel returns the date as YYYY-MM-DD, or "all".
func (c Criteria) DateLabel() string {
	if c.Date == nil {
		return "all"
	}
	return c.Date.Format(utils.DateLayout)
}

// Filter returns the records matching c, newest first.
func Filter(records []model.AttendanceRecord, c Criteria, loc *time.Location) []model.AttendanceRecord {
	return utils.SortedBy(c.query().Apply(records, loc), func(a, b model.AttendanceRecord) bool {
		return a.Timestamp.After(b.Timestamp)
	})
}

// FileName names an export artifact, e.g. attendance_2024-03-09.csv or attendance_all.xlsx.
func FileName(c Criteria, ext string) string {
	return "attendance_" + c.DateLabel() + "." + ext
}

package store

import (
	"time"

	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/utils"
)

// AllEmployees selects records of every employee.
const AllEmployees = "all"

// Query narrows a list of attendance records. The zero value matches everything.
type Query struct {
	// EmployeeID is an exact match; empty or "all" matches every employee.
	EmployeeID string
	// Date matches records whose local calendar date equals Date's year, month and day.
	Date *time.Time
	// UnsyncedOnly keeps records that have not been synced yet.
	UnsyncedOnly bool
}

func (q Query) Match(r model.AttendanceRecord, loc *time.Location) bool {
	if q.EmployeeID != "" && q.EmployeeID != AllEmployees && r.EmployeeID != q.EmployeeID {
		return false
	}
	if q.Date != nil && !utils.SameDate(r.Timestamp.In(loc), *q.Date) {
		return false
	}
	if q.UnsyncedOnly && r.IsSynced {
		return false
	}
	return true
}

// Apply returns the records matching q, keeping their order.
func (q Query) Apply(records []model.AttendanceRecord, loc *time.Location) []model.AttendanceRecord {
	return utils.Filter(records, func(r model.AttendanceRecord) bool {
		return q.Match(r, loc)
	})
}

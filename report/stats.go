package report

import "axiapac.com/punchclock/model"

type Stats struct {
	Employees int `json:"employees"`
	Records   int `json:"records"`
	PunchIns  int `json:"punchIns"`
	Unsynced  int `json:"unsynced"`
}

// Summarize counts the filtered records. employees is the total number of employees,
// not only those appearing in records.
func Summarize(employees int, records []model.AttendanceRecord) Stats {
	s := Stats{Employees: employees, Records: len(records)}
	for _, r := range records {
		if r.PunchType == model.PunchIn {
			s.PunchIns++
		}
		if !r.IsSynced {
			s.Unsynced++
		}
	}
	return s
}

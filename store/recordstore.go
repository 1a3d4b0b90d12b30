// Package store keeps employees, attendance records and the device session
// on top of a kv.Store. Each collection is one JSON value under its own key.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"axiapac.com/punchclock/core"
	"axiapac.com/punchclock/kv"
	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/utils"
)

const (
	keyEmployees         = "employees"
	keyAttendanceRecords = "attendance_records"
	keyAuthToken         = "authToken"
	keyCurrentEmployeeID = "currentEmployeeId"
)

// RecordStore is not transactional across keys. A crash between two writes
// can leave the session half saved; readers treat a half session as none.
type RecordStore struct {
	kv    kv.Store
	loc   *time.Location
	mutex sync.Mutex
}

// New creates a record store. loc decides what "today" and date filters mean.
func New(s kv.Store, loc *time.Location) *RecordStore {
	if loc == nil {
		loc = time.Local
	}
	return &RecordStore{kv: s, loc: loc}
}

func (rs *RecordStore) Location() *time.Location {
	return rs.loc
}

func readJSON[T any](ctx context.Context, s kv.Store, key string) ([]T, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, core.StorageError("read "+key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, core.StorageError("decode "+key, err)
	}
	return items, nil
}

func writeJSON[T any](ctx context.Context, s kv.Store, key string, items []T) error {
	b, err := json.Marshal(items)
	if err != nil {
		return core.StorageError("encode "+key, err)
	}
	if err := s.Set(ctx, key, string(b)); err != nil {
		return core.StorageError("write "+key, err)
	}
	return nil
}

// SaveEmployee inserts the employee or replaces the one with the same ID.
// A phone number held by another employee is rejected with core.ErrConflict.
func (rs *RecordStore) SaveEmployee(ctx context.Context, employee model.Employee) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	employees, err := readJSON[model.Employee](ctx, rs.kv, keyEmployees)
	if err != nil {
		return err
	}

	if taken := utils.Find(employees, func(e *model.Employee) bool {
		return e.PhoneNumber == employee.PhoneNumber && e.ID != employee.ID
	}); taken != nil {
		return fmt.Errorf("phone number %s belongs to employee %s: %w", employee.PhoneNumber, taken.ID, core.ErrConflict)
	}

	if existing := utils.Find(employees, func(e *model.Employee) bool { return e.ID == employee.ID }); existing != nil {
		*existing = employee
	} else {
		employees = append(employees, employee)
	}

	return writeJSON(ctx, rs.kv, keyEmployees, employees)
}

func (rs *RecordStore) Employees(ctx context.Context) ([]model.Employee, error) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	return readJSON[model.Employee](ctx, rs.kv, keyEmployees)
}

func (rs *RecordStore) findEmployee(ctx context.Context, match func(*model.Employee) bool) (*model.Employee, error) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	employees, err := readJSON[model.Employee](ctx, rs.kv, keyEmployees)
	if err != nil {
		return nil, err
	}
	emp := utils.Find(employees, match)
	if emp == nil {
		return nil, core.ErrNotFound
	}
	return emp, nil
}

// EmployeeByPhone returns core.ErrNotFound when no employee has the number.
func (rs *RecordStore) EmployeeByPhone(ctx context.Context, phoneNumber string) (*model.Employee, error) {
	emp, err := rs.findEmployee(ctx, func(e *model.Employee) bool { return e.PhoneNumber == phoneNumber })
	if err != nil {
		return nil, fmt.Errorf("employee with phone %s: %w", phoneNumber, err)
	}
	return emp, nil
}

// EmployeeByID returns core.ErrNotFound when no employee has the id.
func (rs *RecordStore) EmployeeByID(ctx context.Context, id string) (*model.Employee, error) {
	emp, err := rs.findEmployee(ctx, func(e *model.Employee) bool { return e.ID == id })
	if err != nil {
		return nil, fmt.Errorf("employee %s: %w", id, err)
	}
	return emp, nil
}

func (rs *RecordStore) AppendRecord(ctx context.Context, record model.AttendanceRecord) error {
	if !record.PunchType.Valid() {
		return fmt.Errorf("record %s has unknown punch type %q", record.ID, record.PunchType)
	}

	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	records, err := readJSON[model.AttendanceRecord](ctx, rs.kv, keyAttendanceRecords)
	if err != nil {
		return err
	}
	records = append(records, record)
	return writeJSON(ctx, rs.kv, keyAttendanceRecords, records)
}

// Records returns the records matching q in the order they were appended.
func (rs *RecordStore) Records(ctx context.Context, q Query) ([]model.AttendanceRecord, error) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	records, err := readJSON[model.AttendanceRecord](ctx, rs.kv, keyAttendanceRecords)
	if err != nil {
		return nil, err
	}
	return q.Apply(records, rs.loc), nil
}

// TodayRecords returns the employee's records on the local calendar date of now.
func (rs *RecordStore) TodayRecords(ctx context.Context, employeeID string, now time.Time) ([]model.AttendanceRecord, error) {
	today := now.In(rs.loc)
	return rs.Records(ctx, Query{EmployeeID: employeeID, Date: &today})
}

func (rs *RecordStore) UnsyncedRecords(ctx context.Context) ([]model.AttendanceRecord, error) {
	return rs.Records(ctx, Query{UnsyncedOnly: true})
}

// MarkSynced flags the record as synced. Unknown ids are ignored.
func (rs *RecordStore) MarkSynced(ctx context.Context, recordID string) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	records, err := readJSON[model.AttendanceRecord](ctx, rs.kv, keyAttendanceRecords)
	if err != nil {
		return err
	}
	rec := utils.Find(records, func(r *model.AttendanceRecord) bool { return r.ID == recordID })
	if rec == nil {
		return nil
	}
	rec.IsSynced = true
	return writeJSON(ctx, rs.kv, keyAttendanceRecords, records)
}

// SaveSession replaces the device session.
func (rs *RecordStore) SaveSession(ctx context.Context, token, employeeID string) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if err := rs.kv.Set(ctx, keyAuthToken, token); err != nil {
		return core.StorageError("write "+keyAuthToken, err)
	}
	if err := rs.kv.Set(ctx, keyCurrentEmployeeID, employeeID); err != nil {
		return core.StorageError("write "+keyCurrentEmployeeID, err)
	}
	return nil
}

// Session returns the saved session, or nil when there is none.
func (rs *RecordStore) Session(ctx context.Context) (*model.Session, error) {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	token, ok, err := rs.kv.Get(ctx, keyAuthToken)
	if err != nil {
		return nil, core.StorageError("read "+keyAuthToken, err)
	}
	if !ok || token == "" {
		return nil, nil
	}
	employeeID, ok, err := rs.kv.Get(ctx, keyCurrentEmployeeID)
	if err != nil {
		return nil, core.StorageError("read "+keyCurrentEmployeeID, err)
	}
	if !ok || employeeID == "" {
		return nil, nil
	}
	return &model.Session{Token: token, EmployeeID: employeeID}, nil
}

func (rs *RecordStore) ClearSession(ctx context.Context) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if err := rs.kv.Remove(ctx, keyAuthToken); err != nil {
		return core.StorageError("remove "+keyAuthToken, err)
	}
	if err := rs.kv.Remove(ctx, keyCurrentEmployeeID); err != nil {
		return core.StorageError("remove "+keyCurrentEmployeeID, err)
	}
	return nil
}

// ClearAll removes employees, records and the session.
func (rs *RecordStore) ClearAll(ctx context.Context) error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if err := rs.kv.Clear(ctx); err != nil {
		return core.StorageError("clear", err)
	}
	return nil
}

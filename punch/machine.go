// Package punch toggles an employee between punched in and punched out.
//
// The state is not stored. It is read from the employee's records of the current
// local day: the type of the latest record, or PUNCHED_OUT when there is none.
package punch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"axiapac.com/punchclock/camera"
	"axiapac.com/punchclock/core"
	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/infrastructure/communication"
	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/store"
)

var ErrAlreadyCompleted = errors.New("punch already completed")

type Status struct {
	State         model.PunchState         `json:"state"`
	LastPunch     *model.AttendanceRecord  `json:"lastPunch,omitempty"`
	TodayRecords  []model.AttendanceRecord `json:"todayRecords"`
	NextPunchType model.PunchType          `json:"nextPunchType"`
}

type Options struct {
	// LocationTimeout bounds the wait for a location fix. Zero means geo.DefaultTimeout.
	LocationTimeout time.Duration
	// Site, when set, rejects punches located outside it.
	Site *geo.Site
	// Archive, when set, receives a copy of each punch photo.
	Archive  camera.Archive
	Notifier communication.Notifier
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

type Machine struct {
	store     *store.RecordStore
	locations geo.Provider
	opts      Options
}

// New creates a punch state machine. locations is asked for a fix whenever a punch
// is completed without one.
func New(rs *store.RecordStore, locations geo.Provider, opts Options) *Machine {
	if opts.LocationTimeout <= 0 {
		opts.LocationTimeout = geo.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = communication.LogNotifier{Logger: opts.Logger}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Machine{store: rs, locations: locations, opts: opts}
}

// Status reports where the employee stands today.
func (m *Machine) Status(ctx context.Context, employeeID string) (*Status, error) {
	today, err := m.store.TodayRecords(ctx, employeeID, m.opts.Now())
	if err != nil {
		return nil, err
	}

	status := &Status{State: model.PunchedOut, TodayRecords: today}
	if last := latest(today); last != nil {
		status.LastPunch = last
		if last.PunchType == model.PunchIn {
			status.State = model.PunchedIn
		}
	}
	status.NextPunchType = nextPunchType(status.State)
	return status, nil
}

func nextPunchType(state model.PunchState) model.PunchType {
	if state == model.PunchedIn {
		return model.PunchOut
	}
	return model.PunchIn
}

// latest returns the chronologically last record; among equal timestamps the one appended last.
func latest(records []model.AttendanceRecord) *model.AttendanceRecord {
	var last *model.AttendanceRecord
	for i := range records {
		if last == nil || !records[i].Timestamp.Before(last.Timestamp) {
			last = &records[i]
		}
	}
	if last == nil {
		return nil
	}
	rec := *last
	return &rec
}

// Pending is a punch whose type is fixed and which waits for a photo and a location.
type Pending struct {
	Employee  model.Employee
	Type      model.PunchType
	StartedAt time.Time

	machine *Machine
	mutex   sync.Mutex
	done    bool
}

// Begin reads the employee's state and prepares the opposite punch.
func (m *Machine) Begin(ctx context.Context, employee model.Employee) (*Pending, error) {
	status, err := m.Status(ctx, employee.ID)
	if err != nil {
		return nil, err
	}
	return &Pending{
		Employee:  employee,
		Type:      status.NextPunchType,
		StartedAt: m.opts.Now(),
		machine:   m,
	}, nil
}

// Complete validates the photo, obtains a location and appends the record. A non-nil
// fix is used as is; otherwise the machine's provider is asked within the timeout.
// Nothing is stored when any step fails, and the punch can then be completed again.
func (p *Pending) Complete(ctx context.Context, photo *camera.Photo, fix *geo.Fix) (*model.AttendanceRecord, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.done {
		return nil, ErrAlreadyCompleted
	}

	m := p.machine
	if err := camera.Validate(photo); err != nil {
		return nil, err
	}

	provider := m.locations
	if fix != nil {
		provider = geo.Static(*fix)
	}
	if provider == nil {
		return nil, fmt.Errorf("no location source: %w", core.ErrPermissionDenied)
	}
	located, err := geo.Request(ctx, provider, m.opts.LocationTimeout)
	if err != nil {
		return nil, err
	}
	if site := m.opts.Site; site != nil && !site.Contains(*located) {
		return nil, fmt.Errorf("%w: %s is %.2f km from the site", core.ErrPermissionDenied, located, site.DistanceTo(*located))
	}

	id := m.opts.NewID()
	record := model.AttendanceRecord{
		ID:           id,
		EmployeeID:   p.Employee.ID,
		EmployeeName: p.Employee.Name,
		PunchType:    p.Type,
		Timestamp:    m.opts.Now().UTC(),
		Location:     located.Location(),
		PhotoURI:     m.archive(ctx, p.Employee.ID+"/"+id, photo),
	}
	if err := m.store.AppendRecord(ctx, record); err != nil {
		return nil, err
	}
	p.done = true

	m.opts.Logger.Info("punch recorded", "employeeId", record.EmployeeID, "punchType", record.PunchType, "recordId", record.ID)
	msg := fmt.Sprintf("%s punched %s at %s (%s)", record.EmployeeName, record.PunchType,
		record.Timestamp.In(m.store.Location()).Format(time.Kitchen), located)
	if err := m.opts.Notifier.Info(msg); err != nil {
		m.opts.Logger.Warn("failed to send punch notice", "error", err)
	}
	return &record, nil
}

// archive stores a copy of the photo and returns the URI to keep on the record.
// Failures keep the captured URI.
func (m *Machine) archive(ctx context.Context, name string, photo *camera.Photo) string {
	if m.opts.Archive == nil || len(photo.Data) == 0 {
		return photo.URI
	}
	uri, err := m.opts.Archive.Save(ctx, name, photo)
	if err != nil {
		m.opts.Logger.Warn("failed to archive photo", "name", name, "error", err)
		return photo.URI
	}
	return uri
}

// Punch begins and completes a punch in one call.
func (m *Machine) Punch(ctx context.Context, employee model.Employee, photo *camera.Photo, fix *geo.Fix) (*model.AttendanceRecord, error) {
	pending, err := m.Begin(ctx, employee)
	if err != nil {
		return nil, err
	}
	return pending.Complete(ctx, photo, fix)
}

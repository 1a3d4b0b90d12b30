package punch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axiapac.com/punchclock/camera"
	"axiapac.com/punchclock/core"
	"axiapac.com/punchclock/geo"
	"axiapac.com/punchclock/kv"
	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/store"
)

var ramesh = model.Employee{ID: "1", PhoneNumber: "9876543210", Name: "Ramesh", Pin: "1234"}

var office = geo.Fix{Latitude: 12.9716, Longitude: 77.5946, Address: "MG Road"}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Info(message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func (n *recordingNotifier) Error(message string) error { return nil }

type failingArchive struct{}

func (failingArchive) Save(context.Context, string, *camera.Photo) (string, error) {
	return "", errors.New("bucket unavailable")
}

func goodPhoto() *camera.Photo {
	return &camera.Photo{URI: "file:///photos/selfie.jpg", Width: 1280, Height: 960, Data: []byte{0xff, 0xd8}}
}

func newMachine(t *testing.T, opts Options) (*Machine, *store.RecordStore) {
	t.Helper()
	rs := store.New(kv.NewMemoryStore(), time.UTC)
	c := &clock{t: time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)}
	if opts.Now == nil {
		opts.Now = c.now
	}
	ids := 0
	opts.NewID = func() string {
		ids++
		return fmt.Sprintf("rec-%d", ids)
	}
	return New(rs, geo.Static(office), opts), rs
}

func TestNoRecordsMeansPunchedOut(t *testing.T) {
	m, _ := newMachine(t, Options{})

	status, err := m.Status(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, model.PunchedOut, status.State)
	assert.Equal(t, model.PunchIn, status.NextPunchType)
	assert.Nil(t, status.LastPunch)
	assert.Empty(t, status.TodayRecords)
}

func TestPunchesAlternateStartingWithIn(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	m, rs := newMachine(t, Options{Notifier: notifier})

	for i := 0; i < 5; i++ {
		_, err := m.Punch(ctx, ramesh, goodPhoto(), nil)
		require.NoError(t, err)
	}

	records, err := rs.Records(ctx, store.Query{})
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, r := range records {
		want := model.PunchIn
		if i%2 == 1 {
			want = model.PunchOut
		}
		assert.Equal(t, want, r.PunchType, "record %d", i)
		assert.Equal(t, "Ramesh", r.EmployeeName)
		assert.Equal(t, "MG Road", r.Location.Address)
		assert.False(t, r.IsSynced)
	}

	status, err := m.Status(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, model.PunchedIn, status.State)
	assert.Equal(t, model.PunchOut, status.NextPunchType)
	assert.Equal(t, "rec-5", status.LastPunch.ID)
	assert.Len(t, notifier.messages, 5)
	assert.Contains(t, notifier.messages[0], "Ramesh punched IN")
}

func TestOnlyOppositeTypeIsProposed(t *testing.T) {
	ctx := context.Background()
	m, _ := newMachine(t, Options{})

	for i := 0; i < 4; i++ {
		status, err := m.Status(ctx, "1")
		require.NoError(t, err)

		pending, err := m.Begin(ctx, ramesh)
		require.NoError(t, err)
		assert.Equal(t, status.NextPunchType, pending.Type)
		if status.State == model.PunchedIn {
			assert.Equal(t, model.PunchOut, pending.Type)
		} else {
			assert.Equal(t, model.PunchIn, pending.Type)
		}

		_, err = pending.Complete(ctx, goodPhoto(), nil)
		require.NoError(t, err)
	}
}

func TestStateResetsOnANewDay(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2024, 3, 9, 17, 0, 0, 0, time.UTC)}
	m, _ := newMachine(t, Options{Now: c.now})

	_, err := m.Punch(ctx, ramesh, goodPhoto(), nil)
	require.NoError(t, err)

	c.t = c.t.Add(24 * time.Hour)
	status, err := m.Status(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, model.PunchedOut, status.State)
}

func TestLocationTimeoutStoresNothing(t *testing.T) {
	ctx := context.Background()
	rs := store.New(kv.NewMemoryStore(), time.UTC)
	slow := geo.ProviderFunc(func(ctx context.Context) (*geo.Fix, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	m := New(rs, slow, Options{LocationTimeout: 20 * time.Millisecond})

	pending, err := m.Begin(ctx, ramesh)
	require.NoError(t, err)
	_, err = pending.Complete(ctx, goodPhoto(), nil)
	assert.ErrorIs(t, err, core.ErrTimeout)

	records, err := rs.Records(ctx, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, records)

	// the same punch can be retried with a fix from the client
	record, err := pending.Complete(ctx, goodPhoto(), &office)
	require.NoError(t, err)
	assert.Equal(t, model.PunchIn, record.PunchType)
}

func TestBadPhotoStoresNothing(t *testing.T) {
	ctx := context.Background()
	m, rs := newMachine(t, Options{})

	_, err := m.Punch(ctx, ramesh, &camera.Photo{Width: 320, Height: 240}, nil)
	assert.ErrorIs(t, err, core.ErrCaptureFailure)
	assert.Contains(t, err.Error(), "Photo resolution too low")

	_, err = m.Punch(ctx, ramesh, nil, nil)
	assert.ErrorIs(t, err, core.ErrCaptureFailure)

	records, err := rs.Records(ctx, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCompleteOnlyOnce(t *testing.T) {
	ctx := context.Background()
	m, _ := newMachine(t, Options{})

	pending, err := m.Begin(ctx, ramesh)
	require.NoError(t, err)
	_, err = pending.Complete(ctx, goodPhoto(), nil)
	require.NoError(t, err)
	_, err = pending.Complete(ctx, goodPhoto(), nil)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestArchiveFailureKeepsCaptureURI(t *testing.T) {
	ctx := context.Background()
	m, _ := newMachine(t, Options{Archive: failingArchive{}})

	record, err := m.Punch(ctx, ramesh, goodPhoto(), nil)
	require.NoError(t, err)
	assert.Equal(t, "file:///photos/selfie.jpg", record.PhotoURI)
}

type memoryArchive struct {
	names []string
}

func (a *memoryArchive) Save(_ context.Context, name string, _ *camera.Photo) (string, error) {
	a.names = append(a.names, name)
	return "s3://punch-photos/" + name + ".jpg", nil
}

func TestArchivedPhotoURIIsRecorded(t *testing.T) {
	ctx := context.Background()
	archive := &memoryArchive{}
	m, _ := newMachine(t, Options{Archive: archive})

	record, err := m.Punch(ctx, ramesh, goodPhoto(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1/rec-1"}, archive.names)
	assert.Equal(t, "s3://punch-photos/1/rec-1.jpg", record.PhotoURI)
}

func TestPunchOutsideSiteIsRejected(t *testing.T) {
	ctx := context.Background()
	m, rs := newMachine(t, Options{Site: &geo.Site{Latitude: 13.0827, Longitude: 80.2707}})

	_, err := m.Punch(ctx, ramesh, goodPhoto(), nil)
	assert.ErrorIs(t, err, core.ErrPermissionDenied)

	records, err := rs.Records(ctx, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, records)

	nearby := geo.Fix{Latitude: 13.0830, Longitude: 80.2710}
	_, err = m.Punch(ctx, ramesh, goodPhoto(), &nearby)
	assert.NoError(t, err)
}

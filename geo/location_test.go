package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axiapac.com/punchclock/core"
)

func TestRequestReturnsFix(t *testing.T) {
	fix, err := Request(context.Background(), Static(Fix{Latitude: 12.9716, Longitude: 77.5946}), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 12.9716, fix.Latitude)
	assert.False(t, fix.Timestamp.IsZero())
}

func TestRequestTimesOut(t *testing.T) {
	cancelled := make(chan struct{})
	slow := ProviderFunc(func(ctx context.Context) (*Fix, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})

	_, err := Request(context.Background(), slow, 20*time.Millisecond)
	assert.ErrorIs(t, err, core.ErrTimeout)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("provider context was not cancelled")
	}
}

func TestRequestPermissionDenied(t *testing.T) {
	denied := ProviderFunc(func(context.Context) (*Fix, error) {
		return nil, core.ErrPermissionDenied
	})
	_, err := Request(context.Background(), denied, time.Second)
	assert.ErrorIs(t, err, core.ErrPermissionDenied)
	assert.NotErrorIs(t, err, core.ErrTimeout)
}

func TestRequestCancelledByCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	block := ProviderFunc(func(ctx context.Context) (*Fix, error) {
		<-ctx.Done()
		return nil, errors.New("gone")
	})
	_, err := Request(ctx, block, time.Second)
	assert.Error(t, err)
}

func TestFixString(t *testing.T) {
	assert.Equal(t, "12.971600, 77.594600", Fix{Latitude: 12.9716, Longitude: 77.5946}.String())
	assert.Equal(t, "MG Road", Fix{Latitude: 1, Longitude: 2, Address: "MG Road"}.String())
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"same point", 12.9716, 77.5946, 12.9716, 77.5946, 0},
		{"bengaluru to chennai", 12.9716, 77.5946, 13.0827, 80.2707, 290.2},
		{"one degree of longitude at equator", 0, 0, 0, 1, 111.19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2), 1.0)
		})
	}
}

func TestWithinRadius(t *testing.T) {
	office := Fix{Latitude: 12.9716, Longitude: 77.5946}
	assert.True(t, WithinRadius(office, 12.9740, 77.5946, 0))
	assert.False(t, WithinRadius(office, 12.9900, 77.5946, 0))
	assert.True(t, WithinRadius(office, 12.9900, 77.5946, 5))
}

func TestSiteContains(t *testing.T) {
	site := Site{Latitude: 12.9716, Longitude: 77.5946}
	assert.True(t, site.Contains(Fix{Latitude: 12.9740, Longitude: 77.5946}))
	assert.False(t, site.Contains(Fix{Latitude: 12.9900, Longitude: 77.5946}))
	assert.InDelta(t, 2.05, site.DistanceTo(Fix{Latitude: 12.9900, Longitude: 77.5946}), 0.05)
}

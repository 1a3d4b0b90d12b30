// Package geo obtains and compares device locations.
package geo

import (
	"context"
	"fmt"
	"time"

	"axiapac.com/punchclock/core"
	"axiapac.com/punchclock/model"
)

const DefaultTimeout = 5 * time.Second

type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// String returns the address when known, otherwise the coordinates.
func (f Fix) String() string {
	if f.Address != "" {
		return f.Address
	}
	return fmt.Sprintf("%.6f, %.6f", f.Latitude, f.Longitude)
}

func (f Fix) Location() model.Location {
	return model.Location{Latitude: f.Latitude, Longitude: f.Longitude, Address: f.Address}
}

// Provider reports where the device is. Implementations wrap core.ErrPermissionDenied
// when location access is refused.
type Provider interface {
	CurrentLocation(ctx context.Context) (*Fix, error)
}

type ProviderFunc func(ctx context.Context) (*Fix, error)

func (f ProviderFunc) CurrentLocation(ctx context.Context) (*Fix, error) {
	return f(ctx)
}

type static struct {
	fix Fix
}

// Static always reports fix. Used when the client sends its own coordinates.
func Static(fix Fix) Provider {
	return static{fix: fix}
}

func (s static) CurrentLocation(ctx context.Context) (*Fix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fix := s.fix
	if fix.Timestamp.IsZero() {
		fix.Timestamp = time.Now()
	}
	return &fix, nil
}

type result struct {
	fix *Fix
	err error
}

// Request asks p for the current location and gives up after timeout with core.ErrTimeout.
// The provider's context is cancelled once Request returns.
func Request(ctx context.Context, p Provider, timeout time.Duration) (*Fix, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		fix, err := p.CurrentLocation(ctx)
		done <- result{fix: fix, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to get location: %w", r.err)
		}
		if r.fix == nil {
			return nil, fmt.Errorf("failed to get location: %w", core.ErrTimeout)
		}
		return r.fix, nil
	case <-timer.C:
		return nil, fmt.Errorf("location not available after %s: %w", timeout, core.ErrTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("location request cancelled: %w", ctx.Err())
	}
}

// Package camera describes captured photos and checks they are good enough to attach to a punch.
package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	_ "golang.org/x/image/webp"

	"axiapac.com/punchclock/core"
)

const (
	MinWidth     = 640
	MinHeight    = 480
	MaxSizeBytes = 5 * 1024 * 1024
)

type Photo struct {
	URI       string    `json:"uri"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Format    string    `json:"format,omitempty"`
	Data      []byte    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Provider captures a photo from whatever camera the deployment has.
type Provider interface {
	Capture(ctx context.Context) (*Photo, error)
}

// Issues lists every quality problem of p. An empty list means the photo is usable.
func Issues(p *Photo) []string {
	if p == nil {
		return []string{"No photo captured"}
	}
	issues := []string{}
	if p.Width < MinWidth || p.Height < MinHeight {
		issues = append(issues, "Photo resolution too low")
	}
	if len(p.Data) > MaxSizeBytes {
		issues = append(issues, "Photo file size too large")
	}
	return issues
}

// Validate returns a core.ErrCaptureFailure naming the issues, or nil.
func Validate(p *Photo) error {
	if issues := Issues(p); len(issues) > 0 {
		return core.CaptureError(issues...)
	}
	return nil
}

// FromUpload builds a photo from uploaded bytes, reading the dimensions from the
// JPEG, PNG or WebP header.
func FromUpload(name string, data []byte) (*Photo, error) {
	if len(data) == 0 {
		return nil, core.CaptureError()
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable image %s: %v", core.ErrCaptureFailure, name, err)
	}
	return &Photo{
		URI:       name,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		Data:      data,
		Timestamp: time.Now(),
	}, nil
}

// Extension returns the file extension matching the decoded format.
func (p *Photo) Extension() string {
	switch p.Format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "webp":
		return ".webp"
	}
	return ""
}

func (p *Photo) ContentType() string {
	switch p.Format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

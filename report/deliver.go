package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"axiapac.com/punchclock/infrastructure/email"
	"axiapac.com/punchclock/infrastructure/filesystem"
)

// Artifact is a rendered export.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	DateLabel   string
	Stats       Stats
}

// Export renders the report as an artifact.
func (r *Report) Export(f Format) (*Artifact, error) {
	data, err := r.Render(f)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", f, err)
	}
	return &Artifact{
		Name:        r.FileName(f),
		ContentType: f.ContentType(),
		Data:        data,
		DateLabel:   r.Criteria.DateLabel(),
		Stats:       r.Stats,
	}, nil
}

// Sink delivers an artifact and returns where it went.
type Sink interface {
	Deliver(ctx context.Context, a *Artifact) (string, error)
}

// Deliver hands a to every sink. Every sink is tried; the failures are joined.
func Deliver(ctx context.Context, a *Artifact, sinks ...Sink) ([]string, error) {
	var locations []string
	var errs []error
	for _, s := range sinks {
		loc, err := s.Deliver(ctx, a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		locations = append(locations, loc)
	}
	return locations, errors.Join(errs...)
}

type DirSink struct {
	Dir string
}

func (s DirSink) Deliver(ctx context.Context, a *Artifact) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	dst := filepath.Join(s.Dir, a.Name)
	if err := os.WriteFile(dst, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return dst, nil
}

type S3Sink struct {
	Bucket *filesystem.Bucket
	Prefix string
}

func (s S3Sink) Deliver(ctx context.Context, a *Artifact) (string, error) {
	key := path.Join(s.Prefix, a.Name)
	if err := s.Bucket.Write(ctx, key, a.Data, a.ContentType); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", a.Name, err)
	}
	return s.Bucket.URI(key), nil
}

type EmailSink struct {
	Sender *email.Sender
	From   string
	To     []string
}

func (s EmailSink) Deliver(ctx context.Context, a *Artifact) (string, error) {
	text := fmt.Sprintf("Attendance for %s\n\nEmployees: %d\nRecords: %d\nPunch ins: %d\nUnsynced: %d\n",
		a.DateLabel, a.Stats.Employees, a.Stats.Records, a.Stats.PunchIns, a.Stats.Unsynced)

	id, err := s.Sender.Send(ctx, &email.Message{
		From:    s.From,
		To:      s.To,
		Subject: "Attendance report " + a.DateLabel,
		Text:    text,
		Attachments: []email.Attachment{
			{Filename: a.Name, ContentType: a.ContentType, Content: a.Data},
		},
	})
	if err != nil {
		return "", err
	}
	return "ses:" + id, nil
}

package camera

import (
	"context"
	"fmt"
	"path"

	"axiapac.com/punchclock/infrastructure/filesystem"
)

// Archive keeps a copy of a photo and returns where it was stored.
type Archive interface {
	Save(ctx context.Context, name string, p *Photo) (string, error)
}

type S3Archive struct {
	bucket *filesystem.Bucket
	prefix string
}

func NewS3Archive(bucket *filesystem.Bucket, prefix string) *S3Archive {
	return &S3Archive{bucket: bucket, prefix: prefix}
}

// Save uploads the photo bytes as <prefix>/<name><ext> and returns the s3:// URI.
func (a *S3Archive) Save(ctx context.Context, name string, p *Photo) (string, error) {
	if p == nil || len(p.Data) == 0 {
		return "", fmt.Errorf("photo %s has no data to archive", name)
	}
	key := path.Join(a.prefix, name+p.Extension())
	if err := a.bucket.Write(ctx, key, p.Data, p.ContentType()); err != nil {
		return "", fmt.Errorf("failed to archive photo %s: %w", name, err)
	}
	return a.bucket.URI(key), nil
}

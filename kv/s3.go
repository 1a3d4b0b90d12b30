package kv

import (
	"context"
	"path"

	"axiapac.com/punchclock/infrastructure/filesystem"
)

// S3Store keeps one object per key under prefix.
type S3Store struct {
	bucket *filesystem.Bucket
	prefix string
}

func NewS3Store(bucket *filesystem.Bucket, prefix string) *S3Store {
	return &S3Store{bucket: bucket, prefix: prefix}
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, key)
}

func (s *S3Store) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return path.Clean(s.prefix) + "/"
}

func (s *S3Store) Get(ctx context.Context, key string) (string, bool, error) {
	b, ok, err := s.bucket.Read(ctx, s.objectKey(key))
	if err != nil || !ok {
		return "", false, err
	}
	return string(b), true, nil
}

func (s *S3Store) Set(ctx context.Context, key, value string) error {
	return s.bucket.Write(ctx, s.objectKey(key), []byte(value), "application/json")
}

func (s *S3Store) Remove(ctx context.Context, key string) error {
	return s.bucket.Delete(ctx, s.objectKey(key))
}

func (s *S3Store) Clear(ctx context.Context) error {
	keys, err := s.bucket.ListFiles(ctx, s.listPrefix())
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.bucket.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

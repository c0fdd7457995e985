package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/exercise-tracker/apiserver/config"
)

// ErrObjectNotFound is returned by Get and Delete when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored payload together with the metadata written beside it.
// Metadata keys are lower-case on every backend.
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStorage is the bucket-scoped surface the export commands need.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage holds the configured backend and exposes export operations on it.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg config.ObjectStorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case config.ObjectStorageMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.ObjectStorageGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	case config.ObjectStorageNone, "":
		return nil, errors.New("object storage is not configured; set OBJECT_STORAGE_BACKEND")
	default:
		return nil, fmt.Errorf("unsupported object storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Backend, err)
	}
	return NewStorage(backend), nil
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// Close releases the backend if it holds resources.
func (s *Storage) Close() error {
	if closer, ok := s.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func lowerKeys(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

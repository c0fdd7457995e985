package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/exercise-tracker/apiserver/config"
	"google.golang.org/api/option"
)

// GCSClient stores exports in a Google Cloud Storage bucket.
type GCSClient struct {
	client    *storage.Client
	bucket    *storage.BucketHandle
	name      string
	projectID string
}

// NewGCSClient constructs a GCS client from config. Credentials fall back to
// the application default when no file is configured.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSClient{
		client:    client,
		bucket:    client.Bucket(cfg.Bucket),
		name:      cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.bucket.Attrs(ctx)
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return fmt.Errorf("bucket %s does not exist and no gcs project id is set to create it", g.name)
	}
	return g.bucket.Create(ctx, g.projectID, nil)
}

// Put uploads obj in one request. Exports are small, so resumable chunking is off.
func (g *GCSClient) Put(ctx context.Context, obj Object) error {
	w := g.bucket.Object(obj.Key).NewWriter(ctx)
	w.ChunkSize = 0
	w.ContentType = obj.ContentType
	w.Metadata = obj.Metadata
	if _, err := w.Write(obj.Body); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCSClient) Get(ctx context.Context, key string) (Object, error) {
	handle := g.bucket.Object(key)
	attrs, err := handle.Attrs(ctx)
	if err != nil {
		return Object{}, g.mapErr(key, err)
	}

	// Pin the generation so the body matches the attributes just read.
	reader, err := handle.Generation(attrs.Generation).NewReader(ctx)
	if err != nil {
		return Object{}, g.mapErr(key, err)
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return Object{}, fmt.Errorf("read %s: %w", key, err)
	}
	return Object{
		Key:         key,
		Body:        body,
		ContentType: attrs.ContentType,
		Metadata:    lowerKeys(attrs.Metadata),
	}, nil
}

func (g *GCSClient) Delete(ctx context.Context, key string) error {
	return g.mapErr(key, g.bucket.Object(key).Delete(ctx))
}

func (g *GCSClient) Bucket() string {
	return g.name
}

// Close releases the underlying GCS client.
func (g *GCSClient) Close() error {
	return g.client.Close()
}

func (g *GCSClient) mapErr(key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, g.name, key)
	}
	return err
}

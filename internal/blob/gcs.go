package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket          string
	CredentialsPath string
	Prefix          string
}

// GCS stores payloads in a Google Cloud Storage bucket. Without a
// credentials file it falls back to application default credentials.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("gcs bucket required")
	}
	var opts []option.ClientOption
	if path := strings.TrimSpace(cfg.CredentialsPath); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: cfg.Prefix}, nil
}

func (s *GCS) Driver() Driver { return DriverGCS }

func (s *GCS) object(key string) (*storage.ObjectHandle, error) {
	clean, err := ValidateKey(key)
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(s.bucket).Object(prefixed(s.prefix, clean)), nil
}

func (s *GCS) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	obj, err := s.object(key)
	if err != nil {
		return Info{}, err
	}
	w := obj.NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = cloneMetadata(opts.Metadata)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return Info{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return Info{}, fmt.Errorf("close %s: %w", key, err)
	}
	info := Info{Key: key, ContentType: opts.ContentType, Metadata: cloneMetadata(opts.Metadata)}
	if attrs := w.Attrs(); attrs != nil {
		info.Size = attrs.Size
		info.LastModified = attrs.Updated
	}
	return info, nil
}

func (s *GCS) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	obj, err := s.object(key)
	if err != nil {
		return Info{}, nil, err
	}
	reader, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return Info{}, nil, ErrNotFound
	}
	if err != nil {
		return Info{}, nil, fmt.Errorf("read %s: %w", key, err)
	}
	info := Info{
		Key:          key,
		Size:         reader.Attrs.Size,
		ContentType:  reader.Attrs.ContentType,
		LastModified: reader.Attrs.LastModified,
	}
	return info, reader, nil
}

func (s *GCS) Delete(ctx context.Context, key string) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *GCS) Close() error {
	return s.client.Close()
}

// blob.go - Byte storage behind the lifecycle manager.
//
// Two implementations: a MinIO bucket (default) and a flat local directory.
// Both address blobs by the generated storage name only.
package server

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobStore is the byte-addressable side of an asset. The metadata row in
// Postgres is the other side; lifecycle.go keeps the two consistent.
type BlobStore interface {
	// Put writes the full stream under name and returns the byte count.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error)
	// Get opens the blob for reading. Absent blobs yield an error.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	// Remove deletes the blob. Removing an absent blob is not an error.
	Remove(ctx context.Context, name string) error
}

// --- MinIO ---

type minioStore struct {
	client *minio.Client
	bucket string
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// No scheme provided, treat as host:port (insecure by default for local MinIO).
	return raw, false, nil
}

// NewMinioStore connects to MinIO and verifies the bucket exists.
func NewMinioStore(rawEndpoint, accessKey, secretKey, bucket string) (BlobStore, error) {
	if rawEndpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, fmt.Errorf("minio configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(rawEndpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	// Sanity check: bucket must exist.
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("minio bucket does not exist: %s", bucket)
	}

	return &minioStore{client: client, bucket: bucket}, nil
}

func (s *minioStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error) {
	info, err := s.client.PutObject(ctx, s.bucket, name, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

func (s *minioStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; force an early error for missing objects.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s *minioStore) Remove(ctx context.Context, name string) error {
	return s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
}

// --- Local filesystem ---

// fsStore keeps every blob as one file in a flat directory.
type fsStore struct {
	dir string
}

// NewFSStore creates the upload directory if needed and returns a store
// rooted there.
func NewFSStore(dir string) (BlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &fsStore{dir: dir}, nil
}

// path confines name to the store directory. Storage names are generated by
// the lifecycle manager and already sanitized; this is the backstop.
func (s *fsStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid blob name: %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *fsStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (int64, error) {
	p, err := s.path(name)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return 0, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return 0, err
	}
	return n, nil
}

func (s *fsStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *fsStore) Remove(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

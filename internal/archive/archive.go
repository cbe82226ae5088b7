// Package archive keeps raw partner response bodies in S3-compatible
// storage so a window can be replayed or audited after normalization.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/config"
)

const contentType = "application/json"

// ObjectStore is the subset of the MinIO client the archive needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive writes partner payloads to one bucket.
type Archive struct {
	store  ObjectStore
	bucket string
	now    func() time.Time
}

// New connects to the configured endpoint.
func New(cfg config.ArchiveConfig) (*Archive, error) {
	if !cfg.IsArchiveEnabled() {
		return nil, fmt.Errorf("archive is not configured")
	}

	client, err := minio.New(cfg.GetArchiveEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetArchiveAccessKey(), cfg.GetArchiveSecretKey(), ""),
		Secure: cfg.GetArchiveUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}
	return NewWithStore(client, cfg.GetArchiveBucket()), nil
}

// NewWithStore wraps an existing object store.
func NewWithStore(store ObjectStore, bucket string) *Archive {
	return &Archive{store: store, bucket: bucket, now: time.Now}
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (a *Archive) EnsureBucketExists(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	return nil
}

// Store uploads one partner body for a window and returns its object key.
func (a *Archive) Store(ctx context.Context, partnerID string, w proposals.Window, body []byte) (string, error) {
	key := ObjectKey(partnerID, w, a.now(), uuid.New())
	_, err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// ObjectKey lays payloads out as <partner>/<start>_<end>/<unixnano>-<id>.json.
func ObjectKey(partnerID string, w proposals.Window, at time.Time, id uuid.UUID) string {
	folder := fmt.Sprintf("%s_%s", w.StartDate(), w.EndDate())
	return path.Join(partnerID, folder, fmt.Sprintf("%d-%s.json", at.UnixNano(), id))
}

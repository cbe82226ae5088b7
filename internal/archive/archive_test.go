package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_sync/internal/proposals"
)

type storeStub struct {
	exists  bool
	made    []string
	objects map[string]string
	putErr  error
}

func (s *storeStub) BucketExists(context.Context, string) (bool, error) { return s.exists, nil }

func (s *storeStub) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	s.made = append(s.made, bucket)
	return nil
}

func (s *storeStub) PutObject(_ context.Context, _ string, key string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if s.putErr != nil {
		return minio.UploadInfo{}, s.putErr
	}
	b, _ := io.ReadAll(r)
	if s.objects == nil {
		s.objects = map[string]string{}
	}
	s.objects[key] = opts.ContentType + "|" + string(b)
	return minio.UploadInfo{Key: key}, nil
}

func testWindow(t *testing.T) proposals.Window {
	t.Helper()
	w, err := proposals.ParseWindow("2024-05-16", "2024-05-31")
	require.NoError(t, err)
	return w
}

func TestObjectKeyLayout(t *testing.T) {
	id := uuid.MustParse("3f2c1b5e-8d7a-4c2b-9a1e-0f6d5c4b3a21")
	at := time.Unix(0, 1715000000123456789)

	key := ObjectKey("acme", testWindow(t), at, id)
	assert.Equal(t, "acme/2024-05-16_2024-05-31/1715000000123456789-3f2c1b5e-8d7a-4c2b-9a1e-0f6d5c4b3a21.json", key)
}

func TestEnsureBucketCreatesMissingBucket(t *testing.T) {
	store := &storeStub{}
	require.NoError(t, NewWithStore(store, "payloads").EnsureBucketExists(context.Background()))
	assert.Equal(t, []string{"payloads"}, store.made)

	store = &storeStub{exists: true}
	require.NoError(t, NewWithStore(store, "payloads").EnsureBucketExists(context.Background()))
	assert.Empty(t, store.made)
}

func TestStoreUploadsBody(t *testing.T) {
	store := &storeStub{}
	a := NewWithStore(store, "payloads")

	key, err := a.Store(context.Background(), "acme", testWindow(t), []byte(`[{"id":1}]`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "acme/2024-05-16_2024-05-31/"))
	assert.Equal(t, `application/json|[{"id":1}]`, store.objects[key])
}

func TestStoreReportsUploadFailure(t *testing.T) {
	a := NewWithStore(&storeStub{putErr: errors.New("denied")}, "payloads")
	_, err := a.Store(context.Background(), "acme", testWindow(t), []byte(`[]`))
	require.Error(t, err)
}

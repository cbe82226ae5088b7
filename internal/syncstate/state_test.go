package syncstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal_sync/platform/apperr"
	"proposal_sync/platform/logger"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestClamp(t *testing.T) {
	base := date(t, "2024-02-20")
	today := date(t, "2024-05-20")

	tests := []struct {
		name   string
		cursor string
		ok     bool
		want   string
	}{
		{"absent", "", false, "2024-02-20"},
		{"inside", "2024-04-01", true, "2024-04-01"},
		{"equal base", "2024-02-20", true, "2024-02-20"},
		{"equal today", "2024-05-20", true, "2024-05-20"},
		{"before base", "2023-12-31", true, "2024-02-20"},
		{"after today", "2024-05-21", true, "2024-02-20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c time.Time
			if tt.cursor != "" {
				c = date(t, tt.cursor)
			}
			got := Clamp(c, tt.ok, base, today)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestFileStoreRoundTripAndReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)
	ctx := context.Background()

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, date(t, "2024-04-16")))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cursor":"2024-04-16"}`, string(raw))

	got, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(t, "2024-04-16"), got)

	require.NoError(t, s.Reset(ctx))
	require.NoError(t, s.Reset(ctx))
	_, ok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptFileResumesFromBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cursor":"20/04/2024"}`), 0o600))
	s := NewFileStore(path)

	_, _, err := s.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindState))

	base := date(t, "2024-02-20")
	got := Resume(context.Background(), s, base, date(t, "2024-05-20"), logger.Discard())
	assert.Equal(t, base, got)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "rt")
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, date(t, "2024-05-01")))
	stored, err := mr.Get("rt")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", stored)

	got := Resume(ctx, s, date(t, "2024-02-20"), date(t, "2024-05-20"), logger.Discard())
	assert.Equal(t, date(t, "2024-05-01"), got)

	require.NoError(t, s.Reset(ctx))
	assert.False(t, mr.Exists("rt"))

	mr.Set("rt", "garbage")
	_, _, err = s.Load(ctx)
	assert.True(t, apperr.Is(err, apperr.KindState))
}

type rowStub struct {
	scanFn func(dest ...any) error
}

func (r rowStub) Scan(dest ...any) error { return r.scanFn(dest...) }

type querierStub struct {
	row   rowStub
	execs []string
	args  [][]any
}

func (q *querierStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, sql)
	q.args = append(q.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (q *querierStub) QueryRow(context.Context, string, ...any) pgx.Row { return q.row }

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	missing := &querierStub{row: rowStub{scanFn: func(...any) error { return pgx.ErrNoRows }}}
	_, ok, err := NewPostgresStore(missing, "rt").Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := date(t, "2024-03-16")
	present := &querierStub{row: rowStub{scanFn: func(dest ...any) error {
		p := want
		*dest[0].(**time.Time) = &p
		return nil
	}}}
	got, ok, err := NewPostgresStore(present, "rt").Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, NewPostgresStore(present, "rt").Save(ctx, want))
	require.Len(t, present.execs, 1)
	assert.Contains(t, present.execs[0], "ON CONFLICT (key)")
	assert.Equal(t, []any{"rt", want}, present.args[0])
}

type stateConfigStub struct {
	backend, file, key, redisURL string
}

func (c stateConfigStub) GetStateBackend() string { return c.backend }
func (c stateConfigStub) GetStateFile() string    { return c.file }
func (c stateConfigStub) GetStateKey() string     { return c.key }
func (c stateConfigStub) GetRedisURL() string     { return c.redisURL }

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open(stateConfigStub{backend: "file", file: filepath.Join(t.TempDir(), "s.json")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(stateConfigStub{backend: "postgres"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	mr := miniredis.RunT(t)
	s, err = Open(stateConfigStub{backend: "redis", key: "rt", redisURL: "redis://" + mr.Addr()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)

	_, err = Open(stateConfigStub{backend: "etcd"}, nil)
	assert.Error(t, err)
}

package syncstate

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"proposal_sync/platform/apperr"
)

// Querier is satisfied by *pgxpool.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the cursor in the sync_state table.
type PostgresStore struct {
	db  Querier
	key string
}

// NewPostgresStore creates a store for one state key.
func NewPostgresStore(db Querier, key string) *PostgresStore {
	return &PostgresStore{db: db, key: key}
}

// Load reads the cursor.
func (s *PostgresStore) Load(ctx context.Context) (time.Time, bool, error) {
	var cursor *time.Time
	err := s.db.QueryRow(ctx, `SELECT cursor_date FROM sync_state WHERE key = $1`, s.key).Scan(&cursor)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, apperr.State("query sync_state", err).WithOp("load")
	}
	if cursor == nil {
		return time.Time{}, false, nil
	}
	return *cursor, true, nil
}

// Save upserts the cursor.
func (s *PostgresStore) Save(ctx context.Context, cursor time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sync_state (key, cursor_date, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET cursor_date = EXCLUDED.cursor_date, updated_at = now()
	`, s.key, cursor)
	if err != nil {
		return apperr.State("upsert sync_state", err).WithOp("save")
	}
	return nil
}

// Reset deletes the cursor row.
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sync_state WHERE key = $1`, s.key); err != nil {
		return apperr.State("delete sync_state", err).WithOp("reset")
	}
	return nil
}

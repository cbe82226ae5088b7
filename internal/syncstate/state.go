// Package syncstate persists the deep sweep cursor: the first date the
// sweep has not covered yet.
package syncstate

import (
	"context"
	"fmt"
	"time"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/apperr"
	"proposal_sync/platform/config"
	"proposal_sync/platform/logger"
)

// Backend names accepted in configuration.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Store reads and writes the cursor. Load reports ok=false when nothing
// was persisted yet.
type Store interface {
	Load(ctx context.Context) (cursor time.Time, ok bool, err error)
	Save(ctx context.Context, cursor time.Time) error
	Reset(ctx context.Context) error
}

// Clamp returns cursor when it lies within [base, today], else base.
func Clamp(cursor time.Time, ok bool, base, today time.Time) time.Time {
	if !ok {
		return base
	}
	c := proposals.DateOf(cursor)
	if c.Before(proposals.DateOf(base)) || c.After(proposals.DateOf(today)) {
		return base
	}
	return c
}

// Resume loads the cursor and clamps it. A store that fails or holds a
// corrupt value resumes from base.
func Resume(ctx context.Context, store Store, base, today time.Time, log *logger.Logger) time.Time {
	cursor, ok, err := store.Load(ctx)
	if err != nil {
		log.Warn("sync state unreadable, starting from lookback base", "error", err, "base", base.Format(proposals.DateLayout))
		return proposals.DateOf(base)
	}
	resumed := Clamp(cursor, ok, base, today)
	if ok && !resumed.Equal(proposals.DateOf(cursor)) {
		log.Info("sync state out of range, starting from lookback base",
			"cursor", cursor.Format(proposals.DateLayout),
			"base", base.Format(proposals.DateLayout),
		)
	}
	return resumed
}

func parseCursor(raw string) (time.Time, error) {
	t, err := time.Parse(proposals.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperr.State("corrupt cursor", err).WithOp("load")
	}
	return t, nil
}

// Open builds the store selected by configuration. pool is used by the
// postgres backend and may be nil for the others.
func Open(cfg config.StateConfig, pool Querier) (Store, error) {
	switch cfg.GetStateBackend() {
	case "", BackendFile:
		return NewFileStore(cfg.GetStateFile()), nil
	case BackendPostgres:
		if pool == nil {
			return nil, apperr.Validation("postgres state backend needs a database pool")
		}
		return NewPostgresStore(pool, cfg.GetStateKey()), nil
	case BackendRedis:
		store, err := NewRedisStoreFromURL(cfg.GetRedisURL(), cfg.GetStateKey())
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown state backend %q", cfg.GetStateBackend()))
	}
}

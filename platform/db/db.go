// Package db provides database connection infrastructure.
// This is part of the platform layer and contains no business logic.
package db

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"proposal_sync/platform/apperr"
	"proposal_sync/platform/config"
	"proposal_sync/platform/logger"
)

const pingTimeout = 5 * time.Second

// NewPool creates a small connection pool for side tables (cursor state,
// migrations). Window merges go through a Session instead.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Dialer opens one connection.
type Dialer func(ctx context.Context) (*pgx.Conn, error)

// Session owns the single long-lived connection used for window merges.
// The staging table is scoped to this connection. A Session is not safe
// for concurrent use; the scheduler loop is its only owner.
type Session struct {
	cfg  config.DatabaseConfig
	log  *logger.Logger
	dial Dialer
	conn *pgx.Conn
}

// NewSession prepares a session; call Connect before use.
func NewSession(cfg config.DatabaseConfig, log *logger.Logger) *Session {
	s := &Session{cfg: cfg, log: log}
	s.dial = s.defaultDial
	return s
}

// NewSessionWithDialer is NewSession with a custom dialer.
func NewSessionWithDialer(cfg config.DatabaseConfig, log *logger.Logger, dial Dialer) *Session {
	return &Session{cfg: cfg, log: log, dial: dial}
}

func (s *Session) defaultDial(ctx context.Context) (*pgx.Conn, error) {
	connCfg, err := pgx.ParseConfig(s.cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}
	if timeout := s.cfg.GetDBTimeout(); timeout > 0 {
		connCfg.RuntimeParams["statement_timeout"] = strconv.FormatInt(timeout.Milliseconds(), 10)
	}
	connCfg.RuntimeParams["application_name"] = "proposal_sync"
	return pgx.ConnectConfig(ctx, connCfg)
}

// Connect opens the connection with bounded retry and backoff.
func (s *Session) Connect(ctx context.Context) error {
	return WithRetry(ctx, s.log, "database connection", s.cfg.GetDBConnectAttempts(), s.cfg.GetDBConnectBaseDelay(), func() error {
		conn, err := s.dial(ctx)
		if err != nil {
			return err
		}
		if err := ping(ctx, conn); err != nil {
			_ = conn.Close(ctx)
			return err
		}
		s.conn = conn
		return nil
	})
}

// IsAlive probes the connection with SELECT 1.
func (s *Session) IsAlive(ctx context.Context) bool {
	if s.conn == nil || s.conn.IsClosed() {
		return false
	}
	return ping(ctx, s.conn) == nil
}

// Reconnect discards the current connection and opens a new one.
func (s *Session) Reconnect(ctx context.Context) error {
	s.discard(ctx)
	s.log.Warn("reconnecting database session")
	return s.Connect(ctx)
}

// Begin starts a transaction on the current connection.
func (s *Session) Begin(ctx context.Context) (pgx.Tx, error) {
	if s.conn == nil || s.conn.IsClosed() {
		return nil, apperr.Transient("no open connection", nil).WithOp("begin")
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, Classify("begin", err)
	}
	return tx, nil
}

// Close releases the connection.
func (s *Session) Close(ctx context.Context) {
	s.discard(ctx)
}

func (s *Session) discard(ctx context.Context) {
	if s.conn == nil {
		return
	}
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pingTimeout)
	defer cancel()
	_ = s.conn.Close(closeCtx)
	s.conn = nil
}

func ping(ctx context.Context, conn *pgx.Conn) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	var one int
	return conn.QueryRow(pingCtx, "SELECT 1").Scan(&one)
}

package db

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"proposal_sync/platform/apperr"
)

// IsTransient reports whether err is a communication link failure: the
// session is unusable but a reconnect is expected to help.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if apperr.Is(err, apperr.KindTransient) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLState(pgErr.Code)
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ETIMEDOUT):
		return true
	}

	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

// transientSQLState covers class 08 (connection exception) and the
// server shutdown codes.
func transientSQLState(code string) bool {
	if strings.HasPrefix(code, "08") {
		return true
	}
	switch code {
	case "57P01", "57P02", "57P03":
		return true
	}
	return false
}

// Classify wraps err as transient or database for the operation op.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	if IsTransient(err) {
		return apperr.Transient("link failure", err).WithOp(op)
	}
	return apperr.Database("statement failed", err).WithOp(op)
}

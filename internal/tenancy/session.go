package tenancy

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/pkg/metrics"
)

// ErrSessionClosed is returned when a released session is used again.
// Sessions are single-use per unit of work.
var ErrSessionClosed = fmt.Errorf("scoped session already released")

// ScopedSession is a data-access handle pinned to exactly one tenant
// namespace. The underlying connection's search_path is set once at
// acquisition and there is no operation that accepts a schema name, so
// nothing issued through the session can reach another tenant's namespace.
//
// Close must run on every exit path; callers defer it immediately after
// ScopeTo.
type ScopedSession struct {
	conn    *sqlx.Conn
	tenant  *model.Tenant
	metrics *metrics.Metrics
	closed  atomic.Bool
}

// Tenant returns the tenant this session is scoped to.
func (s *ScopedSession) Tenant() *model.Tenant {
	return s.tenant
}

func (s *ScopedSession) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.conn.GetContext(ctx, dest, query, args...)
}

func (s *ScopedSession) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.conn.SelectContext(ctx, dest, query, args...)
}

func (s *ScopedSession) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return s.conn.ExecContext(ctx, query, args...)
}

func (s *ScopedSession) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return s.conn.QueryRowxContext(ctx, query, args...)
}

// WithTx executes fn inside one transaction on the scoped connection. The
// assign/discharge critical path runs through here so that the assignment
// row and the status cache are never independently observable.
func (s *ScopedSession) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Close resets the search path and returns the connection to the pool.
// Safe to call more than once; only the first call releases.
func (s *ScopedSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Best effort: a poisoned connection is dropped by the pool anyway.
	s.conn.ExecContext(context.Background(), "SET search_path TO public")
	err := s.conn.Close()
	if s.metrics != nil {
		s.metrics.ScopedSessionsReleased.Inc()
	}
	return err
}

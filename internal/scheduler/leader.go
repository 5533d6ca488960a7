package scheduler

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Lock is a session-scoped leadership lock.
type Lock interface {
	TryLock(ctx context.Context) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Leader tracks whether this process holds the scheduler lock. The lock is
// taken once per session; a dead session is dropped and reopened.
type Leader struct {
	open func(ctx context.Context) (Lock, error)
	lock Lock
	held bool
}

func NewLeader(open func(ctx context.Context) (Lock, error)) *Leader {
	return &Leader{open: open}
}

// Acquire reports whether this process is the leader.
func (l *Leader) Acquire(ctx context.Context) (bool, error) {
	if l.lock == nil {
		lock, err := l.open(ctx)
		if err != nil {
			return false, errors.Wrap(err, "open lock session")
		}
		l.lock = lock
	}
	if l.held {
		if err := l.lock.Ping(ctx); err != nil {
			l.Release()
			return false, errors.Wrap(err, "lock session lost")
		}
		return true, nil
	}
	ok, err := l.lock.TryLock(ctx)
	if err != nil {
		l.Release()
		return false, errors.Wrap(err, "try lock")
	}
	l.held = ok
	return ok, nil
}

// Release closes the session, which frees the lock if held.
func (l *Leader) Release() {
	if l.lock != nil {
		_ = l.lock.Close()
		l.lock = nil
	}
	l.held = false
}

// PGLock is a Postgres advisory lock pinned to one connection.
type PGLock struct {
	conn *sql.Conn
	id   int64
}

// OpenPGLock returns an opener for Leader backed by pg_try_advisory_lock(id).
func OpenPGLock(db *sql.DB, id int64) func(ctx context.Context) (Lock, error) {
	return func(ctx context.Context) (Lock, error) {
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		return &PGLock{conn: conn, id: id}, nil
	}
}

func (p *PGLock) TryLock(ctx context.Context) (bool, error) {
	var ok bool
	err := p.conn.QueryRowContext(ctx, "select pg_try_advisory_lock($1)", p.id).Scan(&ok)
	return ok, err
}

func (p *PGLock) Ping(ctx context.Context) error { return p.conn.PingContext(ctx) }
func (p *PGLock) Close() error                   { return p.conn.Close() }

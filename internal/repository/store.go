package repository

import (
	"context"
	"database/sql"

	"placetime/backend/internal/db"
	apperrors "placetime/backend/internal/errors"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type conn struct {
	q       querier
	dialect db.Dialect
}

func (c conn) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.dialect.Rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.dialect.Rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.q.QueryRowContext(ctx, c.dialect.Rebind(query), args...)
}

// Store bundles every repository over one connection or one transaction.
type Store struct {
	db      *sql.DB
	dialect db.Dialect
	inTx    bool

	Users       *UserRepository
	Places      *PlaceRepository
	Sessions    *SessionRepository
	Goals       *GoalRepository
	Progress    *ProgressRepository
	Completions *CompletionRepository
}

func NewStore(database *sql.DB, dialect db.Dialect) *Store {
	return newStore(conn{q: database, dialect: dialect}, database, false)
}

func newStore(c conn, database *sql.DB, inTx bool) *Store {
	return &Store{
		db:          database,
		dialect:     c.dialect,
		inTx:        inTx,
		Users:       &UserRepository{c: c},
		Places:      &PlaceRepository{c: c},
		Sessions:    &SessionRepository{c: c},
		Goals:       &GoalRepository{c: c},
		Progress:    &ProgressRepository{c: c},
		Completions: &CompletionRepository{c: c},
	}
}

// InTx runs fn against repositories bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise. Calls on a store that is already
// inside a transaction reuse it.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(newStore(conn{q: tx, dialect: s.dialect}, s.db, true)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("commit tx", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

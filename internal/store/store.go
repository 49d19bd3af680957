package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"business-svc/internal/business"
)

//go:embed schema.sql
var schemaSQL string

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound is returned by Update and Delete when no row matches the id.
var ErrNotFound = errors.New("record not found")

const uniqueViolation = "23505"

// Store represents the database connection and operations.
type Store struct {
	db    *sqlx.DB
	tx    *sqlx.Tx
	clock business.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock handed to aggregates restored from rows.
func WithClock(c business.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewStore creates a new Store instance and opens a database connection.
func NewStore(connString string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if pingErr := db.Ping(); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return newStore(db, opts), nil
}

// NewStoreFromDB constructs a Store from an existing *sql.DB. Useful for tests.
func NewStoreFromDB(db *sql.DB, opts ...Option) *Store {
	return newStore(sqlx.NewDb(db, "postgres"), opts)
}

func newStore(db *sqlx.DB, opts []Option) *Store {
	s := &Store{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil && s.tx == nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database connection.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// InitDB creates the business schema and tables.
func (s *Store) InitDB(ctx context.Context) error {
	if _, err := s.execContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute init SQL: %w", err)
	}
	return nil
}

// WithTx runs fn against a Store bound to a new transaction. Rows read
// through the bound Store are locked until commit. fn's error rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	bound := &Store{db: s.db, tx: tx, clock: s.clock}
	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Businesses returns the business entity repository.
func (s *Store) Businesses() *BusinessRepository { return &BusinessRepository{s: s} }

// Members returns the member repository.
func (s *Store) Members() *MemberRepository { return &MemberRepository{s: s} }

// Roles returns the role repository.
func (s *Store) Roles() *RoleRepository { return &RoleRepository{s: s} }

// Invitations returns the invitation repository.
func (s *Store) Invitations() *InvitationRepository { return &InvitationRepository{s: s} }

func (s *Store) aggregateOptions() []business.Option {
	return []business.Option{business.WithClock(s.clock)}
}

// lockClause makes reads inside a transaction take row locks so concurrent
// read-modify-write cycles serialise instead of overwriting each other.
func (s *Store) lockClause() string {
	if s.tx != nil {
		return " FOR UPDATE"
	}
	return ""
}

func (s *Store) getContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if s.tx != nil {
		return s.tx.GetContext(ctx, dest, query, args...)
	}
	return s.db.GetContext(ctx, dest, query, args...)
}

func (s *Store) selectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if s.tx != nil {
		return s.tx.SelectContext(ctx, dest, query, args...)
	}
	return s.db.SelectContext(ctx, dest, query, args...)
}

func (s *Store) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.ExecContext(ctx, query, args...)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) namedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.NamedExecContext(ctx, query, arg)
	}
	return s.db.NamedExecContext(ctx, query, arg)
}

// translate maps driver errors onto store sentinels.
func translate(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("failed to %s: %w (%s)", op, ErrDuplicate, pqErr.Constraint)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func requireAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s %s: %w", op, id, ErrNotFound)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/repository"
)

const uniqueViolation = "23505"

// Querier is the statement surface shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DB is a Querier that can open transactions.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store binds every repository to one Querier.
type Store struct {
	q Querier
}

// NewStore returns a store running statements on q.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

func (s *Store) Occurrences() repository.OccurrenceRepository {
	return &occurrenceRepository{q: s.q}
}

func (s *Store) Timeline() repository.TimelineRepository {
	return &timelineRepository{q: s.q}
}

func (s *Store) Photos() repository.PhotoRepository {
	return &photoRepository{q: s.q}
}

func (s *Store) Supports() repository.SupportRepository {
	return &supportRepository{q: s.q}
}

func (s *Store) Evaluations() repository.EvaluationRepository {
	return &evaluationRepository{q: s.q}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{q: s.q}
}

func (s *Store) Departments() repository.DepartmentRepository {
	return &departmentRepository{q: s.q}
}

func (s *Store) Categories() repository.CategoryRepository {
	return &categoryRepository{q: s.q}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{q: s.q}
}

// Analytics returns the aggregate reader.
func (s *Store) Analytics() repository.AnalyticsRepository {
	return &analyticsRepository{q: s.q}
}

// Transactor opens one pgx transaction per unit of work.
type Transactor struct {
	db     DB
	logger *zap.Logger
}

// NewTransactor wraps a pool (or any DB) in a Transactor.
func NewTransactor(db DB, logger *zap.Logger) *Transactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transactor{db: db, logger: logger}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, NewStore(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			t.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var (
	_ repository.Store      = (*Store)(nil)
	_ repository.Transactor = (*Transactor)(nil)
)

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// wrapErr maps pgx.ErrNoRows to notFound and annotates everything else with op.
func wrapErr(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type errRow struct{ err error }

func (r errRow) Scan(...interface{}) error { return r.err }

func queryRow(ctx context.Context, q Querier, b squirrel.Sqlizer) pgx.Row {
	sql, args, err := b.ToSql()
	if err != nil {
		return errRow{err: err}
	}
	return q.QueryRow(ctx, sql, args...)
}

func query(ctx context.Context, q Querier, b squirrel.Sqlizer) (pgx.Rows, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return q.Query(ctx, sql, args...)
}

func exec(ctx context.Context, q Querier, b squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return q.Exec(ctx, sql, args...)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

type scanner interface {
	Scan(dest ...interface{}) error
}

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestTransactorCommits(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM occurrence_supports WHERE occurrence_id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	var count int
	err := NewTransactor(mock, nil).WithinTx(context.Background(), func(ctx context.Context, store repository.Store) error {
		var err error
		count, err = store.Supports().CountByOccurrence(ctx, 9)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorRollsBackOnLockFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM occurrences WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := NewTransactor(mock, nil).WithinTx(context.Background(), func(ctx context.Context, store repository.Store) error {
		_, err := store.Occurrences().GetForUpdate(ctx, 7)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrOccurrenceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactorBeginFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	called := false
	err := NewTransactor(mock, nil).WithinTx(context.Background(), func(context.Context, repository.Store) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestSupportUniqueViolation(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO occurrence_supports \(occurrence_id,citizen_id\) VALUES \(\$1,\$2\) RETURNING id, created_at`).
		WithArgs(int64(3), int64(4)).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := NewStore(mock).Supports().Create(context.Background(), &domain.Support{OccurrenceID: 3, CitizenID: 4})
	assert.ErrorIs(t, err, domain.ErrAlreadySupported)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestOccurrenceCount(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM occurrences WHERE status IN \(\$1\)`).
		WithArgs("open").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))

	total, err := NewStore(mock).Occurrences().Count(context.Background(), repository.OccurrenceFilter{
		Statuses: []domain.Status{domain.StatusOpen},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestAnalyticsWorkflow(t *testing.T) {
	mock := newMock(t)
	since := time.Date(2024, 2, 9, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`JOIN \(SELECT occurrence_id, MIN\(created_at\) AS triaged_at FROM occurrence_timeline WHERE action = \$1 GROUP BY occurrence_id\) t ON t.occurrence_id = o.id WHERE o.created_at >= \$2 AND o.department_id IS NOT NULL`).
		WithArgs(domain.ActionTriaged, since).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(4.0))
	mock.ExpectQuery(`FROM occurrences WHERE created_at >= \$1 AND completed_at IS NOT NULL AND started_at IS NOT NULL`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(24.0))
	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE action IN \(\$1, \$2\)\), COUNT\(\*\) FILTER \(WHERE action = \$3\) FROM occurrence_timeline WHERE created_at >= \$4`).
		WithArgs(domain.ActionValidationApproved, domain.ActionValidationRejected, domain.ActionValidationRejected, since).
		WillReturnRows(pgxmock.NewRows([]string{"validations", "rejections"}).AddRow(4, 1))

	summary, err := NewStore(mock).Analytics().Workflow(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, repository.WorkflowSummary{AvgTriageHours: 4, AvgExecutionHours: 24, Validations: 4, Rejections: 1}, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

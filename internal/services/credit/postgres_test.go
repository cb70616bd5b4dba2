package credit

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phambaophuc/imgres/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPostgresLedger(t *testing.T) (*PostgresLedger, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresLedger(db, zap.NewNop()), mock
}

func TestPostgresLedger_Balance(t *testing.T) {
	l, mock := newTestPostgresLedger(t)
	query := regexp.QuoteMeta("SELECT credit FROM user_credits WHERE identity = $1")

	mock.ExpectQuery(query).WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"credit"}).AddRow(int64(5)))
	mock.ExpectQuery(query).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	balance, err := l.Balance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance)

	balance, err = l.Balance(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_Debit(t *testing.T) {
	l, mock := newTestPostgresLedger(t)
	query := regexp.QuoteMeta("UPDATE user_credits SET credit = credit - $1, updated_at = NOW() WHERE identity = $2")

	mock.ExpectExec(query).WithArgs(int64(2), "user-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(int64(1), "ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, l.Debit(context.Background(), "user-1", 2))

	err := l.Debit(context.Background(), "ghost", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrAccountNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_RecordUsage(t *testing.T) {
	l, mock := newTestPostgresLedger(t)
	event := models.UsageEvent{
		ID:          "evt-1",
		Identity:    "user-1",
		Operation:   models.OperationResize,
		Variants:    3,
		CostCredits: 2,
		CreatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO user_operations").
		WithArgs(event.ID, event.Identity, event.Operation, event.Variants, event.CostCredits, event.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, l.RecordUsage(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedger_Grant(t *testing.T) {
	l, mock := newTestPostgresLedger(t)

	mock.ExpectQuery("INSERT INTO user_credits").WithArgs("user-1", int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"credit"}).AddRow(int64(12)))

	balance, err := l.Grant(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

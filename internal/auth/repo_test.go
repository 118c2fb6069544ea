package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

var userRowColumns = []string{"id", "email", "full_name", "password_hash", "is_active", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPGRepositoryFindByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("FROM users WHERE lower").
		WithArgs("Ops@Test.local").
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow(serviceUserID, "ops@test.local", "Ops", "hash", true, created, created))

	user, err := repo.FindByEmail(context.Background(), "Ops@Test.local")
	require.NoError(t, err)
	assert.Equal(t, serviceUserID, user.ID)
	assert.Equal(t, "Ops", user.FullName)
	assert.True(t, user.IsActive)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepositoryFindByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(serviceUserID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), serviceUserID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepositoryCreateSession(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)
	expires := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO user_sessions").
		WithArgs("sess-1", serviceUserID, pgxmock.AnyArg(), expires,
			pgtype.Text{String: "10.0.0.1:5000", Valid: true}, pgtype.Text{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateSession(context.Background(), "sess-1", serviceUserID, expires, "10.0.0.1:5000", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepositoryDeleteExpiredSessions(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)
	now := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM user_sessions WHERE expires_at").
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := repo.DeleteExpiredSessions(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
)

func TestNotificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), "l1", "s1", "STUDENT", "lesson.created", sqlmock.AnyArg(), "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	n := &models.Notification{LessonID: "l1", RecipientID: "s1", RecipientRole: models.RoleStudent, Type: models.NotificationLessonCreated, Payload: types.JSONText(`{}`)}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Equal(t, models.NotificationPending, n.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreateError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnError(errors.New("boom"))

	err := repo.Create(context.Background(), &models.Notification{LessonID: "l1", Payload: types.JSONText(`{}`)})
	assert.Error(t, err)
}

func TestNotificationRepositoryMarkSent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)
	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET status = $2, sent_at = $3, attempts = attempts + 1, last_error = NULL WHERE id = $1")).
		WithArgs("n1", "sent", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSent(context.Background(), "n1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkFailed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET status = $2, last_error = $3, attempts = attempts + 1 WHERE id = $1")).
		WithArgs("n1", "failed", "broker unavailable").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE notifications").
		WithArgs("missing", "failed", "broker unavailable").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkFailed(context.Background(), "n1", "broker unavailable"))
	err := repo.MarkFailed(context.Background(), "missing", "broker unavailable")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

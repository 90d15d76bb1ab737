package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
)

func TestAvailabilityRuleRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	now := time.Now()
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "is_recurring", "day_of_week", "specific_date", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("r1", "t1", true, 1, nil, "09:00", "12:00", now, now).
		AddRow("r2", "t1", false, nil, date, "14:00", "16:00", now, now)
	mock.ExpectQuery("FROM availability_rules WHERE teacher_id = \\$1").
		WithArgs("t1").
		WillReturnRows(rows)

	rules, err := repo.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.NotNil(t, rules[0].DayOfWeek)
	assert.Equal(t, 1, *rules[0].DayOfWeek)
	assert.Nil(t, rules[0].SpecificDate)
	require.NotNil(t, rules[1].SpecificDate)
	assert.True(t, date.Equal(*rules[1].SpecificDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	day := 3
	mock.ExpectExec("INSERT INTO availability_rules").
		WithArgs(sqlmock.AnyArg(), "t1", true, 3, nil, "09:00", "17:00", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rule := &models.AvailabilityRule{TeacherID: "t1", IsRecurring: true, DayOfWeek: &day, StartTime: "09:00", EndTime: "17:00"}
	require.NoError(t, repo.Create(context.Background(), rule))
	assert.NotEmpty(t, rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRuleRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRuleRepository(db)

	mock.ExpectExec("DELETE FROM availability_rules WHERE id = \\$1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

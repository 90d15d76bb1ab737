package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-booking-api/internal/models"
)

const lessonColumns = `id, teacher_id, student_id, title, start_time, end_time, status, cancel_reason, cancelled_at, created_by, created_at, updated_at`

// LessonRepository persists lessons and their additional participants.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// BeginTxx exposes transactions so services can wrap check and write together.
func (r *LessonRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// FindByID loads a lesson with its participant ids.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	return r.findByID(ctx, r.db, id, false)
}

// FindByIDForUpdate loads and row-locks a lesson inside tx.
func (r *LessonRepository) FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Lesson, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction provided")
	}
	return r.findByID(ctx, tx, id, true)
}

func (r *LessonRepository) findByID(ctx context.Context, q sqlx.QueryerContext, id string, lock bool) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var lesson models.Lesson
	if err := sqlx.GetContext(ctx, q, &lesson, query, id); err != nil {
		return nil, err
	}
	participants, err := r.participants(ctx, q, []string{lesson.ID})
	if err != nil {
		return nil, err
	}
	lesson.ParticipantIDs = participants[lesson.ID]
	return &lesson, nil
}

// ListInRange returns a teacher's lessons intersecting [From, To).
func (r *LessonRepository) ListInRange(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	where := []string{"teacher_id = $1", "start_time < $2", "end_time > $3"}
	args := []interface{}{filter.TeacherID, filter.To, filter.From}
	if !filter.IncludeCancelled {
		where = append(where, fmt.Sprintf("status <> $%d", len(args)+1))
		args = append(args, models.LessonCancelled)
	}
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE %s ORDER BY start_time ASC`, lessonColumns, strings.Join(where, " AND "))

	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons in range: %w", err)
	}
	return lessons, nil
}

// FindOverlapping returns non-cancelled lessons intersecting [Start, End) that
// involve the teacher, any of the students, or any student record sharing a
// login with them (as primary student or additional participant). exec may be
// a transaction; nil uses the pool.
func (r *LessonRepository) FindOverlapping(ctx context.Context, exec sqlx.QueryerContext, q models.OverlapQuery) ([]models.LessonConflict, error) {
	if exec == nil {
		exec = r.db
	}
	args := []interface{}{pq.Array(q.StudentIDs), q.End, q.Start, q.TeacherID, models.LessonCancelled}
	query := `WITH scope AS (
	SELECT s.id FROM students s
	WHERE s.id = ANY($1)
	   OR s.user_id IN (SELECT user_id FROM students WHERE id = ANY($1) AND user_id IS NOT NULL)
)
SELECT DISTINCT l.id, l.teacher_id, l.student_id, l.start_time, l.end_time, l.status
FROM lessons l
LEFT JOIN lesson_participants p ON p.lesson_id = l.id
WHERE l.status <> $5
  AND l.start_time < $2
  AND l.end_time > $3
  AND (l.teacher_id = $4 OR l.student_id IN (SELECT id FROM scope) OR p.student_id IN (SELECT id FROM scope))`
	if q.ExcludeLessonID != "" {
		query += fmt.Sprintf("\n  AND l.id <> $%d", len(args)+1)
		args = append(args, q.ExcludeLessonID)
	}
	query += "\nORDER BY l.start_time ASC"

	var conflicts []models.LessonConflict
	if err := sqlx.SelectContext(ctx, exec, &conflicts, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping lessons: %w", err)
	}
	return conflicts, nil
}

// CreateWithTx inserts a lesson and its participants using tx.
func (r *LessonRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, lesson *models.Lesson) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (id, teacher_id, student_id, title, start_time, end_time, status, cancel_reason, cancelled_at, created_by, created_at, updated_at)
VALUES (:id, :teacher_id, :student_id, :title, :start_time, :end_time, :status, :cancel_reason, :cancelled_at, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	for _, studentID := range lesson.ParticipantIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO lesson_participants (lesson_id, student_id) VALUES ($1, $2)`, lesson.ID, studentID); err != nil {
			return fmt.Errorf("add lesson participant: %w", err)
		}
	}
	return nil
}

// UpdateScheduleWithTx writes time, status and cancellation fields of lesson.
func (r *LessonRepository) UpdateScheduleWithTx(ctx context.Context, tx *sqlx.Tx, lesson *models.Lesson) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET start_time = :start_time, end_time = :end_time, status = :status, cancel_reason = :cancel_reason,
cancelled_at = :cancelled_at, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, tx, query, lesson)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *LessonRepository) participants(ctx context.Context, q sqlx.QueryerContext, lessonIDs []string) (map[string][]string, error) {
	type row struct {
		LessonID  string `db:"lesson_id"`
		StudentID string `db:"student_id"`
	}
	var rows []row
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT lesson_id, student_id FROM lesson_participants WHERE lesson_id = ANY($1) ORDER BY student_id ASC`, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("list lesson participants: %w", err)
	}
	out := make(map[string][]string, len(lessonIDs))
	for _, r := range rows {
		out[r.LessonID] = append(out[r.LessonID], r.StudentID)
	}
	return out, nil
}

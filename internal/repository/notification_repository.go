package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-booking-api/internal/models"
)

// NotificationRepository stores lesson notifications and their delivery state.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row. Re-inserting the same id is a no-op so
// retried deliveries stay single.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = models.NotificationPending
	}
	const query = `INSERT INTO notifications (id, lesson_id, recipient_id, recipient_role, type, payload, status, created_at)
		VALUES (:id, :lesson_id, :recipient_id, :recipient_role, :type, :payload, :status, :created_at)
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkSent records a successful delivery attempt.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notifications SET status = $2, sent_at = $3, attempts = attempts + 1, last_error = NULL WHERE id = $1`
	return r.mark(ctx, query, id, models.NotificationSent, at)
}

// MarkFailed records a failed delivery attempt and its reason. The row stays
// eligible for a later retry.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE notifications SET status = $2, last_error = $3, attempts = attempts + 1 WHERE id = $1`
	return r.mark(ctx, query, id, models.NotificationFailed, reason)
}

func (r *NotificationRepository) mark(ctx context.Context, query, id string, status models.NotificationStatus, arg interface{}) error {
	res, err := r.db.ExecContext(ctx, query, id, status, arg)
	if err != nil {
		return fmt.Errorf("mark notification %s: %w", status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

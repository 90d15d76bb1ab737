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

const availabilityRuleColumns = `id, teacher_id, is_recurring, day_of_week, specific_date, start_time, end_time, created_at, updated_at`

// AvailabilityRuleRepository persists teacher availability rules.
type AvailabilityRuleRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRuleRepository constructs the repository.
func NewAvailabilityRuleRepository(db *sqlx.DB) *AvailabilityRuleRepository {
	return &AvailabilityRuleRepository{db: db}
}

// ListByTeacher returns all rules of a teacher, recurring first.
func (r *AvailabilityRuleRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error) {
	query := `SELECT ` + availabilityRuleColumns + ` FROM availability_rules WHERE teacher_id = $1
ORDER BY is_recurring DESC, day_of_week ASC NULLS LAST, specific_date ASC NULLS LAST, start_time ASC`
	var rules []models.AvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query, teacherID); err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return rules, nil
}

// FindByID fetches a rule by ID.
func (r *AvailabilityRuleRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	query := `SELECT ` + availabilityRuleColumns + ` FROM availability_rules WHERE id = $1`
	var rule models.AvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create inserts a rule.
func (r *AvailabilityRuleRepository) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO availability_rules (id, teacher_id, is_recurring, day_of_week, specific_date, start_time, end_time, created_at, updated_at)
		VALUES (:id, :teacher_id, :is_recurring, :day_of_week, :specific_date, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}
	return nil
}

// Update rewrites a rule's schedule fields.
func (r *AvailabilityRuleRepository) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_rules SET is_recurring = :is_recurring, day_of_week = :day_of_week, specific_date = :specific_date,
		start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update availability rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a rule.
func (r *AvailabilityRuleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

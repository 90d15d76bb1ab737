package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id, reason string) error
}

// EventPublisher is satisfied by *kafka.Writer.
type EventPublisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// LessonEvent describes a committed lesson change both parties should hear about.
type LessonEvent struct {
	Type           models.NotificationType
	Lesson         models.Lesson
	PreviousStart  *time.Time
	PreviousEnd    *time.Time
	PreviousStatus models.LessonStatus
	Reason         string
	ActorID        string
}

type lessonEventPayload struct {
	LessonID          string              `json:"lesson_id"`
	TeacherID         string              `json:"teacher_id"`
	StudentIDs        []string            `json:"student_ids"`
	StartTime         time.Time           `json:"start_time"`
	EndTime           time.Time           `json:"end_time"`
	Status            models.LessonStatus `json:"status"`
	PreviousStartTime *time.Time          `json:"previous_start_time,omitempty"`
	PreviousEndTime   *time.Time          `json:"previous_end_time,omitempty"`
	PreviousStatus    models.LessonStatus `json:"previous_status,omitempty"`
	Reason            string              `json:"reason,omitempty"`
	ActorID           string              `json:"actor_id,omitempty"`
}

// NotificationConfig tunes the delivery worker pool.
type NotificationConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NotificationService fans lesson events out to the teacher and every student
// on the lesson. Delivery runs on a background queue: each notification is
// stored and then published keyed by lesson id when a publisher is
// configured. The stored status records the outcome.
type NotificationService struct {
	store     notificationStore
	publisher EventPublisher
	queue     *jobs.Queue
	logger    *zap.Logger
}

// NewNotificationService constructs the service and its delivery queue.
// publisher may be nil.
func NewNotificationService(store notificationStore, publisher EventPublisher, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{store: store, publisher: publisher, logger: logger}
	s.queue = jobs.NewQueue("lesson-notifications", s.Handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: 256,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for workers to exit. Buffered notifications are dropped.
func (s *NotificationService) Stop() {
	if pending := s.queue.Pending(); pending > 0 {
		s.logger.Warn("dropping undelivered notifications", zap.Int("pending", pending))
	}
	s.queue.Stop()
}

// Notify enqueues one notification per party. Failures are logged and never
// surface to the caller; the lesson change has already been committed.
func (s *NotificationService) Notify(ctx context.Context, event LessonEvent) {
	for _, n := range s.build(event) {
		n := n
		if err := s.queue.Enqueue(jobs.Job{ID: n.ID, Type: string(n.Type), Payload: &n}); err != nil {
			s.logger.Warn("enqueue notification failed, delivering inline",
				zap.String("lesson_id", n.LessonID),
				zap.String("recipient_id", n.RecipientID),
				zap.Error(err))
			if err := s.deliver(ctx, &n); err != nil {
				s.logger.Error("deliver notification failed", zap.String("lesson_id", n.LessonID), zap.Error(err))
			}
		}
	}
}

// Handle is the queue handler.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(*models.Notification)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.deliver(ctx, n)
}

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) error {
	if s.store != nil {
		if err := s.store.Create(ctx, n); err != nil {
			return fmt.Errorf("store notification: %w", err)
		}
	}
	if s.publisher != nil {
		value, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		msg := kafka.Message{
			Key:   []byte(n.LessonID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(n.Type)},
				{Key: "recipient_role", Value: []byte(n.RecipientRole)},
			},
		}
		if err := s.publisher.WriteMessages(ctx, msg); err != nil {
			s.markFailed(ctx, n, err)
			return fmt.Errorf("publish notification: %w", err)
		}
	}
	if s.store != nil {
		// A failed status write must not trigger a republish.
		if err := s.store.MarkSent(ctx, n.ID, time.Now().UTC()); err != nil {
			s.logger.Warn("mark notification sent failed", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
	s.logger.Info("notification delivered",
		zap.String("type", string(n.Type)),
		zap.String("lesson_id", n.LessonID),
		zap.String("recipient_id", n.RecipientID))
	return nil
}

func (s *NotificationService) markFailed(ctx context.Context, n *models.Notification, cause error) {
	if s.store == nil {
		return
	}
	if err := s.store.MarkFailed(ctx, n.ID, cause.Error()); err != nil {
		s.logger.Warn("mark notification failed", zap.String("notification_id", n.ID), zap.Error(err))
	}
}

func (s *NotificationService) build(event LessonEvent) []models.Notification {
	l := event.Lesson
	payload, err := json.Marshal(lessonEventPayload{
		LessonID:          l.ID,
		TeacherID:         l.TeacherID,
		StudentIDs:        l.StudentIDs(),
		StartTime:         l.StartTime,
		EndTime:           l.EndTime,
		Status:            l.Status,
		PreviousStartTime: event.PreviousStart,
		PreviousEndTime:   event.PreviousEnd,
		PreviousStatus:    event.PreviousStatus,
		Reason:            event.Reason,
		ActorID:           event.ActorID,
	})
	if err != nil {
		s.logger.Error("encode lesson event failed", zap.String("lesson_id", l.ID), zap.Error(err))
		return nil
	}

	now := time.Now().UTC()
	out := make([]models.Notification, 0, 1+len(l.ParticipantIDs)+1)
	add := func(recipient string, role models.UserRole) {
		out = append(out, models.Notification{
			ID:            uuid.NewString(),
			LessonID:      l.ID,
			RecipientID:   recipient,
			RecipientRole: role,
			Type:          event.Type,
			Payload:       types.JSONText(payload),
			Status:        models.NotificationPending,
			CreatedAt:     now,
		})
	}
	add(l.TeacherID, models.RoleTeacher)
	for _, id := range l.StudentIDs() {
		add(id, models.RoleStudent)
	}
	return out
}

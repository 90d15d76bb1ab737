package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

type lessonService interface {
	Get(ctx context.Context, actor models.Actor, id string) (*models.Lesson, error)
	Create(ctx context.Context, actor models.Actor, req service.CreateLessonRequest) (*models.Lesson, error)
	Reschedule(ctx context.Context, actor models.Actor, id string, req service.RescheduleLessonRequest) (*models.Lesson, error)
	Cancel(ctx context.Context, actor models.Actor, id string, req service.CancelLessonRequest) (*models.Lesson, error)
	TransitionStatus(ctx context.Context, actor models.Actor, id string, req service.UpdateLessonStatusRequest) (*models.Lesson, error)
	CheckOverlap(ctx context.Context, actor models.Actor, q models.OverlapQuery) (*models.OverlapResult, error)
}

// LessonHandler exposes lesson booking and lifecycle endpoints.
type LessonHandler struct {
	lessons lessonService
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(lessons lessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// Create godoc
// @Summary Book a lesson
// @Description Creates a pending lesson (teachers may create it confirmed). Overlaps with the teacher's or any student's lessons are rejected.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid lesson payload"))
		return
	}
	lesson, err := h.lessons.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Get godoc
// @Summary Get lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	lesson, err := h.lessons.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// CheckOverlap godoc
// @Summary Check a proposed lesson time
// @Description Reports existing lessons of the teacher or students that intersect the proposed time. Lessons the caller is not part of only show their times.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body models.OverlapQuery true "Proposed time"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /lessons/check-overlap [post]
func (h *LessonHandler) CheckOverlap(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var q models.OverlapQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		response.Error(c, bindError(err, "invalid overlap query"))
		return
	}
	result, err := h.lessons.CheckOverlap(c.Request.Context(), actor, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reschedule godoc
// @Summary Move a lesson
// @Description Confirmed lessons return to pending after a move
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.RescheduleLessonRequest true "New time"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/time [patch]
func (h *LessonHandler) Reschedule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.RescheduleLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid reschedule payload"))
		return
	}
	lesson, err := h.lessons.Reschedule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Cancel godoc
// @Summary Cancel a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.CancelLessonRequest false "Cancellation reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/cancel [post]
func (h *LessonHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CancelLessonRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err, "invalid cancel payload"))
			return
		}
	}
	lesson, err := h.lessons.Cancel(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// UpdateStatus godoc
// @Summary Change lesson status
// @Description confirmed, completed or cancelled
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.UpdateLessonStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/status [patch]
func (h *LessonHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.UpdateLessonStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid status payload"))
		return
	}
	lesson, err := h.lessons.TransitionStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

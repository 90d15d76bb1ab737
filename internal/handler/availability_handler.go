package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/middleware"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

type availabilityService interface {
	Calendar(ctx context.Context, teacherID string, start, end time.Time) (*service.AvailabilityCalendar, bool, error)
	Slots(ctx context.Context, teacherID string, start, end time.Time, duration time.Duration) ([]models.BookableSlot, error)
}

// AvailabilityHandler serves a teacher's free time.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Availability godoc
// @Summary Teacher free time
// @Description Merged free ranges inside [start, end) with calendar background events
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/availability [get]
func (h *AvailabilityHandler) Availability(c *gin.Context) {
	start, end, ok := timeRange(c)
	if !ok {
		return
	}
	calendar, hit, err := h.service.Calendar(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, calendar, nil, middleware.ExtractMeta(c))
}

// Slots godoc
// @Summary Bookable slots
// @Description Fixed-length slots carved from free time; past slots are omitted
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Param duration query int false "Slot length in minutes (30 or 60)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/{id}/slots [get]
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	start, end, ok := timeRange(c)
	if !ok {
		return
	}
	var duration time.Duration
	if raw := strings.TrimSpace(c.Query("duration")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "duration must be a number of minutes"))
			return
		}
		duration = time.Duration(minutes) * time.Minute
	}
	slots, err := h.service.Slots(c.Request.Context(), c.Param("id"), start, end, duration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

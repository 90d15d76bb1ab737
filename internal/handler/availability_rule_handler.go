package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

type availabilityRuleService interface {
	List(ctx context.Context, actor models.Actor, teacherID string) ([]models.AvailabilityRule, error)
	Create(ctx context.Context, actor models.Actor, teacherID string, req service.AvailabilityRuleRequest) (*models.AvailabilityRule, error)
	Update(ctx context.Context, actor models.Actor, ruleID string, req service.AvailabilityRuleRequest) (*models.AvailabilityRule, error)
	Delete(ctx context.Context, actor models.Actor, ruleID string) error
	SetTimezone(ctx context.Context, actor models.Actor, teacherID string, req service.UpdateTimezoneRequest) (*models.Teacher, error)
}

// AvailabilityRuleHandler manages the rules free time is computed from.
type AvailabilityRuleHandler struct {
	service availabilityRuleService
}

// NewAvailabilityRuleHandler constructs the handler.
func NewAvailabilityRuleHandler(service availabilityRuleService) *AvailabilityRuleHandler {
	return &AvailabilityRuleHandler{service: service}
}

// List godoc
// @Summary List availability rules
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability-rules [get]
func (h *AvailabilityRuleHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	rules, err := h.service.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Create godoc
// @Summary Create availability rule
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.AvailabilityRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/{id}/availability-rules [post]
func (h *AvailabilityRuleHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.AvailabilityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid availability rule payload"))
		return
	}
	rule, err := h.service.Create(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Replace availability rule
// @Tags Availability
// @Accept json
// @Produce json
// @Param ruleId path string true "Rule ID"
// @Param payload body service.AvailabilityRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /availability-rules/{ruleId} [put]
func (h *AvailabilityRuleHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.AvailabilityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid availability rule payload"))
		return
	}
	rule, err := h.service.Update(c.Request.Context(), actor, c.Param("ruleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Delete godoc
// @Summary Delete availability rule
// @Tags Availability
// @Param ruleId path string true "Rule ID"
// @Success 204
// @Router /availability-rules/{ruleId} [delete]
func (h *AvailabilityRuleHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("ruleId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateTimezone godoc
// @Summary Set teacher timezone
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.UpdateTimezoneRequest true "IANA timezone"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/timezone [put]
func (h *AvailabilityRuleHandler) UpdateTimezone(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.UpdateTimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid timezone payload"))
		return
	}
	teacher, err := h.service.SetTimezone(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

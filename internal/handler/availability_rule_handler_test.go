package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type ruleServiceMock struct {
	req      service.AvailabilityRuleRequest
	ruleID   string
	tzReq    service.UpdateTimezoneRequest
	err      error
	deleteOK bool
}

func (m *ruleServiceMock) List(_ context.Context, _ models.Actor, teacherID string) ([]models.AvailabilityRule, error) {
	return []models.AvailabilityRule{{ID: "r1", TeacherID: teacherID}}, m.err
}

func (m *ruleServiceMock) Create(_ context.Context, _ models.Actor, teacherID string, req service.AvailabilityRuleRequest) (*models.AvailabilityRule, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.AvailabilityRule{ID: "r2", TeacherID: teacherID, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (m *ruleServiceMock) Update(_ context.Context, _ models.Actor, ruleID string, req service.AvailabilityRuleRequest) (*models.AvailabilityRule, error) {
	m.ruleID, m.req = ruleID, req
	return &models.AvailabilityRule{ID: ruleID}, m.err
}

func (m *ruleServiceMock) Delete(_ context.Context, _ models.Actor, ruleID string) error {
	m.ruleID = ruleID
	m.deleteOK = m.err == nil
	return m.err
}

func (m *ruleServiceMock) SetTimezone(_ context.Context, _ models.Actor, teacherID string, req service.UpdateTimezoneRequest) (*models.Teacher, error) {
	m.tzReq = req
	return &models.Teacher{ID: teacherID, Timezone: req.Timezone}, m.err
}

func ruleRoutes(h *AvailabilityRuleHandler) func(r gin.IRoutes) {
	return func(r gin.IRoutes) {
		r.GET("/teachers/:id/availability-rules", h.List)
		r.POST("/teachers/:id/availability-rules", h.Create)
		r.PUT("/availability-rules/:ruleId", h.Update)
		r.DELETE("/availability-rules/:ruleId", h.Delete)
		r.PUT("/teachers/:id/timezone", h.UpdateTimezone)
	}
}

func TestAvailabilityRuleHandlerCreate(t *testing.T) {
	svc := &ruleServiceMock{}
	r := testRouter(teacherClaims, ruleRoutes(NewAvailabilityRuleHandler(svc)))

	w := doJSON(r, http.MethodPost, "/teachers/t1/availability-rules", `{"is_recurring":true,"day_of_week":1,"start_time":"09:00","end_time":"17:00"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.req.DayOfWeek)
	assert.Equal(t, 1, *svc.req.DayOfWeek)
	assert.True(t, svc.req.IsRecurring)
	assert.Contains(t, w.Body.String(), `"id":"r2"`)
}

func TestAvailabilityRuleHandlerCreateValidationError(t *testing.T) {
	svc := &ruleServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")}
	r := testRouter(teacherClaims, ruleRoutes(NewAvailabilityRuleHandler(svc)))

	w := doJSON(r, http.MethodPost, "/teachers/t1/availability-rules", `{"is_recurring":true,"day_of_week":1,"start_time":"17:00","end_time":"09:00"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/teachers/t1/availability-rules", `{"day_of_week":"monday"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityRuleHandlerListUpdateDelete(t *testing.T) {
	svc := &ruleServiceMock{}
	r := testRouter(teacherClaims, ruleRoutes(NewAvailabilityRuleHandler(svc)))

	w := doJSON(r, http.MethodGet, "/teachers/t1/availability-rules", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"teacher_id":"t1"`)

	w = doJSON(r, http.MethodPut, "/availability-rules/r1", `{"specific_date":"2024-03-09","start_time":"09:00","end_time":"10:00"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", svc.ruleID)
	assert.Equal(t, "2024-03-09", svc.req.SpecificDate)

	w = doJSON(r, http.MethodDelete, "/availability-rules/r1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, svc.deleteOK)
}

func TestAvailabilityRuleHandlerForbidden(t *testing.T) {
	svc := &ruleServiceMock{err: appErrors.Clone(appErrors.ErrForbidden, "only the teacher can manage availability")}
	r := testRouter(teacherClaims, ruleRoutes(NewAvailabilityRuleHandler(svc)))

	w := doJSON(r, http.MethodDelete, "/availability-rules/r1", "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAvailabilityRuleHandlerUpdateTimezone(t *testing.T) {
	svc := &ruleServiceMock{}
	r := testRouter(teacherClaims, ruleRoutes(NewAvailabilityRuleHandler(svc)))

	w := doJSON(r, http.MethodPut, "/teachers/t1/timezone", `{"timezone":"Asia/Jakarta"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Asia/Jakarta", svc.tzReq.Timezone)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tutor-booking-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	h := NewMetricsHandler(nil, map[string]Pinger{"postgres": ok, "redis": ok})
	r := testRouter(nil, func(r gin.IRoutes) { r.GET("/ready", h.Ready) })
	w := doJSON(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ready"`)

	h = NewMetricsHandler(nil, map[string]Pinger{"postgres": ok, "redis": down})
	r = testRouter(nil, func(r gin.IRoutes) { r.GET("/ready", h.Ready) })
	w = doJSON(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordLessonConflict("create", "check")
	h := NewMetricsHandler(metrics, nil)
	r := testRouter(nil, func(r gin.IRoutes) {
		r.GET("/metrics", h.Prometheus)
		r.GET("/health", h.Health)
	})

	w := doJSON(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `lesson_conflicts_total{operation="create",source="check"} 1`)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/health", "").Code)
}

func TestMetricsHandlerWithoutService(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	r := testRouter(nil, func(r gin.IRoutes) { r.GET("/metrics", h.Prometheus) })
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(r, http.MethodGet, "/metrics", "").Code)
}

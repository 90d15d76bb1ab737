package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/handler"
	"github.com/noah-isme/tutor-booking-api/internal/middleware"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/pkg/config"
	"github.com/noah-isme/tutor-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-booking-api/pkg/middleware/requestid"
)

type routeDeps struct {
	tokens       middleware.TokenValidator
	metrics      *service.MetricsService
	health       *handler.MetricsHandler
	availability *handler.AvailabilityHandler
	rules        *handler.AvailabilityRuleHandler
	lessons      *handler.LessonHandler
	exports      *handler.ExportHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.tokens))

	anyone := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleStudent)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	teachers := api.Group("/teachers/:id")
	teachers.GET("/availability", anyone, deps.availability.Availability)
	teachers.GET("/slots", anyone, deps.availability.Slots)
	teachers.GET("/agenda/export", staff, deps.exports.Agenda)
	teachers.GET("/availability-rules", staff, deps.rules.List)
	teachers.POST("/availability-rules", staff, deps.rules.Create)
	teachers.PUT("/timezone", staff, deps.rules.UpdateTimezone)

	rules := api.Group("/availability-rules", staff)
	rules.PUT("/:ruleId", deps.rules.Update)
	rules.DELETE("/:ruleId", deps.rules.Delete)

	lessons := api.Group("/lessons", anyone)
	lessons.POST("", deps.lessons.Create)
	lessons.POST("/check-overlap", deps.lessons.CheckOverlap)
	lessons.GET("/:id", deps.lessons.Get)
	lessons.PATCH("/:id/time", deps.lessons.Reschedule)
	lessons.POST("/:id/cancel", deps.lessons.Cancel)
	lessons.PATCH("/:id/status", deps.lessons.UpdateStatus)

	return r
}

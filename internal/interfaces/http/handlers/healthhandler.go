package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/shared/logger"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger logger.Interface
}

// NewHealthHandler checks db and, when not nil, redis.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, logger logger.Interface) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, logger: logger}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := gin.H{"database": "ok"}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "unavailable"
		healthy = false
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		h.logger.Warnw("health check failed", "checks", checks)
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy, "checks": checks})
}

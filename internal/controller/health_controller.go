package controller

import (
	"istas_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{"database": "up", "redis": "up"}
	healthy := true

	sqlDB, err := c.DB.DB()
	if err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
		components["database"] = "down"
		healthy = false
	}
	if c.Redis == nil || c.Redis.Ping(ctx.Request.Context()).Err() != nil {
		components["redis"] = "down"
		healthy = false
	}

	if !healthy {
		util.ErrorWithData(ctx, http.StatusServiceUnavailable, "Service unavailable", gin.H{"components": components})
		return
	}
	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator"
	"github.com/houzhh15/audioscribe/cmd/server/internal/orchestrator/health"
)

// ServicesStatusResponse 外部能力健康状态
type ServicesStatusResponse struct {
	Ready    bool                   `json:"ready"`
	Services []health.ServiceStatus `json:"services"`
}

// HealthCheckResponse 存活探针响应
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
	Env       string    `json:"env"`
}

// HandleServicesStatus 返回周期性健康检查的最新结果
// GET /api/v1/services/status
func HandleServicesStatus(checkers health.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ServicesStatusResponse{
			Ready:    checkers.Ready(),
			Services: checkers.Statuses(),
		})
	}
}

// HandleReadiness 就绪探针：任一外部能力不健康时返回 503
// GET /readiness
func HandleReadiness(checkers health.Set) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := ServicesStatusResponse{Ready: checkers.Ready(), Services: checkers.Statuses()}
		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

// HandleHealth 存活探针
// GET /health
func HandleHealth(version, env string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthCheckResponse{
			Status:    "healthy",
			Service:   "audioscribe",
			Version:   version,
			Uptime:    time.Since(startTime).String(),
			Timestamp: time.Now(),
			Env:       env,
		})
	}
}

// HandleEnvironmentCheck 执行一次完整环境检查
// GET /api/v1/environment
func HandleEnvironmentCheck(cfg orchestrator.EnvironmentConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, orchestrator.CheckEnvironment(c.Request.Context(), cfg))
	}
}

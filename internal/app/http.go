package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/molecube/internal/config"
	"github.com/taoyao-code/molecube/internal/controller"
	"github.com/taoyao-code/molecube/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器；指标关闭时不注册 /metrics
func NewHTTPServer(cfg *cfgpkg.Config, metricsHandler http.Handler, readyFn func() bool, log *zap.Logger) *httpserver.Server {
	if !cfg.Metrics.Enable {
		metricsHandler = nil
	}
	return httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler, readyFn, httpserver.WithLogger(log))
}

// RegisterStateRoutes 注册控制器状态只读接口
func RegisterStateRoutes(r *gin.Engine, h *controller.Handler, instanceID string) {
	r.GET("/api/v1/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"instance_id": instanceID,
			"state":       h.Snapshot(),
		})
	})
}

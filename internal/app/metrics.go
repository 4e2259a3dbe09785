package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taoyao-code/molecube/internal/metrics"
)

// NewMetrics 初始化注册表与控制器指标
func NewMetrics() (*prometheus.Registry, *metrics.ControllerMetrics) {
	reg := metrics.NewRegistry()
	cm := metrics.NewControllerMetrics(reg)
	return reg, cm
}

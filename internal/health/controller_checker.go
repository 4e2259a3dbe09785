package health

import (
	"context"
	"fmt"
	"os"
	"time"
)

// ServingStats REP 服务运行统计
type ServingStats interface {
	Serving() bool
	Requests() uint64
	LastRequest() time.Time
	Endpoint() string
}

// ControllerChecker 控制器 REP 服务健康检查器
type ControllerChecker struct {
	server ServingStats
}

// NewControllerChecker 创建控制器检查器
func NewControllerChecker(server ServingStats) *ControllerChecker {
	return &ControllerChecker{server: server}
}

// Name 返回检查器名称
func (c *ControllerChecker) Name() string {
	return "controller"
}

// Check 处理循环退出即不健康
func (c *ControllerChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	details := map[string]any{
		"endpoint": c.server.Endpoint(),
		"requests": c.server.Requests(),
	}
	if last := c.server.LastRequest(); !last.IsZero() {
		details["last_request"] = last.Format(time.RFC3339Nano)
	}

	if !c.server.Serving() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "request loop not running",
			Details: details,
			Latency: time.Since(start),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: details,
		Latency: time.Since(start),
	}
}

// RuntimeDirChecker 运行目录可写检查（名表与启动脚本持久化依赖它）
type RuntimeDirChecker struct {
	dir string
}

// NewRuntimeDirChecker 创建运行目录检查器
func NewRuntimeDirChecker(dir string) *RuntimeDirChecker {
	return &RuntimeDirChecker{dir: dir}
}

// Name 返回检查器名称
func (c *RuntimeDirChecker) Name() string {
	return "runtime_dir"
}

// Check 不可写时降级：请求仍可应答，但修改无法持久化
func (c *RuntimeDirChecker) Check(_ context.Context) CheckResult {
	start := time.Now()
	details := map[string]any{"dir": c.dir}

	info, err := os.Stat(c.dir)
	if err != nil || !info.IsDir() {
		msg := "not a directory"
		if err != nil {
			msg = err.Error()
		}
		return CheckResult{Status: StatusDegraded, Message: msg, Details: details, Latency: time.Since(start)}
	}

	f, err := os.CreateTemp(c.dir, ".health-*")
	if err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("not writable: %v", err),
			Details: details,
			Latency: time.Since(start),
		}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	return CheckResult{Status: StatusHealthy, Message: "ok", Details: details, Latency: time.Since(start)}
}

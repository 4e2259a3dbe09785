package app

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// GenerateInstanceID 生成进程实例ID（日志与健康检查中标识进程）
// 优先使用环境变量 MOLECUBE_INSTANCE_ID，否则生成UUID
func GenerateInstanceID() string {
	if id := os.Getenv("MOLECUBE_INSTANCE_ID"); id != "" {
		return id
	}

	// 生成格式：molecube-dummy-{hostname}-{uuid}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	shortUUID := uuid.New().String()[:8]
	return fmt.Sprintf("molecube-dummy-%s-%s", hostname, shortUUID)
}

// ServerID 以启动时间（毫秒）作为协议层服务器ID，足以识别控制器重启
func ServerID(start time.Time) uint64 {
	return uint64(start.UnixMilli())
}

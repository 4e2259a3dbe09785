package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taoyao-code/molecube/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/molecube/internal/config"
	"github.com/taoyao-code/molecube/internal/logging"
)

func main() {
	fs := pflag.NewFlagSet("molecube-dummy", pflag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	fs.String("listen", "", "controller endpoint, e.g. tcp://*:7777")
	fs.String("runtime-dir", "", "directory for names and startup script")
	fs.String("http-addr", "", "health/metrics listen address")
	fs.String("log-level", "", "log level (debug|info|warn|error)")
	_ = fs.Parse(os.Args[1:])

	// 1) 加载配置
	cfg, err := cfgpkg.LoadWithFlags(*configPath, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	log := zap.L()

	// 3) 信号处理，优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = bootstrap.Run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("dummy controller exited", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

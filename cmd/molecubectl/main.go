package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/taoyao-code/molecube/internal/config"
	"github.com/taoyao-code/molecube/internal/logging"
	"github.com/taoyao-code/molecube/internal/protocol/molecube"
	"github.com/taoyao-code/molecube/internal/transport/zmq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("molecubectl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	// 端点之后的参数原样交给命令
	fs.SetInterspersed(false)
	configPath := fs.String("config", "", "config file path")
	fs.Duration("timeout", 0, "request timeout, e.g. 5s")
	fs.Duration("dial-timeout", 0, "connect timeout")
	fs.String("log-level", "", "log level (debug|info|warn|error)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: molecubectl [flags] <endpoint> <command> [args...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return 2
	}

	// 1) 加载配置
	cfg, err := cfgpkg.LoadWithFlags(*configPath, fs)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}

	// 2) 初始化日志，写入 stderr，不干扰应答打印
	cfg.Logging.Format = "console"
	logger, err := logging.InitLoggerTo(cfg.Logging, zapcore.AddSync(stderr))
	if err != nil {
		fmt.Fprintln(stderr, "logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	endpoint, token, cmdArgs := fs.Arg(0), fs.Arg(1), fs.Args()[2:]

	// 3) 先校验命令与参数，出错时不连接控制器
	cmd, err := molecube.ParseCommand(token)
	if err != nil {
		logger.Error("invalid command", zap.String("command", token), zap.Error(err))
		return 1
	}
	req, err := molecube.BuildRequest(cmd, cmdArgs, os.ReadFile)
	if err != nil {
		logger.Error("invalid arguments", zap.String("command", token), zap.Error(err))
		return 1
	}

	// 4) 连接控制器
	client, err := zmq.Dial(ctx, endpoint, zmq.Config{
		Timeout:     cfg.Client.Timeout,
		DialTimeout: cfg.Client.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("dial controller", zap.String("endpoint", endpoint), zap.Error(err))
		return 1
	}
	defer func() { _ = client.Close() }()

	// 5) 执行命令并输出
	d := molecube.NewDispatcher(client, molecube.WithLogger(logger))
	res, err := d.Execute(ctx, req)
	if err != nil {
		logger.Error("command failed", zap.String("command", token), zap.Error(err))
		return 1
	}
	if err := printResult(stdout, res); err != nil {
		logger.Error("print reply", zap.String("command", token), zap.Error(err))
		return 1
	}
	return 0
}

package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taoyao-code/molecube/internal/app"
	cfgpkg "github.com/taoyao-code/molecube/internal/config"
	"github.com/taoyao-code/molecube/internal/controller"
	"github.com/taoyao-code/molecube/internal/health"
	"github.com/taoyao-code/molecube/internal/metrics"
)

// Run 模拟控制器统一启动流程，阻塞到 ctx 结束
func Run(ctx context.Context, cfg *cfgpkg.Config, log *zap.Logger) error {
	start := time.Now()
	instanceID := app.GenerateInstanceID()
	serverID := app.ServerID(start)
	log = log.With(zap.String("instance_id", instanceID))
	log.Info("starting molecube dummy controller", zap.Uint64("server_id", serverID))

	// ========== 阶段1: 初始化基础组件 ==========
	reg, cm := app.NewMetrics()
	metricsHandler := metrics.Handler(reg)
	ready := health.New()

	// ========== 阶段2: 运行目录与名表（失败直接返回）==========
	handler, err := controller.NewHandler(controller.Config{
		RuntimeDir: cfg.Controller.RuntimeDir,
		NumTTL:     cfg.Controller.NumTTL,
		NumDDS:     cfg.Controller.NumDDS,
		ServerID:   serverID,
	}, controller.WithLogger(log.Named("controller")), controller.WithMetrics(cm))
	if err != nil {
		log.Error("controller state initialization failed", zap.Error(err))
		return err
	}
	ready.SetStateReady(true)
	log.Info("controller state ready", zap.String("runtime_dir", cfg.Controller.RuntimeDir))

	// ========== 阶段3: HTTP 服务 ==========
	healthAgg := app.NewHealthAggregator(cfg.Controller.RuntimeDir)
	httpSrv := app.NewHTTPServer(cfg, metricsHandler, ready.Ready, log.Named("http"))
	httpSrv.Register(func(r *gin.Engine) {
		app.RegisterHealthRoutes(r, healthAgg)
		app.RegisterStateRoutes(r, handler, instanceID)
	})

	// ========== 阶段4: REP 服务（失败直接返回）==========
	repSrv := controller.NewServer(cfg.Controller.Listen, handler, log.Named("rep"))
	if err := repSrv.Start(); err != nil {
		log.Error("controller listen failed", zap.Error(err))
		return err
	}
	ready.SetListenReady(true)
	app.AddControllerChecker(healthAgg, repSrv)

	// ========== 阶段5: 运行直到关闭信号 ==========
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server started", zap.String("addr", cfg.HTTP.Addr))
		return httpSrv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		ready.SetListenReady(false)
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return repSrv.Shutdown(sctx)
	})

	log.Info("all services ready, waiting for requests")
	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service stopped with error", zap.Error(err))
		return err
	}
	log.Info("shutdown complete")
	return nil
}

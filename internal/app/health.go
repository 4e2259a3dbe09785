package app

import (
	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/molecube/internal/controller"
	"github.com/taoyao-code/molecube/internal/health"
)

// NewHealthAggregator 创建健康检查聚合器，初始只检查运行目录
func NewHealthAggregator(runtimeDir string) *health.Aggregator {
	return health.NewAggregator(
		health.NewRuntimeDirChecker(runtimeDir),
	)
}

// AddControllerChecker REP 服务启动后加入检查
func AddControllerChecker(aggregator *health.Aggregator, srv *controller.Server) {
	aggregator.AddChecker(health.NewControllerChecker(srv))
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}

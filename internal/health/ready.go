package health

import "sync/atomic"

// Readiness 进程就绪标志：运行目录与名表已加载、REP 端口已监听
type Readiness struct {
	stateReady  atomic.Bool
	listenReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetStateReady(v bool)  { r.stateReady.Store(v) }
func (r *Readiness) SetListenReady(v bool) { r.listenReady.Store(v) }

// Ready 总体就绪：各阶段均为 true
func (r *Readiness) Ready() bool {
	return r.stateReady.Load() && r.listenReady.Load()
}

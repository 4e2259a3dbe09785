package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
	"go.uber.org/zap"
)

// Server ZeroMQ REP 服务，单 goroutine 顺序处理请求
type Server struct {
	endpoint string
	handler  *Handler
	logger   *zap.Logger

	sock   zmq4.Socket
	cancel context.CancelFunc
	wg     sync.WaitGroup

	serving     atomic.Bool
	requests    atomic.Uint64
	lastRequest atomic.Int64
}

// NewServer 创建 REP 服务，endpoint 形如 tcp://*:7777
func NewServer(endpoint string, h *Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{endpoint: endpoint, handler: h, logger: logger}
}

// NormalizeEndpoint 将 tcp://*:port 转成可监听的地址
func NormalizeEndpoint(ep string) string {
	if rest, ok := strings.CutPrefix(ep, "tcp://*:"); ok {
		return "tcp://0.0.0.0:" + rest
	}
	return ep
}

// Start 监听并启动处理循环（非阻塞，内部 goroutine）
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewRep(ctx)
	if err := sock.Listen(NormalizeEndpoint(s.endpoint)); err != nil {
		cancel()
		_ = sock.Close()
		return fmt.Errorf("listen %s: %w", s.endpoint, err)
	}
	s.sock, s.cancel = sock, cancel
	s.serving.Store(true)
	s.logger.Info("controller listening", zap.String("endpoint", s.endpoint))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.serving.Store(false)
		for {
			msg, err := sock.Recv()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("recv request failed", zap.Error(err))
				// 短暂错误等待后重试
				time.Sleep(50 * time.Millisecond)
				continue
			}
			s.requests.Add(1)
			s.lastRequest.Store(time.Now().UnixNano())

			reply := s.handler.Handle(msg.Frames)
			if err := sock.Send(zmq4.NewMsg(reply)); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("send reply failed", zap.Error(err))
			}
		}
	}()
	return nil
}

// Serve 启动并阻塞到 ctx 结束，随后关闭
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(sctx)
}

// Shutdown 关闭套接字并等待处理循环退出
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sock == nil {
		return nil
	}
	s.cancel()
	if err := s.sock.Close(); err != nil {
		s.logger.Debug("close rep socket", zap.Error(err))
	}

	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}

// Serving 处理循环是否在运行
func (s *Server) Serving() bool { return s.serving.Load() }

// Requests 已接收请求数
func (s *Server) Requests() uint64 { return s.requests.Load() }

// LastRequest 最近一次请求时间，未收到过请求时为零值
func (s *Server) LastRequest() time.Time {
	ns := s.lastRequest.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Endpoint 监听端点
func (s *Server) Endpoint() string { return s.endpoint }

package zmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-zeromq/zmq4"
	"go.uber.org/zap"

	"github.com/taoyao-code/molecube/internal/protocol/molecube"
)

var (
	// ErrBusy 上一次交换尚未完成（REQ 套接字要求严格的发送/接收交替）
	ErrBusy = fmt.Errorf("%w: exchange already in progress", molecube.ErrTransport)
	// ErrClosed 客户端已关闭或因超时失效
	ErrClosed = fmt.Errorf("%w: client closed", molecube.ErrTransport)
)

// Config REQ 客户端配置
type Config struct {
	// Timeout 单次交换（发送+等待应答）的上限，0 表示只受 ctx 约束
	Timeout time.Duration
	// DialTimeout 建立连接的上限
	DialTimeout time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Timeout:     5 * time.Second,
		DialTimeout: 3 * time.Second,
	}
}

// Client ZeroMQ REQ 客户端，一次只允许一个未完成的请求
type Client struct {
	endpoint string
	cfg      Config
	logger   *zap.Logger

	sock   zmq4.Socket
	cancel context.CancelFunc

	busy      atomic.Bool
	closeOnce sync.Once
	closed    atomic.Bool
}

// Dial 连接控制器端点，例如 tcp://192.168.1.10:7777
func Dial(ctx context.Context, endpoint string, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// DialTimeout 限定整个连接过程（含 zmq4 内部重试），不只是单次尝试
	if cfg.DialTimeout > 0 {
		var dcancel context.CancelFunc
		ctx, dcancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer dcancel()
	}
	sctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewReq(sctx, zmq4.WithDialerTimeout(cfg.DialTimeout))

	errCh := make(chan error, 1)
	go func() { errCh <- sock.Dial(endpoint) }()

	select {
	case err := <-errCh:
		if err != nil {
			cancel()
			_ = sock.Close()
			return nil, fmt.Errorf("%w: dial %s: %v", molecube.ErrTransport, endpoint, err)
		}
	case <-ctx.Done():
		cancel()
		_ = sock.Close()
		return nil, fmt.Errorf("%w: dial %s: %v", molecube.ErrTransport, endpoint, ctx.Err())
	}

	logger.Debug("zmq req connected", zap.String("endpoint", endpoint))
	return &Client{
		endpoint: endpoint,
		cfg:      cfg,
		logger:   logger,
		sock:     sock,
		cancel:   cancel,
	}, nil
}

// Endpoint 返回连接端点
func (c *Client) Endpoint() string { return c.endpoint }

// Exchange 发送一个多帧请求并阻塞等待一帧应答
// 超时或 ctx 取消后套接字不再可用（REQ 状态机无法恢复），客户端随之关闭
func (c *Client) Exchange(ctx context.Context, frames [][]byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	type result struct {
		reply []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		if err := c.sock.SendMulti(zmq4.NewMsgFrom(frames...)); err != nil {
			done <- result{err: fmt.Errorf("%w: send: %v", molecube.ErrTransport, err)}
			return
		}
		msg, err := c.sock.Recv()
		if err != nil {
			done <- result{err: fmt.Errorf("%w: recv: %v", molecube.ErrTransport, err)}
			return
		}
		if len(msg.Frames) != 1 {
			done <- result{err: fmt.Errorf("%w: expected 1 reply frame, got %d", molecube.ErrTransport, len(msg.Frames))}
			return
		}
		done <- result{reply: msg.Frames[0]}
	}()

	select {
	case r := <-done:
		return r.reply, r.err
	case <-ctx.Done():
		c.logger.Warn("exchange aborted, closing socket",
			zap.String("endpoint", c.endpoint), zap.Error(ctx.Err()))
		_ = c.Close()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: no reply from %s within deadline", molecube.ErrTransport, c.endpoint)
		}
		return nil, fmt.Errorf("%w: %v", molecube.ErrTransport, ctx.Err())
	}
}

// Close 释放套接字，可重复调用
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		err = c.sock.Close()
	})
	return err
}

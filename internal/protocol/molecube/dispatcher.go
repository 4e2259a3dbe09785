package molecube

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/molecube/internal/metrics"
)

// Transport 请求/应答传输：发送一或两帧，阻塞等待恰好一帧应答
type Transport interface {
	Exchange(ctx context.Context, frames [][]byte) ([]byte, error)
}

// Dispatcher 命令调度器：参数构造 -> 一次交换 -> 应答解码，不重试
type Dispatcher struct {
	transport Transport
	logger    *zap.Logger
	metrics   *metrics.ClientMetrics
	readFile  FileReader
}

// Option 调度器选项
type Option func(*Dispatcher)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics 设置客户端指标，供长期运行的调用方使用（命令行不注册）
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithFileReader 替换 set_startup 的脚本读取方式
func WithFileReader(fn FileReader) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.readFile = fn
		}
	}
}

// NewDispatcher 创建调度器
func NewDispatcher(t Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: t,
		logger:    zap.NewNop(),
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch 按命令字与参数执行一次命令；未知命令不会发送任何请求
func (d *Dispatcher) Dispatch(ctx context.Context, token string, args []string) (Result, error) {
	cmd, err := ParseCommand(token)
	if err != nil {
		return nil, err
	}
	req, err := BuildRequest(cmd, args, d.readFile)
	if err != nil {
		d.observe(cmd, "encode_error", 0)
		return nil, err
	}
	return d.Execute(ctx, req)
}

// Execute 发送已构造的请求并解码应答
func (d *Dispatcher) Execute(ctx context.Context, req Request) (Result, error) {
	if !req.Command.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, uint8(req.Command))
	}
	if d.transport == nil {
		return nil, fmt.Errorf("%w: no transport", ErrTransport)
	}

	log := d.logger.With(
		zap.String("exchange_id", uuid.NewString()),
		zap.String("cmd", req.Command.String()),
	)
	log.Debug("send request", zap.Int("frames", len(req.Frames())), zap.Int("payload_len", len(req.Payload)))

	start := time.Now()
	reply, err := d.transport.Exchange(ctx, req.Frames())
	elapsed := time.Since(start)
	if err != nil {
		log.Warn("exchange failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		d.observe(req.Command, "transport_error", elapsed)
		return nil, err
	}
	if d.metrics != nil {
		d.metrics.ReplyBytes.Add(float64(len(reply)))
	}

	res, err := Decode(req, reply)
	if err != nil {
		log.Warn("decode reply failed", zap.Error(err), zap.Int("reply_len", len(reply)))
		d.observe(req.Command, "decode_error", elapsed)
		return nil, err
	}
	log.Debug("reply decoded", zap.Int("reply_len", len(reply)), zap.Duration("elapsed", elapsed))
	d.observe(req.Command, "ok", elapsed)
	return res, nil
}

func (d *Dispatcher) observe(cmd Command, result string, elapsed time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.ExchangeTotal.WithLabelValues(cmd.String(), result).Inc()
	if elapsed > 0 {
		d.metrics.ExchangeDuration.WithLabelValues(cmd.String()).Observe(elapsed.Seconds())
	}
}

package controller

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/taoyao-code/molecube/internal/metrics"
	"github.com/taoyao-code/molecube/internal/protocol/molecube"
)

// Config 模拟控制器配置
type Config struct {
	RuntimeDir string
	NumTTL     int
	NumDDS     int
	// ServerID 进程标识（启动时间毫秒数），用于 state_id 与 cancel_seq
	ServerID uint64
}

// handleFunc 处理一条请求；ok=false 时回复校验失败
type handleFunc func(h *Handler, payload []byte, hasPayload bool) (reply []byte, ok bool)

// Handler 请求处理状态机，一条请求对应一条应答
type Handler struct {
	mu       sync.Mutex
	state    *State
	ttlNames *NameTable
	ddsNames *NameTable
	startup  *StartupStore
	serverID uint64

	logger  *zap.Logger
	metrics *metrics.ControllerMetrics
}

// Option 处理器可选项
type Option func(*Handler)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics 设置控制器指标
func WithMetrics(m *metrics.ControllerMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler 准备运行目录并加载名表
func NewHandler(cfg Config, opts ...Option) (*Handler, error) {
	if cfg.NumDDS <= 0 || cfg.NumDDS > molecube.MaxChannelIndex+1 {
		return nil, fmt.Errorf("numDDS out of range: %d", cfg.NumDDS)
	}
	if cfg.NumTTL <= 0 || cfg.NumTTL > 256 {
		return nil, fmt.Errorf("numTTL out of range: %d", cfg.NumTTL)
	}
	if err := EnsureRuntimeDir(cfg.RuntimeDir); err != nil {
		return nil, err
	}

	h := &Handler{
		state:    NewState(cfg.NumDDS),
		startup:  NewStartupStore(cfg.RuntimeDir),
		serverID: cfg.ServerID,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	var err error
	if h.ttlNames, err = LoadNameTable(filepath.Join(cfg.RuntimeDir, "ttl.yaml"), cfg.NumTTL); err != nil {
		return nil, err
	}
	if h.ddsNames, err = LoadNameTable(filepath.Join(cfg.RuntimeDir, "dds.yaml"), cfg.NumDDS); err != nil {
		return nil, err
	}
	return h, nil
}

// ServerID 返回进程标识
func (h *Handler) ServerID() uint64 { return h.serverID }

// Handle 处理一条多帧请求并返回应答帧
func (h *Handler) Handle(frames [][]byte) []byte {
	if len(frames) == 0 {
		return h.reject("", 0)
	}
	cmd, err := molecube.ParseCommand(string(frames[0]))
	if err != nil {
		h.logger.Warn("unknown command", zap.ByteString("cmd", frames[0]))
		return h.reject("unknown", 0)
	}

	var payload []byte
	hasPayload := len(frames) > 1
	if hasPayload {
		payload = frames[1]
	}

	h.mu.Lock()
	reply, ok := handlers[cmd](h, payload, hasPayload)
	ttlOvr, ddsOvr := h.state.HasTTLOverride(), h.state.HasDDSOverride()
	h.mu.Unlock()

	if !ok {
		h.logger.Warn("request validation failed",
			zap.String("cmd", cmd.String()), zap.Int("payload_len", len(payload)))
		return h.reject(cmd.String(), len(payload))
	}

	if h.metrics != nil {
		h.metrics.RequestTotal.WithLabelValues(cmd.String(), "ok").Inc()
		h.metrics.RequestBytes.Add(float64(len(payload)))
		h.metrics.OverrideGauge.WithLabelValues("ttl").Set(boolGauge(ttlOvr))
		h.metrics.OverrideGauge.WithLabelValues("dds").Set(boolGauge(ddsOvr))
	}
	return reply
}

// Exchange 进程内直接处理请求，满足 molecube.Transport
func (h *Handler) Exchange(ctx context.Context, frames [][]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", molecube.ErrTransport, err)
	}
	return h.Handle(frames), nil
}

func (h *Handler) reject(cmd string, n int) []byte {
	if h.metrics != nil {
		if cmd == "" {
			cmd = "unknown"
		}
		h.metrics.RequestTotal.WithLabelValues(cmd, "rejected").Inc()
		h.metrics.RequestBytes.Add(float64(n))
	}
	return []byte{1}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// handlers 命令处理表，与 molecube 命令集一一对应
var handlers = [...]handleFunc{
	molecube.CmdSetStartup:     handleSetStartup,
	molecube.CmdGetStartup:     handleGetStartup,
	molecube.CmdSetTTLNames:    handleSetNames(func(h *Handler) *NameTable { return h.ttlNames }),
	molecube.CmdGetTTLNames:    handleGetNames(func(h *Handler) *NameTable { return h.ttlNames }),
	molecube.CmdSetDDSNames:    handleSetNames(func(h *Handler) *NameTable { return h.ddsNames }),
	molecube.CmdGetDDSNames:    handleGetNames(func(h *Handler) *NameTable { return h.ddsNames }),
	molecube.CmdOverrideTTL:    handleOverrideTTL,
	molecube.CmdSetTTL:         handleSetTTL,
	molecube.CmdSetClock:       handleSetClock,
	molecube.CmdGetClock:       handleGetClock,
	molecube.CmdOverrideDDS:    handleWriteDDS(true),
	molecube.CmdGetOverrideDDS: handleGetOverrideDDS,
	molecube.CmdSetDDS:         handleWriteDDS(false),
	molecube.CmdGetDDS:         handleGetDDS,
	molecube.CmdResetDDS:       handleResetDDS,
	molecube.CmdStateID:        handleStateID,
	molecube.CmdCancelSeq:      handleCancelSeq,
}

func handleSetStartup(h *Handler, p []byte, has bool) ([]byte, bool) {
	if !has || len(p) < 1 {
		return nil, false
	}
	n := bytes.IndexByte(p, 0)
	if n < 0 {
		h.logger.Error("startup script not NUL terminated")
		return nil, false
	}
	if err := h.startup.Save(p[:n]); err != nil {
		h.logger.Error("cannot save startup file", zap.Error(err))
		return nil, false
	}
	h.logger.Info("startup script saved", zap.Int("bytes", n))
	return []byte{0}, true
}

func handleGetStartup(h *Handler, _ []byte, _ bool) ([]byte, bool) {
	script, err := h.startup.Load()
	if err != nil {
		h.logger.Warn("read startup file failed", zap.Error(err))
	}
	return append(script, 0), true
}

func handleSetNames(table func(*Handler) *NameTable) handleFunc {
	return func(h *Handler, p []byte, has bool) ([]byte, bool) {
		if !has {
			return nil, false
		}
		t := table(h)
		applied, stopped := t.Apply(p)
		if stopped {
			h.logger.Warn("name not NUL terminated")
		}
		if applied == 0 {
			return nil, false
		}
		if err := t.Save(); err != nil {
			h.logger.Error("save names failed", zap.Error(err))
		}
		h.logger.Info("names updated", zap.Int("count", applied))
		return []byte{0}, true
	}
}

func handleGetNames(table func(*Handler) *NameTable) handleFunc {
	return func(h *Handler, _ []byte, _ bool) ([]byte, bool) {
		data, err := molecube.EncodeNameEntries(table(h).Entries())
		if err != nil {
			h.logger.Error("encode names failed", zap.Error(err))
			return nil, false
		}
		return data, true
	}
}

func handleOverrideTTL(h *Handler, p []byte, has bool) ([]byte, bool) {
	if !has || len(p) != 12 {
		return nil, false
	}
	lo := binary.LittleEndian.Uint32(p[0:4])
	hi := binary.LittleEndian.Uint32(p[4:8])
	normal := binary.LittleEndian.Uint32(p[8:12])
	if lo|hi|normal != 0 {
		h.logger.Info("override ttl",
			zap.Uint32("lo", lo), zap.Uint32("hi", hi), zap.Uint32("normal", normal))
	}
	curLo, curHi := h.state.OverrideTTL(lo, hi, normal)
	reply := binary.LittleEndian.AppendUint32(make([]byte, 0, 8), curLo)
	return binary.LittleEndian.AppendUint32(reply, curHi), true
}

func handleSetTTL(h *Handler, p []byte, has bool) ([]byte, bool) {
	if !has || len(p) != 8 {
		return nil, false
	}
	lo := binary.LittleEndian.Uint32(p[0:4])
	hi := binary.LittleEndian.Uint32(p[4:8])
	if lo|hi != 0 {
		h.logger.Info("set ttl", zap.Uint32("lo", lo), zap.Uint32("hi", hi))
	}
	return binary.LittleEndian.AppendUint32(nil, h.state.SetTTL(lo, hi)), true
}

func handleSetClock(h *Handler, p []byte, has bool) ([]byte, bool) {
	if !has || len(p) != 1 {
		return nil, false
	}
	h.logger.Info("set clock", zap.Uint8("clock", p[0]))
	h.state.SetClock(p[0])
	return []byte{0}, true
}

func handleGetClock(h *Handler, _ []byte, _ bool) ([]byte, bool) {
	return []byte{h.state.Clock()}, true
}

// handleWriteDDS override_dds / set_dds：先整体校验再写入
func handleWriteDDS(override bool) handleFunc {
	return func(h *Handler, p []byte, has bool) ([]byte, bool) {
		if !has || len(p)%molecube.DDSEntrySize != 0 {
			return nil, false
		}
		for off := 0; off < len(p); off += molecube.DDSEntrySize {
			if !h.state.ValidChannel(p[off]) {
				return nil, false
			}
			if !override && binary.LittleEndian.Uint32(p[off+1:off+5]) == noOverride {
				return nil, false
			}
		}
		entries, err := molecube.DecodeDDSEntries(p)
		if err != nil {
			return nil, false
		}
		for _, e := range entries {
			if override {
				h.state.SetDDSOverride(e.Channel, e.Value)
			} else {
				h.state.SetDDS(e.Channel, e.Value)
			}
		}
		h.logger.Info("dds updated", zap.Bool("override", override), zap.Int("count", len(entries)))
		return []byte{0}, true
	}
}

func handleGetOverrideDDS(h *Handler, _ []byte, _ bool) ([]byte, bool) {
	var entries []molecube.DDSEntry
	for i := 0; i < h.state.NumDDS(); i++ {
		for _, kind := range molecube.Kinds() {
			ref := molecube.ChannelRef{Kind: kind, Index: uint8(i)}
			if v, ok := h.state.DDSOverride(ref); ok {
				entries = append(entries, molecube.DDSEntry{Channel: ref, Value: v})
			}
		}
	}
	return encodeEntries(h, entries)
}

func handleGetDDS(h *Handler, p []byte, has bool) ([]byte, bool) {
	var entries []molecube.DDSEntry
	if has {
		for _, b := range p {
			if !h.state.ValidChannel(b) {
				return nil, false
			}
		}
		entries = make([]molecube.DDSEntry, 0, len(p))
		for _, b := range p {
			ref, _ := molecube.DecodeChannel(b)
			entries = append(entries, molecube.DDSEntry{Channel: ref, Value: h.state.DDS(ref)})
		}
		return encodeEntries(h, entries)
	}

	entries = make([]molecube.DDSEntry, 0, 3*h.state.NumDDS())
	for i := 0; i < h.state.NumDDS(); i++ {
		for _, kind := range molecube.Kinds() {
			ref := molecube.ChannelRef{Kind: kind, Index: uint8(i)}
			entries = append(entries, molecube.DDSEntry{Channel: ref, Value: h.state.DDS(ref)})
		}
	}
	return encodeEntries(h, entries)
}

func encodeEntries(h *Handler, entries []molecube.DDSEntry) ([]byte, bool) {
	data, err := molecube.EncodeDDSEntries(entries)
	if err != nil {
		h.logger.Error("encode dds failed", zap.Error(err))
		return nil, false
	}
	return data, true
}

func handleResetDDS(h *Handler, p []byte, has bool) ([]byte, bool) {
	if !has || len(p) != 1 || int(p[0]) >= h.state.NumDDS() {
		return nil, false
	}
	h.logger.Info("reset dds", zap.Uint8("channel", p[0]))
	h.state.ResetDDS(int(p[0]))
	return []byte{0}, true
}

func handleStateID(h *Handler, _ []byte, _ bool) ([]byte, bool) {
	reply := binary.LittleEndian.AppendUint64(make([]byte, 0, 16), h.state.StateID())
	return binary.LittleEndian.AppendUint64(reply, h.serverID), true
}

// handleCancelSeq 模拟控制器不执行序列，没有可取消的序列，应答 1
func handleCancelSeq(h *Handler, p []byte, has bool) ([]byte, bool) {
	if !has {
		h.logger.Info("cancel all sequences")
		return []byte{1}, true
	}
	if len(p) != 16 {
		return nil, false
	}
	seq := binary.LittleEndian.Uint64(p[0:8])
	server := binary.LittleEndian.Uint64(p[8:16])
	if server != h.serverID || seq == 0 {
		return nil, false
	}
	h.logger.Info("cancel sequence", zap.Uint64("seq", seq))
	return []byte{1}, true
}

// Snapshot 控制器状态快照（HTTP 查询用）
type Snapshot struct {
	ServerID   uint64               `json:"server_id"`
	StateID    uint64               `json:"state_id"`
	TTL        uint32               `json:"ttl"`
	OverrideLo uint32               `json:"override_lo"`
	OverrideHi uint32               `json:"override_hi"`
	Clock      uint8                `json:"clock"`
	DDS        []DDSValue           `json:"dds"`
	TTLNames   []molecube.NameEntry `json:"ttl_names"`
	DDSNames   []molecube.NameEntry `json:"dds_names"`
}

// DDSValue 单个 DDS 通道的当前值，Override 为空表示未覆盖
type DDSValue struct {
	Channel  string  `json:"channel"`
	Value    uint32  `json:"value"`
	Override *uint32 `json:"override,omitempty"`
}

// Snapshot 返回当前状态副本
func (h *Handler) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Snapshot{
		ServerID:   h.serverID,
		StateID:    h.state.StateID(),
		TTL:        h.state.TTL(),
		OverrideLo: h.state.ovrLo,
		OverrideHi: h.state.ovrHi,
		Clock:      h.state.Clock(),
		DDS:        make([]DDSValue, 0, 3*h.state.NumDDS()),
		TTLNames:   h.ttlNames.Entries(),
		DDSNames:   h.ddsNames.Entries(),
	}
	for i := 0; i < h.state.NumDDS(); i++ {
		for _, kind := range molecube.Kinds() {
			ref := molecube.ChannelRef{Kind: kind, Index: uint8(i)}
			v := DDSValue{Channel: ref.String(), Value: h.state.dds[i].value[kind]}
			if ov, ok := h.state.DDSOverride(ref); ok {
				v.Override = &ov
			}
			s.DDS = append(s.DDS, v)
		}
	}
	return s
}

package molecube

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/molecube/internal/metrics"
)

// mockTransport 记录请求帧并返回预设应答
type mockTransport struct {
	reply  []byte
	err    error
	calls  int
	frames [][]byte
}

func (m *mockTransport) Exchange(_ context.Context, frames [][]byte) ([]byte, error) {
	m.calls++
	m.frames = frames
	return m.reply, m.err
}

func TestDispatcher_UnknownCommandSendsNothing(t *testing.T) {
	tr := &mockTransport{}
	d := NewDispatcher(tr)

	_, err := d.Dispatch(context.Background(), "set_everything", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Zero(t, tr.calls)
}

func TestDispatcher_InvalidArgumentSendsNothing(t *testing.T) {
	tr := &mockTransport{}
	d := NewDispatcher(tr)

	_, err := d.Dispatch(context.Background(), "set_ttl_names", []string{"1", "a", "2"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, tr.calls)
}

func TestDispatcher_OverrideTTL(t *testing.T) {
	tr := &mockTransport{reply: []byte{4, 0, 0, 0, 5, 0, 0, 0}}
	reg := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(reg)
	d := NewDispatcher(tr, WithLogger(zap.NewNop()), WithMetrics(m))

	res, err := d.Dispatch(context.Background(), "override_ttl", []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, OverrideTTLReply{Lo: 4, Hi: 5}, res)

	require.Equal(t, 1, tr.calls)
	require.Len(t, tr.frames, 2)
	assert.Equal(t, "override_ttl", string(tr.frames[0]))
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}, tr.frames[1])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExchangeTotal.WithLabelValues("override_ttl", "ok")))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.ReplyBytes))
}

func TestDispatcher_TransportError(t *testing.T) {
	tr := &mockTransport{err: fmt.Errorf("%w: connection refused", ErrTransport)}
	reg := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(reg)
	d := NewDispatcher(tr, WithMetrics(m))

	_, err := d.Dispatch(context.Background(), "get_clock", nil)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExchangeTotal.WithLabelValues("get_clock", "transport_error")))
}

func TestDispatcher_MalformedReply(t *testing.T) {
	tr := &mockTransport{reply: make([]byte, 7)}
	d := NewDispatcher(tr)

	_, err := d.Dispatch(context.Background(), "get_override_dds", nil)
	assert.ErrorIs(t, err, ErrMalformedReply)
	assert.Equal(t, 1, tr.calls)
}

func TestDispatcher_SetStartupUsesFileReader(t *testing.T) {
	tr := &mockTransport{reply: []byte{0}}
	d := NewDispatcher(tr, WithFileReader(func(path string) ([]byte, error) {
		if path != "boot.cmd" {
			return nil, errors.New("unexpected path")
		}
		return []byte("ttl = 0"), nil
	}))

	res, err := d.Dispatch(context.Background(), "set_startup", []string{"boot.cmd"})
	require.NoError(t, err)
	assert.True(t, res.(AckReply).OK())
	assert.Equal(t, []byte("ttl = 0\x00"), tr.frames[1])
}

func TestDispatcher_NoTransport(t *testing.T) {
	d := NewDispatcher(nil)
	_, err := d.Execute(context.Background(), EncodeGetClock())
	assert.ErrorIs(t, err, ErrTransport)
}

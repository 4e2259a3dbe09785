package molecube

import "fmt"

// Request 一次请求：命令字帧 + 可选载荷帧
// channels 记录 get_dds 显式查询的通道数，用于校验应答长度
type Request struct {
	Command Command
	Payload []byte
	// HasPayload 区分“无第二帧”与“空第二帧”（例如 override_dds 不带参数）
	HasPayload bool

	channels int
}

// Frames 返回线上帧序列
func (r Request) Frames() [][]byte {
	frames := [][]byte{[]byte(r.Command.String())}
	if r.HasPayload {
		frames = append(frames, r.Payload)
	}
	return frames
}

// Channels get_dds 显式查询的通道数；0 表示全量查询
func (r Request) Channels() int {
	return r.channels
}

func newRequest(cmd Command) Request {
	return Request{Command: cmd}
}

func newPayloadRequest(cmd Command, payload []byte) Request {
	if payload == nil {
		payload = []byte{}
	}
	return Request{Command: cmd, Payload: payload, HasPayload: true}
}

// EncodeSetStartup set_startup：脚本内容 + 0x00
func EncodeSetStartup(script []byte) Request {
	payload := make([]byte, 0, len(script)+1)
	payload = append(payload, script...)
	payload = append(payload, 0x00)
	return newPayloadRequest(CmdSetStartup, payload)
}

// EncodeGetStartup get_startup
func EncodeGetStartup() Request {
	return newRequest(CmdGetStartup)
}

// EncodeSetTTLNames set_ttl_names
func EncodeSetTTLNames(entries []NameEntry) (Request, error) {
	return encodeSetNames(CmdSetTTLNames, entries)
}

// EncodeSetDDSNames set_dds_names
func EncodeSetDDSNames(entries []NameEntry) (Request, error) {
	return encodeSetNames(CmdSetDDSNames, entries)
}

func encodeSetNames(cmd Command, entries []NameEntry) (Request, error) {
	payload, err := EncodeNameEntries(entries)
	if err != nil {
		return Request{}, err
	}
	return newPayloadRequest(cmd, payload), nil
}

// EncodeGetTTLNames get_ttl_names
func EncodeGetTTLNames() Request {
	return newRequest(CmdGetTTLNames)
}

// EncodeGetDDSNames get_dds_names
func EncodeGetDDSNames() Request {
	return newRequest(CmdGetDDSNames)
}

// EncodeOverrideTTL override_ttl：lo/hi/normal 共12字节
func EncodeOverrideTTL(r OverrideTTLRequest) Request {
	return newPayloadRequest(CmdOverrideTTL, encodeOverrideTTL(r))
}

// EncodeSetTTL set_ttl：lo/hi 共8字节
func EncodeSetTTL(r SetTTLRequest) Request {
	return newPayloadRequest(CmdSetTTL, encodeSetTTL(r))
}

// EncodeSetClock set_clock
func EncodeSetClock(clock uint8) Request {
	return newPayloadRequest(CmdSetClock, []byte{clock})
}

// EncodeGetClock get_clock
func EncodeGetClock() Request {
	return newRequest(CmdGetClock)
}

// EncodeOverrideDDS override_dds
func EncodeOverrideDDS(entries []DDSEntry) (Request, error) {
	return encodeDDS(CmdOverrideDDS, entries)
}

// EncodeSetDDS set_dds
func EncodeSetDDS(entries []DDSEntry) (Request, error) {
	return encodeDDS(CmdSetDDS, entries)
}

func encodeDDS(cmd Command, entries []DDSEntry) (Request, error) {
	payload, err := EncodeDDSEntries(entries)
	if err != nil {
		return Request{}, err
	}
	return newPayloadRequest(cmd, payload), nil
}

// EncodeGetOverrideDDS get_override_dds
func EncodeGetOverrideDDS() Request {
	return newRequest(CmdGetOverrideDDS)
}

// EncodeGetDDS get_dds；不带通道时查询所有通道的全部类型
func EncodeGetDDS(channels []ChannelRef) (Request, error) {
	if len(channels) == 0 {
		return newRequest(CmdGetDDS), nil
	}
	payload := make([]byte, 0, len(channels))
	for _, c := range channels {
		b, err := c.Byte()
		if err != nil {
			return Request{}, err
		}
		payload = append(payload, b)
	}
	req := newPayloadRequest(CmdGetDDS, payload)
	req.channels = len(channels)
	return req, nil
}

// EncodeResetDDS reset_dds：单字节参数原样透传，由控制器解释
func EncodeResetDDS(selector uint8) Request {
	return newPayloadRequest(CmdResetDDS, []byte{selector})
}

// EncodeStateID state_id
func EncodeStateID() Request {
	return newRequest(CmdStateID)
}

// EncodeCancelSeq cancel_seq；id 为 nil 时取消全部序列
func EncodeCancelSeq(id *SeqID) Request {
	if id == nil {
		return newRequest(CmdCancelSeq)
	}
	return newPayloadRequest(CmdCancelSeq, encodeSeqID(*id))
}

// String 调试输出
func (r Request) String() string {
	if !r.HasPayload {
		return r.Command.String()
	}
	return fmt.Sprintf("%s[% x]", r.Command, r.Payload)
}

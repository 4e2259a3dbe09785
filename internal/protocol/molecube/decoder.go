package molecube

import (
	"bytes"
	"fmt"
)

// Result 解码后的应答
type Result interface {
	Command() Command
}

// AckReply 确认类应答（set_startup、set_*_names、set_clock、reset_dds、cancel_seq）
type AckReply struct {
	Cmd Command
	Raw []byte
}

func (r AckReply) Command() Command { return r.Cmd }

// OK 控制器返回单字节0表示成功
func (r AckReply) OK() bool {
	return len(r.Raw) == 1 && r.Raw[0] == 0
}

// StartupReply get_startup 应答：启动脚本文本
type StartupReply struct {
	Script string
}

func (StartupReply) Command() Command { return CmdGetStartup }

// NamesReply get_ttl_names / get_dds_names 应答，保留原始字节
type NamesReply struct {
	Cmd Command
	Raw []byte
}

func (r NamesReply) Command() Command { return r.Cmd }

// Entries 按名表格式解析原始字节
func (r NamesReply) Entries() ([]NameEntry, error) {
	return DecodeNameEntries(r.Raw)
}

// OverrideTTLReply override_ttl 应答：当前生效的 lo/hi 覆盖掩码
type OverrideTTLReply struct {
	Lo uint32
	Hi uint32
}

func (OverrideTTLReply) Command() Command { return CmdOverrideTTL }

// SetTTLReply set_ttl 应答：当前TTL值
type SetTTLReply struct {
	Value uint32
}

func (SetTTLReply) Command() Command { return CmdSetTTL }

// ClockReply get_clock 应答
type ClockReply struct {
	Value uint8
}

func (ClockReply) Command() Command { return CmdGetClock }

// DDSReply DDS记录类应答
// Groups 仅在 get_dds 全量查询时有效：通道号个数（每组3条记录）
type DDSReply struct {
	Cmd     Command
	Entries []DDSEntry
	Groups  int
}

func (r DDSReply) Command() Command { return r.Cmd }

// StateIDReply state_id 应答
type StateIDReply struct {
	State  uint64
	Server uint64
}

func (StateIDReply) Command() Command { return CmdStateID }

// Decode 根据请求上下文解码应答；协议不自描述，必须带请求
func Decode(req Request, reply []byte) (Result, error) {
	if !req.Command.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, uint8(req.Command))
	}
	return codecTable[req.Command].decode(req, reply)
}

func malformed(cmd Command, got int, want string) error {
	return fmt.Errorf("%w: %s reply is %d bytes, want %s", ErrMalformedReply, cmd, got, want)
}

func decodeAck(req Request, reply []byte) (Result, error) {
	return AckReply{Cmd: req.Command, Raw: reply}, nil
}

func decodeNames(req Request, reply []byte) (Result, error) {
	return NamesReply{Cmd: req.Command, Raw: reply}, nil
}

func decodeStartup(_ Request, reply []byte) (Result, error) {
	return StartupReply{Script: string(bytes.TrimRight(reply, "\x00"))}, nil
}

func decodeOverrideTTL(req Request, reply []byte) (Result, error) {
	if len(reply) != ttlOverrideSize {
		return nil, malformed(req.Command, len(reply), "8")
	}
	return OverrideTTLReply{Lo: byteOrder.Uint32(reply[0:4]), Hi: byteOrder.Uint32(reply[4:8])}, nil
}

func decodeSetTTL(req Request, reply []byte) (Result, error) {
	if len(reply) != ttlValueSize {
		return nil, malformed(req.Command, len(reply), "4")
	}
	return SetTTLReply{Value: byteOrder.Uint32(reply)}, nil
}

func decodeClock(req Request, reply []byte) (Result, error) {
	if len(reply) != clockSize {
		return nil, malformed(req.Command, len(reply), "1")
	}
	return ClockReply{Value: reply[0]}, nil
}

func decodeDDSList(req Request, reply []byte) (Result, error) {
	if len(reply)%DDSEntrySize != 0 {
		return nil, malformed(req.Command, len(reply), "a multiple of 5")
	}
	entries, err := DecodeDDSEntries(reply)
	if err != nil {
		return nil, err
	}
	return DDSReply{Cmd: req.Command, Entries: entries}, nil
}

// decodeDDSWrite override_dds / set_dds：控制器以单字节状态确认，其余长度按DDS记录校验
func decodeDDSWrite(req Request, reply []byte) (Result, error) {
	if len(reply) == 1 {
		return AckReply{Cmd: req.Command, Raw: reply}, nil
	}
	return decodeDDSList(req, reply)
}

func decodeGetDDS(req Request, reply []byte) (Result, error) {
	if req.channels == 0 {
		if len(reply)%DDSGroupSize != 0 {
			return nil, malformed(req.Command, len(reply), "a multiple of 15")
		}
		entries, err := DecodeDDSEntries(reply)
		if err != nil {
			return nil, err
		}
		return DDSReply{Cmd: req.Command, Entries: entries, Groups: len(reply) / DDSGroupSize}, nil
	}
	if want := req.channels * DDSEntrySize; len(reply) != want {
		return nil, malformed(req.Command, len(reply), fmt.Sprint(want))
	}
	entries, err := DecodeDDSEntries(reply)
	if err != nil {
		return nil, err
	}
	return DDSReply{Cmd: req.Command, Entries: entries}, nil
}

func decodeStateID(req Request, reply []byte) (Result, error) {
	if len(reply) != stateIDSize {
		return nil, malformed(req.Command, len(reply), "16")
	}
	return StateIDReply{State: byteOrder.Uint64(reply[0:8]), Server: byteOrder.Uint64(reply[8:16])}, nil
}

package molecube

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// 协议统一字节序：小端（所有多字节整数）
var byteOrder = binary.LittleEndian

const (
	// DDSEntrySize 单条DDS记录长度：通道(1) + 值(4)
	DDSEntrySize = 1 + 4
	// DDSGroupSize get_dds 全量查询时每个通道号的记录组长度（频率/幅度/相位各一条）
	DDSGroupSize = 3 * DDSEntrySize

	overrideTTLSize = 3 * 4
	setTTLSize      = 2 * 4
	ttlOverrideSize = 2 * 4
	ttlValueSize    = 4
	clockSize       = 1
	stateIDSize     = 2 * 8
	seqIDSize       = 2 * 8

	nameTerminator = 0x00
)

// DDSEntry DDS通道值记录
type DDSEntry struct {
	Channel ChannelRef
	Value   uint32
}

// String 显示格式：freq(2) = 0x00000010
func (e DDSEntry) String() string {
	return fmt.Sprintf("%s = %#010x", e.Channel, e.Value)
}

// NameEntry 通道名表项（TTL线或DDS通道）
type NameEntry struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// OverrideTTLRequest override_ttl 请求：三个32位掩码
type OverrideTTLRequest struct {
	Lo     uint32
	Hi     uint32
	Normal uint32
}

// SetTTLRequest set_ttl 请求
type SetTTLRequest struct {
	Lo uint32
	Hi uint32
}

// SeqID 序列标识：序列号 + 服务器实例ID
type SeqID struct {
	Seq    uint64
	Server uint64
}

// EncodeDDSEntries 编码DDS记录序列，每条5字节
func EncodeDDSEntries(entries []DDSEntry) ([]byte, error) {
	buf := make([]byte, 0, len(entries)*DDSEntrySize)
	for _, e := range entries {
		chn, err := e.Channel.Byte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, chn)
		buf = byteOrder.AppendUint32(buf, e.Value)
	}
	return buf, nil
}

// DecodeDDSEntries 解码DDS记录序列，长度必须为5的倍数
func DecodeDDSEntries(data []byte) ([]DDSEntry, error) {
	if len(data)%DDSEntrySize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformedReply, len(data), DDSEntrySize)
	}
	entries := make([]DDSEntry, 0, len(data)/DDSEntrySize)
	for off := 0; off < len(data); off += DDSEntrySize {
		chn, err := DecodeChannel(data[off])
		if err != nil {
			return nil, err
		}
		entries = append(entries, DDSEntry{
			Channel: chn,
			Value:   byteOrder.Uint32(data[off+1 : off+DDSEntrySize]),
		})
	}
	return entries, nil
}

// EncodeNameEntries 编码名表：id(1) + name + 0x00
func EncodeNameEntries(entries []NameEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		if bytes.IndexByte([]byte(e.Name), nameTerminator) >= 0 {
			return nil, fmt.Errorf("%w: name for id %d contains NUL", ErrInvalidArgument, e.ID)
		}
		buf.WriteByte(e.ID)
		buf.WriteString(e.Name)
		buf.WriteByte(nameTerminator)
	}
	return buf.Bytes(), nil
}

// DecodeNameEntries 解析名表；末项缺少结束符时报 ErrMalformedReply
func DecodeNameEntries(data []byte) ([]NameEntry, error) {
	var entries []NameEntry
	for len(data) > 0 {
		if len(data) < 2 {
			return nil, fmt.Errorf("%w: truncated name entry", ErrMalformedReply)
		}
		id := data[0]
		rest := data[1:]
		n := bytes.IndexByte(rest, nameTerminator)
		if n < 0 {
			return nil, fmt.Errorf("%w: name for id %d not NUL terminated", ErrMalformedReply, id)
		}
		entries = append(entries, NameEntry{ID: id, Name: string(rest[:n])})
		data = rest[n+1:]
	}
	return entries, nil
}

func encodeOverrideTTL(r OverrideTTLRequest) []byte {
	buf := make([]byte, 0, overrideTTLSize)
	buf = byteOrder.AppendUint32(buf, r.Lo)
	buf = byteOrder.AppendUint32(buf, r.Hi)
	return byteOrder.AppendUint32(buf, r.Normal)
}

func encodeSetTTL(r SetTTLRequest) []byte {
	buf := make([]byte, 0, setTTLSize)
	buf = byteOrder.AppendUint32(buf, r.Lo)
	return byteOrder.AppendUint32(buf, r.Hi)
}

func encodeSeqID(id SeqID) []byte {
	buf := make([]byte, 0, seqIDSize)
	buf = byteOrder.AppendUint64(buf, id.Seq)
	return byteOrder.AppendUint64(buf, id.Server)
}

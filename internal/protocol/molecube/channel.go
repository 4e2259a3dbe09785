package molecube

import (
	"fmt"
	"strconv"
	"strings"
)

// ChannelKind DDS通道类型，占通道字节高2位
type ChannelKind uint8

const (
	KindFreq  ChannelKind = 0 // 频率
	KindAmp   ChannelKind = 1 // 幅度
	KindPhase ChannelKind = 2 // 相位
)

const (
	channelKindShift = 6
	channelIndexMask = 0x3F

	// MaxChannelIndex 通道号最大值（6位）
	MaxChannelIndex = channelIndexMask
)

var kindPrefixes = [...]string{
	KindFreq:  "freq",
	KindAmp:   "amp",
	KindPhase: "phase",
}

// Kinds 返回全部合法通道类型（按线上编码顺序）
func Kinds() []ChannelKind {
	return []ChannelKind{KindFreq, KindAmp, KindPhase}
}

// Valid 是否为合法类型
func (k ChannelKind) Valid() bool {
	return int(k) < len(kindPrefixes)
}

func (k ChannelKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindPrefixes[k]
}

// ChannelRef DDS通道引用：类型 + 通道号
type ChannelRef struct {
	Kind  ChannelKind
	Index uint8
}

// String 显示格式，例如 freq(2)
func (c ChannelRef) String() string {
	return fmt.Sprintf("%s(%d)", c.Kind, c.Index)
}

// Byte 编码为单字节
func (c ChannelRef) Byte() (byte, error) {
	return EncodeChannel(c.Kind, int(c.Index))
}

// EncodeChannel 编码通道：kind<<6 | index
func EncodeChannel(kind ChannelKind, index int) (byte, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: kind %d", ErrInvalidChannelName, uint8(kind))
	}
	if index < 0 || index > MaxChannelIndex {
		return 0, fmt.Errorf("%w: %s index %d out of range [0, %d]",
			ErrInvalidChannelName, kind, index, MaxChannelIndex)
	}
	return byte(kind)<<channelKindShift | byte(index)&channelIndexMask, nil
}

// DecodeChannel 解码通道字节，类型位为3时报错
func DecodeChannel(b byte) (ChannelRef, error) {
	kind := ChannelKind(b >> channelKindShift)
	if !kind.Valid() {
		return ChannelRef{}, fmt.Errorf("%w: %d (byte 0x%02x)", ErrInvalidChannelKind, uint8(kind), b)
	}
	return ChannelRef{Kind: kind, Index: b & channelIndexMask}, nil
}

// ParseChannel 解析命令行通道名，例如 freq3 / amp0 / phase21
func ParseChannel(name string) (ChannelRef, error) {
	for kind, prefix := range kindPrefixes {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		// 前缀后只允许十进制数字，不接受空白与正负号
		digits := name[len(prefix):]
		if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
			return ChannelRef{}, fmt.Errorf("%w: %q", ErrInvalidChannelName, name)
		}
		index, err := strconv.Atoi(digits)
		if err != nil {
			return ChannelRef{}, fmt.Errorf("%w: %q", ErrInvalidChannelName, name)
		}
		if _, err := EncodeChannel(ChannelKind(kind), index); err != nil {
			return ChannelRef{}, err
		}
		return ChannelRef{Kind: ChannelKind(kind), Index: uint8(index)}, nil
	}
	return ChannelRef{}, fmt.Errorf("%w: %q", ErrInvalidChannelName, name)
}

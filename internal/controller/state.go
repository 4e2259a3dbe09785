package controller

import (
	"github.com/taoyao-code/molecube/internal/protocol/molecube"
)

// noOverride 覆盖值为全 1 表示该通道未被覆盖
const noOverride = ^uint32(0)

// ddsChannel 单个 DDS 板状态，按 ChannelKind 下标存放频率/幅度/相位
type ddsChannel struct {
	value    [3]uint32
	override [3]uint32
}

// State 模拟硬件寄存器状态，调用方负责加锁
type State struct {
	ttl   uint32
	ovrLo uint32 // 强制为低的 TTL 位
	ovrHi uint32 // 强制为高的 TTL 位
	clock uint8
	dds   []ddsChannel

	// stateID 每次输出状态变化递增
	stateID uint64
}

// NewState 创建含 numDDS 个 DDS 通道的初始状态
func NewState(numDDS int) *State {
	s := &State{dds: make([]ddsChannel, numDDS)}
	for i := range s.dds {
		s.dds[i].override = [3]uint32{noOverride, noOverride, noOverride}
	}
	return s
}

// NumDDS DDS 通道数
func (s *State) NumDDS() int { return len(s.dds) }

// ValidChannel 通道字节是否指向已存在的 DDS 通道
func (s *State) ValidChannel(b byte) bool {
	ref, err := molecube.DecodeChannel(b)
	return err == nil && int(ref.Index) < len(s.dds)
}

// TTL 当前 TTL 输出：(ttl | hi) &^ lo
func (s *State) TTL() uint32 {
	return (s.ttl | s.ovrHi) &^ s.ovrLo
}

// OverrideTTL 更新 TTL 覆盖掩码：lo 中的位强制为低，hi 中的位强制为高，normal 中的位解除覆盖
func (s *State) OverrideTTL(lo, hi, normal uint32) (uint32, uint32) {
	s.ovrLo = (s.ovrLo | lo) &^ hi
	s.ovrHi = (s.ovrHi | hi) &^ lo
	s.ovrLo &^= normal
	s.ovrHi &^= normal
	if lo|hi|normal != 0 {
		s.stateID++
	}
	return s.ovrLo, s.ovrHi
}

// SetTTL 清除 lo 中的位并置位 hi 中的位，返回回读值
func (s *State) SetTTL(lo, hi uint32) uint32 {
	if lo|hi != 0 {
		s.ttl = (s.ttl &^ lo) | hi
		s.stateID++
	}
	return (s.TTL() &^ lo) | hi
}

// HasTTLOverride 是否存在 TTL 覆盖
func (s *State) HasTTLOverride() bool {
	return s.ovrLo != 0 || s.ovrHi != 0
}

// SetClock 设置时钟分频
func (s *State) SetClock(v uint8) {
	s.clock = v
	s.stateID++
}

// Clock 当前时钟分频
func (s *State) Clock() uint8 { return s.clock }

// SetDDS 写入 DDS 通道值，调用方需先校验通道
func (s *State) SetDDS(ref molecube.ChannelRef, v uint32) {
	s.dds[ref.Index].value[ref.Kind] = maskDDS(ref.Kind, v)
	s.stateID++
}

// SetDDSOverride 写入覆盖值，noOverride 表示解除
func (s *State) SetDDSOverride(ref molecube.ChannelRef, v uint32) {
	if v != noOverride {
		v = maskDDS(ref.Kind, v)
	}
	s.dds[ref.Index].override[ref.Kind] = v
	s.stateID++
}

// DDS 当前通道值，存在覆盖时返回覆盖值
func (s *State) DDS(ref molecube.ChannelRef) uint32 {
	ch := &s.dds[ref.Index]
	if ov := ch.override[ref.Kind]; ov != noOverride {
		return ov
	}
	return ch.value[ref.Kind]
}

// DDSOverride 返回通道覆盖值及是否存在
func (s *State) DDSOverride(ref molecube.ChannelRef) (uint32, bool) {
	v := s.dds[ref.Index].override[ref.Kind]
	return v, v != noOverride
}

// HasDDSOverride 是否存在任一 DDS 覆盖
func (s *State) HasDDSOverride() bool {
	for i := range s.dds {
		for _, ov := range s.dds[i].override {
			if ov != noOverride {
				return true
			}
		}
	}
	return false
}

// ResetDDS 复位一个 DDS 板，三项值清零
func (s *State) ResetDDS(index int) {
	s.dds[index].value = [3]uint32{}
	s.stateID++
}

// StateID 当前状态序号
func (s *State) StateID() uint64 { return s.stateID }

// maskDDS 幅度与相位寄存器为 16 位
func maskDDS(kind molecube.ChannelKind, v uint32) uint32 {
	if kind == molecube.KindFreq {
		return v
	}
	return v & 0xffff
}

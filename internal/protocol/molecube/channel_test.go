package molecube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChannel_RoundTrip 所有类型 × 0..63 编码后解码应还原
func TestChannel_RoundTrip(t *testing.T) {
	for _, kind := range Kinds() {
		for index := 0; index <= MaxChannelIndex; index++ {
			b, err := EncodeChannel(kind, index)
			require.NoError(t, err)

			got, err := DecodeChannel(b)
			require.NoError(t, err)
			assert.Equal(t, ChannelRef{Kind: kind, Index: uint8(index)}, got)
		}
	}
}

func TestDecodeChannel_ReservedKind(t *testing.T) {
	for low := 0; low <= MaxChannelIndex; low++ {
		_, err := DecodeChannel(byte(3<<6 | low))
		assert.ErrorIs(t, err, ErrInvalidChannelKind)
	}
}

func TestEncodeChannel_OutOfRange(t *testing.T) {
	_, err := EncodeChannel(KindFreq, 64)
	assert.ErrorIs(t, err, ErrInvalidChannelName)

	_, err = EncodeChannel(KindAmp, -1)
	assert.ErrorIs(t, err, ErrInvalidChannelName)

	_, err = EncodeChannel(ChannelKind(3), 0)
	assert.ErrorIs(t, err, ErrInvalidChannelName)
}

func TestParseChannel(t *testing.T) {
	cases := []struct {
		in   string
		want ChannelRef
		byte byte
	}{
		{"freq2", ChannelRef{Kind: KindFreq, Index: 2}, 0x02},
		{"amp5", ChannelRef{Kind: KindAmp, Index: 5}, 0x45},
		{"phase21", ChannelRef{Kind: KindPhase, Index: 21}, 0x95},
		{"freq63", ChannelRef{Kind: KindFreq, Index: 63}, 0x3f},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseChannel(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			b, err := got.Byte()
			require.NoError(t, err)
			assert.Equal(t, tc.byte, b)
		})
	}
}

func TestParseChannel_Invalid(t *testing.T) {
	for _, in := range []string{
		"", "ttl1", "freq", "freqx", "amp-1", "phase64", "Freq1",
		"freq 3", "freq+3", "freq\t3", "freq3 ", " freq3", "amp0x1",
	} {
		_, err := ParseChannel(in)
		assert.ErrorIs(t, err, ErrInvalidChannelName, "input %q", in)
	}
}

func TestChannelRef_String(t *testing.T) {
	assert.Equal(t, "freq(2)", ChannelRef{Kind: KindFreq, Index: 2}.String())
	assert.Equal(t, "phase(0)", ChannelRef{Kind: KindPhase}.String())
}

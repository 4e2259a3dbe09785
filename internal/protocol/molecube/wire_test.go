package molecube

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDDSEntries_RoundTrip(t *testing.T) {
	entries := []DDSEntry{
		{Channel: ChannelRef{Kind: KindFreq, Index: 0}, Value: 0x12345678},
		{Channel: ChannelRef{Kind: KindAmp, Index: 21}, Value: 0xfff},
		{Channel: ChannelRef{Kind: KindPhase, Index: 63}, Value: 0},
		{Channel: ChannelRef{Kind: KindFreq, Index: 7}, Value: 0xffffffff},
	}

	data, err := EncodeDDSEntries(entries)
	require.NoError(t, err)
	require.Len(t, data, 5*len(entries))

	got, err := DecodeDDSEntries(data)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestEncodeDDSEntries_LittleEndian(t *testing.T) {
	data, err := EncodeDDSEntries([]DDSEntry{{Channel: ChannelRef{Kind: KindAmp, Index: 1}, Value: 0x01020304}})
	require.NoError(t, err)
	assert.Equal(t, "4104030201", hex.EncodeToString(data))
}

func TestDecodeDDSEntries_Errors(t *testing.T) {
	_, err := DecodeDDSEntries(make([]byte, 7))
	assert.ErrorIs(t, err, ErrMalformedReply)

	// 类型位为3
	_, err = DecodeDDSEntries([]byte{0xc1, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidChannelKind)
}

// TestEncodeNameEntries 名表编码：id + 名字 + 0x00
func TestEncodeNameEntries(t *testing.T) {
	data, err := EncodeNameEntries([]NameEntry{{ID: 3, Name: "ttl3"}, {ID: 7, Name: "laser"}})
	require.NoError(t, err)
	assert.Equal(t, "0374746c3300076c6173657200", hex.EncodeToString(data))

	got, err := DecodeNameEntries(data)
	require.NoError(t, err)
	assert.Equal(t, []NameEntry{{ID: 3, Name: "ttl3"}, {ID: 7, Name: "laser"}}, got)
}

func TestNameEntries_Invalid(t *testing.T) {
	_, err := EncodeNameEntries([]NameEntry{{ID: 1, Name: "a\x00b"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = DecodeNameEntries([]byte{0x01, 'a', 'b'})
	assert.ErrorIs(t, err, ErrMalformedReply)

	entries, err := DecodeNameEntries(nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

package molecube

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestCodecTable_Complete(t *testing.T) {
	for _, cmd := range Commands() {
		c := codecTable[cmd]
		assert.NotNil(t, c.build, "%s has no argument builder", cmd)
		assert.NotNil(t, c.decode, "%s has no decoder", cmd)

		parsed, err := ParseCommand(cmd.String())
		require.NoError(t, err)
		assert.Equal(t, cmd, parsed)
	}
	assert.Len(t, Commands(), 17)
}

func TestParseCommand_Unknown(t *testing.T) {
	_, err := ParseCommand("run_seq")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = BuildRequest(Command(0), nil, nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

// TestOverrideTTL_Scenario override_ttl 1/2/3 编码与应答 4/5 解码
func TestOverrideTTL_Scenario(t *testing.T) {
	req, err := BuildRequest(CmdOverrideTTL, []string{"0x1", "2", "3"}, nil)
	require.NoError(t, err)

	frames := req.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, "override_ttl", string(frames[0]))
	assert.Equal(t, "010000000200000003000000", hex.EncodeToString(frames[1]))

	res, err := Decode(req, mustHex(t, "0400000005000000"))
	require.NoError(t, err)
	assert.Equal(t, OverrideTTLReply{Lo: 4, Hi: 5}, res)
}

// TestGetDDS_ExplicitChannels get_dds freq2 amp5
func TestGetDDS_ExplicitChannels(t *testing.T) {
	req, err := BuildRequest(CmdGetDDS, []string{"freq2", "amp5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, req.Channels())

	frames := req.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, []byte{0x02, 0x45}, frames[1])

	res, err := Decode(req, mustHex(t, "020a000000"+"4564000000"))
	require.NoError(t, err)
	dds := res.(DDSReply)
	require.Len(t, dds.Entries, 2)
	assert.Equal(t, DDSEntry{Channel: ChannelRef{Kind: KindFreq, Index: 2}, Value: 10}, dds.Entries[0])
	assert.Equal(t, DDSEntry{Channel: ChannelRef{Kind: KindAmp, Index: 5}, Value: 100}, dds.Entries[1])

	_, err = Decode(req, make([]byte, 15))
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestGetDDS_AllGrouping(t *testing.T) {
	req, err := BuildRequest(CmdGetDDS, nil, nil)
	require.NoError(t, err)
	require.Len(t, req.Frames(), 1)

	group := func(index byte) []byte {
		return []byte{
			0x00 | index, 1, 0, 0, 0,
			0x40 | index, 2, 0, 0, 0,
			0x80 | index, 3, 0, 0, 0,
		}
	}

	res, err := Decode(req, group(0))
	require.NoError(t, err)
	assert.Equal(t, 1, res.(DDSReply).Groups)
	assert.Len(t, res.(DDSReply).Entries, 3)

	res, err = Decode(req, append(group(0), group(1)...))
	require.NoError(t, err)
	assert.Equal(t, 2, res.(DDSReply).Groups)
	assert.Len(t, res.(DDSReply).Entries, 6)

	_, err = Decode(req, make([]byte, 10))
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestOverrideDDS_Reply(t *testing.T) {
	req, err := BuildRequest(CmdOverrideDDS, []string{"freq1", "ff", "phase3", "0x10"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "01ff000000"+"8310000000", hex.EncodeToString(req.Payload))

	_, err = Decode(req, make([]byte, 7))
	assert.ErrorIs(t, err, ErrMalformedReply)

	res, err := Decode(req, []byte{0})
	require.NoError(t, err)
	assert.True(t, res.(AckReply).OK())

	res, err = Decode(req, mustHex(t, "01ff000000"))
	require.NoError(t, err)
	assert.Len(t, res.(DDSReply).Entries, 1)
}

func TestGetOverrideDDS_Reply(t *testing.T) {
	req := EncodeGetOverrideDDS()
	res, err := Decode(req, nil)
	require.NoError(t, err)
	assert.Empty(t, res.(DDSReply).Entries)

	_, err = Decode(req, []byte{1})
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestFixedSizeReplies(t *testing.T) {
	res, err := Decode(EncodeSetTTL(SetTTLRequest{}), mustHex(t, "efbeadde"))
	require.NoError(t, err)
	assert.Equal(t, SetTTLReply{Value: 0xdeadbeef}, res)

	res, err = Decode(EncodeGetClock(), []byte{200})
	require.NoError(t, err)
	assert.Equal(t, ClockReply{Value: 200}, res)

	res, err = Decode(EncodeStateID(), mustHex(t, "0100000000000000"+"0200000000000000"))
	require.NoError(t, err)
	assert.Equal(t, StateIDReply{State: 1, Server: 2}, res)

	for _, tc := range []struct {
		req   Request
		reply []byte
	}{
		{EncodeOverrideTTL(OverrideTTLRequest{}), []byte{1}},
		{EncodeSetTTL(SetTTLRequest{}), make([]byte, 8)},
		{EncodeGetClock(), nil},
		{EncodeStateID(), make([]byte, 8)},
	} {
		_, err := Decode(tc.req, tc.reply)
		assert.ErrorIs(t, err, ErrMalformedReply, "%s", tc.req.Command)
	}
}

func TestPassThroughReplies(t *testing.T) {
	res, err := Decode(EncodeGetStartup(), []byte("ttl(0) = 1\n\x00"))
	require.NoError(t, err)
	assert.Equal(t, StartupReply{Script: "ttl(0) = 1\n"}, res)

	raw := mustHex(t, "0374746c3300")
	res, err = Decode(EncodeGetTTLNames(), raw)
	require.NoError(t, err)
	names := res.(NamesReply)
	assert.Equal(t, CmdGetTTLNames, names.Command())
	entries, err := names.Entries()
	require.NoError(t, err)
	assert.Equal(t, []NameEntry{{ID: 3, Name: "ttl3"}}, entries)

	res, err = Decode(EncodeResetDDS(4), []byte{1})
	require.NoError(t, err)
	assert.False(t, res.(AckReply).OK())
	assert.Equal(t, CmdResetDDS, res.Command())
}

func TestBuildRequest_Payloads(t *testing.T) {
	readFile := func(path string) ([]byte, error) {
		if path == "startup.txt" {
			return []byte("script"), nil
		}
		return nil, errors.New("not found")
	}

	cases := []struct {
		name    string
		cmd     Command
		args    []string
		frames  int
		payload string
	}{
		{"set_startup", CmdSetStartup, []string{"startup.txt"}, 2, hex.EncodeToString([]byte("script\x00"))},
		{"get_startup", CmdGetStartup, nil, 1, ""},
		{"set_ttl_names", CmdSetTTLNames, []string{"3", "ttl3", "7", "laser"}, 2, "0374746c3300076c6173657200"},
		{"set_dds_names", CmdSetDDSNames, []string{"0", "aom"}, 2, "00616f6d00"},
		{"set_ttl", CmdSetTTL, []string{"ff", "0x100"}, 2, "ff00000000010000"},
		{"set_clock", CmdSetClock, []string{"100"}, 2, "64"},
		{"set_dds", CmdSetDDS, []string{"amp0", "1"}, 2, "4001000000"},
		{"override_dds empty", CmdOverrideDDS, nil, 2, ""},
		{"reset_dds", CmdResetDDS, []string{"21"}, 2, "15"},
		{"cancel_seq all", CmdCancelSeq, nil, 1, ""},
		{"cancel_seq id", CmdCancelSeq, []string{"5", "258"}, 2, "0500000000000000" + "0201000000000000"},
		{"state_id", CmdStateID, nil, 1, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := BuildRequest(tc.cmd, tc.args, readFile)
			require.NoError(t, err)
			frames := req.Frames()
			require.Len(t, frames, tc.frames)
			assert.Equal(t, tc.cmd.String(), string(frames[0]))
			if tc.frames == 2 {
				assert.Equal(t, tc.payload, hex.EncodeToString(frames[1]))
			}
		})
	}
}

func TestBuildRequest_InvalidArguments(t *testing.T) {
	cases := []struct {
		cmd  Command
		args []string
		want error
	}{
		{CmdSetTTLNames, []string{"3"}, ErrInvalidArgument},
		{CmdSetTTLNames, []string{"256", "x"}, ErrInvalidArgument},
		{CmdSetDDS, []string{"freq1"}, ErrInvalidArgument},
		{CmdSetDDS, []string{"freq1", "zz"}, ErrInvalidArgument},
		{CmdSetDDS, []string{"ttl1", "1"}, ErrInvalidChannelName},
		{CmdOverrideDDS, []string{"freq64", "1"}, ErrInvalidChannelName},
		{CmdGetDDS, []string{"amp70"}, ErrInvalidChannelName},
		{CmdOverrideTTL, []string{"1", "2"}, ErrInvalidArgument},
		{CmdOverrideTTL, []string{"1", "2", "100000000"}, ErrInvalidArgument},
		{CmdSetTTL, []string{"1"}, ErrInvalidArgument},
		{CmdSetClock, []string{"300"}, ErrInvalidArgument},
		{CmdSetClock, nil, ErrInvalidArgument},
		{CmdResetDDS, []string{"a"}, ErrInvalidArgument},
		{CmdGetClock, []string{"1"}, ErrInvalidArgument},
		{CmdSetStartup, nil, ErrInvalidArgument},
		{CmdSetStartup, []string{"missing.txt"}, ErrInvalidArgument},
		{CmdCancelSeq, []string{"1"}, ErrInvalidArgument},
	}
	readFile := func(string) ([]byte, error) { return nil, errors.New("not found") }
	for _, tc := range cases {
		_, err := BuildRequest(tc.cmd, tc.args, readFile)
		assert.ErrorIs(t, err, tc.want, "%s %v", tc.cmd, tc.args)
	}
}

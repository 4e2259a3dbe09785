package molecube

import (
	"fmt"
	"strconv"
	"strings"
)

// 命令行参数解析：把字符串参数列表转换为 Request
// 所有参数错误都在发送前以 ErrInvalidArgument 返回

// FileReader 读取 set_startup 脚本文件
type FileReader func(path string) ([]byte, error)

type buildEnv struct {
	readFile FileReader
}

type buildFunc func(env buildEnv, args []string) (Request, error)

func argError(cmd Command, format string, a ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, cmd, fmt.Sprintf(format, a...))
}

func expectArgs(cmd Command, args []string, n int) error {
	if len(args) != n {
		return argError(cmd, "expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func expectPairs(cmd Command, args []string) error {
	if len(args)%2 != 0 {
		return argError(cmd, "arguments must come in pairs, got %d", len(args))
	}
	return nil
}

// parseHex32 解析十六进制32位值，可带 0x 前缀
func parseHex32(s string) (uint32, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	v, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func noArgs(enc func() Request) buildFunc {
	return func(_ buildEnv, args []string) (Request, error) {
		req := enc()
		if err := expectArgs(req.Command, args, 0); err != nil {
			return Request{}, err
		}
		return req, nil
	}
}

func buildSetStartup(env buildEnv, args []string) (Request, error) {
	if err := expectArgs(CmdSetStartup, args, 1); err != nil {
		return Request{}, err
	}
	if env.readFile == nil {
		return Request{}, argError(CmdSetStartup, "no file reader configured")
	}
	script, err := env.readFile(args[0])
	if err != nil {
		return Request{}, argError(CmdSetStartup, "read %s: %v", args[0], err)
	}
	return EncodeSetStartup(script), nil
}

func buildSetNames(cmd Command) buildFunc {
	return func(_ buildEnv, args []string) (Request, error) {
		if err := expectPairs(cmd, args); err != nil {
			return Request{}, err
		}
		entries := make([]NameEntry, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			id, err := parseByte(args[i])
			if err != nil {
				return Request{}, argError(cmd, "invalid id %q", args[i])
			}
			entries = append(entries, NameEntry{ID: id, Name: args[i+1]})
		}
		return encodeSetNames(cmd, entries)
	}
}

func buildOverrideTTL(_ buildEnv, args []string) (Request, error) {
	if err := expectArgs(CmdOverrideTTL, args, 3); err != nil {
		return Request{}, err
	}
	var masks [3]uint32
	for i, a := range args {
		v, err := parseHex32(a)
		if err != nil {
			return Request{}, argError(CmdOverrideTTL, "invalid mask %q", a)
		}
		masks[i] = v
	}
	return EncodeOverrideTTL(OverrideTTLRequest{Lo: masks[0], Hi: masks[1], Normal: masks[2]}), nil
}

func buildSetTTL(_ buildEnv, args []string) (Request, error) {
	if err := expectArgs(CmdSetTTL, args, 2); err != nil {
		return Request{}, err
	}
	lo, err := parseHex32(args[0])
	if err != nil {
		return Request{}, argError(CmdSetTTL, "invalid mask %q", args[0])
	}
	hi, err := parseHex32(args[1])
	if err != nil {
		return Request{}, argError(CmdSetTTL, "invalid mask %q", args[1])
	}
	return EncodeSetTTL(SetTTLRequest{Lo: lo, Hi: hi}), nil
}

func buildByteArg(cmd Command, enc func(uint8) Request) buildFunc {
	return func(_ buildEnv, args []string) (Request, error) {
		if err := expectArgs(cmd, args, 1); err != nil {
			return Request{}, err
		}
		v, err := parseByte(args[0])
		if err != nil {
			return Request{}, argError(cmd, "invalid value %q (want 0-255)", args[0])
		}
		return enc(v), nil
	}
}

func buildDDSEntries(cmd Command) buildFunc {
	return func(_ buildEnv, args []string) (Request, error) {
		if err := expectPairs(cmd, args); err != nil {
			return Request{}, err
		}
		entries := make([]DDSEntry, 0, len(args)/2)
		for i := 0; i < len(args); i += 2 {
			chn, err := ParseChannel(args[i])
			if err != nil {
				return Request{}, err
			}
			v, err := parseHex32(args[i+1])
			if err != nil {
				return Request{}, argError(cmd, "invalid value %q for %s", args[i+1], chn)
			}
			entries = append(entries, DDSEntry{Channel: chn, Value: v})
		}
		return encodeDDS(cmd, entries)
	}
}

func buildGetDDS(_ buildEnv, args []string) (Request, error) {
	channels := make([]ChannelRef, 0, len(args))
	for _, a := range args {
		chn, err := ParseChannel(a)
		if err != nil {
			return Request{}, err
		}
		channels = append(channels, chn)
	}
	return EncodeGetDDS(channels)
}

func buildCancelSeq(_ buildEnv, args []string) (Request, error) {
	switch len(args) {
	case 0:
		return EncodeCancelSeq(nil), nil
	case 2:
		seq, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return Request{}, argError(CmdCancelSeq, "invalid sequence id %q", args[0])
		}
		server, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return Request{}, argError(CmdCancelSeq, "invalid server id %q", args[1])
		}
		return EncodeCancelSeq(&SeqID{Seq: seq, Server: server}), nil
	default:
		return Request{}, argError(CmdCancelSeq, "expected 0 or 2 arguments, got %d", len(args))
	}
}

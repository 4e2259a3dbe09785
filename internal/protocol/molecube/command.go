package molecube

import "fmt"

// Command 控制器命令（封闭集合）
type Command uint8

// 命令常量，顺序与命令表一致；新增命令需同时补充 commandNames 与 codecTable
const (
	CmdSetStartup Command = iota + 1
	CmdGetStartup
	CmdSetTTLNames
	CmdGetTTLNames
	CmdSetDDSNames
	CmdGetDDSNames
	CmdOverrideTTL
	CmdSetTTL
	CmdSetClock
	CmdGetClock
	CmdOverrideDDS
	CmdGetOverrideDDS
	CmdSetDDS
	CmdGetDDS
	CmdResetDDS
	CmdStateID
	CmdCancelSeq

	numCommands = iota + 1
)

// commandNames 命令字（线上第一帧内容）
var commandNames = [numCommands]string{
	CmdSetStartup:     "set_startup",
	CmdGetStartup:     "get_startup",
	CmdSetTTLNames:    "set_ttl_names",
	CmdGetTTLNames:    "get_ttl_names",
	CmdSetDDSNames:    "set_dds_names",
	CmdGetDDSNames:    "get_dds_names",
	CmdOverrideTTL:    "override_ttl",
	CmdSetTTL:         "set_ttl",
	CmdSetClock:       "set_clock",
	CmdGetClock:       "get_clock",
	CmdOverrideDDS:    "override_dds",
	CmdGetOverrideDDS: "get_override_dds",
	CmdSetDDS:         "set_dds",
	CmdGetDDS:         "get_dds",
	CmdResetDDS:       "reset_dds",
	CmdStateID:        "state_id",
	CmdCancelSeq:      "cancel_seq",
}

var commandByName = func() map[string]Command {
	m := make(map[string]Command, numCommands)
	for _, c := range Commands() {
		m[commandNames[c]] = c
	}
	return m
}()

// Commands 返回全部命令
func Commands() []Command {
	cmds := make([]Command, 0, numCommands-1)
	for c := CmdSetStartup; c < numCommands; c++ {
		cmds = append(cmds, c)
	}
	return cmds
}

// Valid 是否为已知命令
func (c Command) Valid() bool {
	return c >= CmdSetStartup && c < numCommands
}

func (c Command) String() string {
	if !c.Valid() {
		return fmt.Sprintf("command(%d)", uint8(c))
	}
	return commandNames[c]
}

// ParseCommand 按命令字查找命令，未知命令返回 ErrUnknownCommand
func ParseCommand(token string) (Command, error) {
	c, ok := commandByName[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, token)
	}
	return c, nil
}

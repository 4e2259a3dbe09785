package molecube

type decodeFunc func(req Request, reply []byte) (Result, error)

type codec struct {
	build  buildFunc
	decode decodeFunc
}

// codecTable 命令 -> (参数构造, 应答解码)；数组长度即命令数，漏项由单元测试发现
var codecTable = [numCommands]codec{
	CmdSetStartup:     {build: buildSetStartup, decode: decodeAck},
	CmdGetStartup:     {build: noArgs(EncodeGetStartup), decode: decodeStartup},
	CmdSetTTLNames:    {build: buildSetNames(CmdSetTTLNames), decode: decodeAck},
	CmdGetTTLNames:    {build: noArgs(EncodeGetTTLNames), decode: decodeNames},
	CmdSetDDSNames:    {build: buildSetNames(CmdSetDDSNames), decode: decodeAck},
	CmdGetDDSNames:    {build: noArgs(EncodeGetDDSNames), decode: decodeNames},
	CmdOverrideTTL:    {build: buildOverrideTTL, decode: decodeOverrideTTL},
	CmdSetTTL:         {build: buildSetTTL, decode: decodeSetTTL},
	CmdSetClock:       {build: buildByteArg(CmdSetClock, EncodeSetClock), decode: decodeAck},
	CmdGetClock:       {build: noArgs(EncodeGetClock), decode: decodeClock},
	CmdOverrideDDS:    {build: buildDDSEntries(CmdOverrideDDS), decode: decodeDDSWrite},
	CmdGetOverrideDDS: {build: noArgs(EncodeGetOverrideDDS), decode: decodeDDSList},
	CmdSetDDS:         {build: buildDDSEntries(CmdSetDDS), decode: decodeDDSWrite},
	CmdGetDDS:         {build: buildGetDDS, decode: decodeGetDDS},
	CmdResetDDS:       {build: buildByteArg(CmdResetDDS, EncodeResetDDS), decode: decodeAck},
	CmdStateID:        {build: noArgs(EncodeStateID), decode: decodeStateID},
	CmdCancelSeq:      {build: buildCancelSeq, decode: decodeAck},
}

// BuildRequest 按命令与字符串参数构造请求，不涉及网络
func BuildRequest(cmd Command, args []string, readFile FileReader) (Request, error) {
	if !cmd.Valid() {
		return Request{}, ErrUnknownCommand
	}
	return codecTable[cmd].build(buildEnv{readFile: readFile}, args)
}

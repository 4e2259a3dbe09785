package molecube

import "errors"

// 协议错误分类，调用方使用 errors.Is 判断
var (
	// ErrInvalidArgument 命令参数个数或格式错误（发送前）
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidChannelName DDS通道名无法编码
	ErrInvalidChannelName = errors.New("invalid DDS channel name")
	// ErrInvalidChannelKind DDS通道字节中的类型位为保留值
	ErrInvalidChannelKind = errors.New("invalid DDS channel kind")
	// ErrMalformedReply 应答长度与命令期望的记录长度不一致
	ErrMalformedReply = errors.New("malformed reply")
	// ErrUnknownCommand 未知命令字
	ErrUnknownCommand = errors.New("unknown command")
	// ErrTransport 连接、发送或接收失败
	ErrTransport = errors.New("transport error")
)

package bridge

import "fmt"

// ConnectionError 建立 websocket 或打开串口失败
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError 已建立连接上的读写失败
type TransportError struct {
	Endpoint string
	Op       string // "read" 或 "write"
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError 遥测文档格式错误或字段缺失/类型不符
type DecodeError struct {
	Field  string // 出错的字段路径，整体不是合法 JSON 时为空
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "decode telemetry: " + e.Reason
	}
	return fmt.Sprintf("decode telemetry: %s: %s", e.Field, e.Reason)
}

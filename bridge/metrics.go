package bridge

import (
	"sync/atomic"
)

// Metrics 记录管道运行期的关键指标（用于监控与调试），nil 时所有方法为空操作
type Metrics struct {
	Snapshots         int64 // 成功解码的快照数
	DecodeErrors      int64 // 解码失败次数（每次都会触发重连）
	CommandsEmitted   int64 // 翻译器产生的命令数
	CommandsWritten   int64 // 完整写入设备的命令数
	CommandsDropped   int64 // 写失败被丢弃的命令数
	BytesWritten      int64 // 写入设备的字节数
	TelemetryConnects int64 // websocket 连接成功次数
	DeviceConnects    int64 // 串口打开成功次数
}

func (m *Metrics) IncSnapshots() {
	if m != nil {
		atomic.AddInt64(&m.Snapshots, 1)
	}
}

func (m *Metrics) IncDecodeErrors() {
	if m != nil {
		atomic.AddInt64(&m.DecodeErrors, 1)
	}
}

func (m *Metrics) IncCommandsEmitted() {
	if m != nil {
		atomic.AddInt64(&m.CommandsEmitted, 1)
	}
}

func (m *Metrics) IncCommandsDropped() {
	if m != nil {
		atomic.AddInt64(&m.CommandsDropped, 1)
	}
}

func (m *Metrics) IncTelemetryConnects() {
	if m != nil {
		atomic.AddInt64(&m.TelemetryConnects, 1)
	}
}

func (m *Metrics) IncDeviceConnects() {
	if m != nil {
		atomic.AddInt64(&m.DeviceConnects, 1)
	}
}

// AddWritten 记录一条完整写出的命令及其字节数
func (m *Metrics) AddWritten(n int) {
	if m == nil {
		return
	}
	atomic.AddInt64(&m.CommandsWritten, 1)
	atomic.AddInt64(&m.BytesWritten, int64(n))
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return map[string]any{
		"snapshots":          atomic.LoadInt64(&m.Snapshots),
		"decode_errors":      atomic.LoadInt64(&m.DecodeErrors),
		"commands_emitted":   atomic.LoadInt64(&m.CommandsEmitted),
		"commands_written":   atomic.LoadInt64(&m.CommandsWritten),
		"commands_dropped":   atomic.LoadInt64(&m.CommandsDropped),
		"bytes_written":      atomic.LoadInt64(&m.BytesWritten),
		"telemetry_connects": atomic.LoadInt64(&m.TelemetryConnects),
		"device_connects":    atomic.LoadInt64(&m.DeviceConnects),
	}
}

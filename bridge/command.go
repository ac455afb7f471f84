package bridge

import "fmt"

// 线协议的标签字节，固件据此推断后续负载长度
const (
	TagEnterMode    byte = 0x00
	TagKeyState     byte = 0x01
	TagHealthUpdate byte = 0x02
	TagHitOffset    byte = 0x03
	TagEnd          byte = 0x04
)

// ModeGameplay 进入游戏时发送的模式号
const ModeGameplay uint8 = 2

// Command 发往设备的一条事件，封闭集合；Encode 给出固定长度的线格式。
// 协议没有版本号、长度前缀或校验和，扩展需要固件与编码同步修改。
type Command interface {
	Encode() []byte
	String() string
	isCommand()
}

// EnterMode 进入某个模式
type EnterMode struct{ Mode uint8 }

// KeyState 两个按键的当前状态
type KeyState struct{ K1, K2 bool }

// HealthUpdate 血量（0-255）。目前没有生产者，保留为扩展点
type HealthUpdate struct{ HP uint8 }

// HitOffset 击打偏移，按补码重解释为无符号字节发送。目前没有生产者
type HitOffset struct{ Offset int8 }

// End 离开游戏
type End struct{}

func (EnterMode) isCommand()    {}
func (KeyState) isCommand()     {}
func (HealthUpdate) isCommand() {}
func (HitOffset) isCommand()    {}
func (End) isCommand()          {}

func (c EnterMode) Encode() []byte    { return []byte{TagEnterMode, c.Mode} }
func (c KeyState) Encode() []byte     { return []byte{TagKeyState, boolByte(c.K1), boolByte(c.K2)} }
func (c HealthUpdate) Encode() []byte { return []byte{TagHealthUpdate, c.HP} }
func (c HitOffset) Encode() []byte    { return []byte{TagHitOffset, byte(c.Offset)} }
func (End) Encode() []byte            { return []byte{TagEnd} }

func (c EnterMode) String() string    { return fmt.Sprintf("EnterMode(%d)", c.Mode) }
func (c KeyState) String() string     { return fmt.Sprintf("KeyState(%t, %t)", c.K1, c.K2) }
func (c HealthUpdate) String() string { return fmt.Sprintf("HealthUpdate(%d)", c.HP) }
func (c HitOffset) String() string    { return fmt.Sprintf("HitOffset(%d)", c.Offset) }
func (End) String() string            { return "End" }

// frameLen 每个标签对应的完整帧长度（含标签字节）
var frameLen = map[byte]int{
	TagEnterMode:    2,
	TagKeyState:     3,
	TagHealthUpdate: 2,
	TagHitOffset:    2,
	TagEnd:          1,
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// DecodeCommand 按固件的方式解析一条线格式命令，返回命令和消耗的字节数。
// 设备模拟与测试使用。
func DecodeCommand(b []byte) (Command, int, error) {
	if len(b) == 0 {
		return nil, 0, fmt.Errorf("empty frame")
	}
	n, ok := frameLen[b[0]]
	if !ok {
		return nil, 0, fmt.Errorf("unknown tag 0x%02x", b[0])
	}
	if len(b) < n {
		return nil, 0, fmt.Errorf("short frame for tag 0x%02x: have %d bytes, need %d", b[0], len(b), n)
	}
	switch b[0] {
	case TagEnterMode:
		return EnterMode{Mode: b[1]}, n, nil
	case TagKeyState:
		return KeyState{K1: b[1] != 0, K2: b[2] != 0}, n, nil
	case TagHealthUpdate:
		return HealthUpdate{HP: b[1]}, n, nil
	case TagHitOffset:
		return HitOffset{Offset: int8(b[1])}, n, nil
	default:
		return End{}, n, nil
	}
}

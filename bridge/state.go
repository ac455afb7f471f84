package bridge

import "fmt"

// GameState 一次遥测快照，只有两种取值：Unknown 或 Gameplay。
// 接口未导出方法使其成为封闭集合，包外无法新增变体。
type GameState interface {
	isGameState()
	String() string
}

// Unknown 非游戏中（菜单、结算等）或无法识别的状态
type Unknown struct{}

// Gameplay 游戏进行中：两个按键的按下状态与平滑后的血量
type Gameplay struct {
	K1 bool
	K2 bool
	HP float32 // 语义上在 [0,1]，上游可信，不做范围校验
}

func (Unknown) isGameState()  {}
func (Gameplay) isGameState() {}

func (Unknown) String() string { return "Unknown" }

func (g Gameplay) String() string {
	return fmt.Sprintf("Gameplay{k1=%t k2=%t hp=%.3f}", g.K1, g.K2, g.HP)
}

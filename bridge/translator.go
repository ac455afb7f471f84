package bridge

import "sync"

// Translator 对比相邻两次快照，只把状态变化翻译为设备命令。
// 唯一的状态是上一次观察到的 GameState，初始为 Unknown。
//
// hp 虽然被解码但目前不产生命令：HealthUpdate/HitOffset 只是预留的线协议词汇，
// 何时发送需要另行约定阈值。
type Translator struct {
	mu   sync.RWMutex // 只为状态接口并发读取 Last
	last GameState
}

// NewTranslator 创建初始状态为 Unknown 的翻译器
func NewTranslator() *Translator {
	return &Translator{last: Unknown{}}
}

// Translate 处理一条快照，返回 0 或多条命令，并无条件记住该快照
func (t *Translator) Translate(next GameState) []Command {
	if next == nil {
		next = Unknown{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Command
	switch cur := next.(type) {
	case Gameplay:
		if prev, ok := t.last.(Gameplay); ok {
			if prev.K1 != cur.K1 || prev.K2 != cur.K2 {
				out = append(out, KeyState{K1: cur.K1, K2: cur.K2})
			}
		} else {
			out = append(out, EnterMode{Mode: ModeGameplay})
		}
	case Unknown:
		if _, ok := t.last.(Unknown); !ok {
			out = append(out, End{})
		}
	}
	t.last = next
	return out
}

// Last 上一次观察到的快照
func (t *Translator) Last() GameState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

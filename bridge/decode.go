package bridge

import (
	"github.com/tidwall/gjson"
)

// menu.state 中表示正在游戏的取值
const menuStateGameplay = 2

// 遥测文档中用到的字段路径
const (
	pathMenuState = "menu.state"
	pathK1        = "gameplay.keyOverlay.k1.isPressed"
	pathK2        = "gameplay.keyOverlay.k2.isPressed"
	pathHP        = "gameplay.hp.smooth"
)

// DecodeGameState 将一条原始遥测消息解析为 GameState。
// 任何格式错误都返回 *DecodeError，不做部分恢复：上游只会发送完整文档，
// 出现坏文档说明链路本身已经不可用。
func DecodeGameState(raw []byte) (GameState, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &DecodeError{Reason: "malformed json"}
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, &DecodeError{Reason: "document is not an object"}
	}

	state := doc.Get(pathMenuState)
	if !state.Exists() {
		return Unknown{}, nil
	}
	if state.Type != gjson.Number {
		return nil, &DecodeError{Field: pathMenuState, Reason: "not a number"}
	}
	if state.Num != menuStateGameplay {
		return Unknown{}, nil
	}

	k1, err := boolField(doc, pathK1)
	if err != nil {
		return nil, err
	}
	k2, err := boolField(doc, pathK2)
	if err != nil {
		return nil, err
	}
	hp := doc.Get(pathHP)
	if !hp.Exists() {
		return nil, &DecodeError{Field: pathHP, Reason: "missing"}
	}
	if hp.Type != gjson.Number {
		return nil, &DecodeError{Field: pathHP, Reason: "not a number"}
	}
	return Gameplay{K1: k1, K2: k2, HP: float32(hp.Num)}, nil
}

func boolField(doc gjson.Result, path string) (bool, error) {
	r := doc.Get(path)
	switch r.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.Null:
		if !r.Exists() {
			return false, &DecodeError{Field: path, Reason: "missing"}
		}
	}
	return false, &DecodeError{Field: path, Reason: "not a bool"}
}

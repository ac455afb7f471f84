package bridge

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrStreamClosed 由 Serve 返回，表示上游队列已永久关闭，会话不再重连
var ErrStreamClosed = errors.New("stream closed")

// SessionState 会话连接状态
type SessionState int32

const (
	Disconnected SessionState = iota
	Connecting
	Connected
)

func (s SessionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Session 通用的"连接 → 运行直到出错 → 退避 → 重连"循环。
// 遥测 websocket 与串口设备共用这一状态机，C 为各自的连接句柄类型。
// 句柄只在 Run 所在协程内使用，重连时整体替换。
type Session[C any] struct {
	Name    string
	Connect func(ctx context.Context) (C, error)
	Serve   func(ctx context.Context, conn C) error
	Close   func(conn C) error
	Backoff time.Duration
	Log     *zap.SugaredLogger

	// OnConnected 每次进入 Connected 时回调（可选，用于计数）
	OnConnected func()

	state atomic.Int32
}

// State 当前连接状态，可在其它协程读取
func (s *Session[C]) State() SessionState {
	return SessionState(s.state.Load())
}

// Run 无限重试，直到 ctx 结束（返回 ctx.Err()）或 Serve 返回 ErrStreamClosed（返回 nil）。
// 连接失败、读写失败、解码失败一律记录日志、丢弃连接并等待固定的退避时间。
func (s *Session[C]) Run(ctx context.Context) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.setState(Connecting)
		conn, err := s.Connect(ctx)
		if err != nil {
			s.setState(Disconnected)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warnw("connect failed", "session", s.Name, "error", err, "retryIn", s.Backoff)
			if !s.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}

		s.setState(Connected)
		log.Infow("connected", "session", s.Name)
		if s.OnConnected != nil {
			s.OnConnected()
		}

		err = s.Serve(ctx, conn)
		if s.Close != nil {
			err = multierr.Append(err, s.Close(conn))
		}
		s.setState(Disconnected)

		if errors.Is(err, ErrStreamClosed) {
			log.Infow("stream closed, session finished", "session", s.Name)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warnw("connection lost", "session", s.Name, "error", err, "retryIn", s.Backoff)
		if !s.sleep(ctx) {
			return ctx.Err()
		}
	}
}

func (s *Session[C]) setState(st SessionState) {
	s.state.Store(int32(st))
}

// sleep 等待退避时间；ctx 提前结束时返回 false
func (s *Session[C]) sleep(ctx context.Context) bool {
	t := time.NewTimer(s.Backoff)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

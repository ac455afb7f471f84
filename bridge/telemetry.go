package bridge

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TelemetrySource 维护到游戏遥测 websocket 的连接，把解码后的快照按序写入队列
type TelemetrySource struct {
	cfg     TelemetryConfig
	dialer  *websocket.Dialer
	out     *Queue[GameState]
	metrics *Metrics
	log     *zap.SugaredLogger

	session *Session[*websocket.Conn]
}

// NewTelemetrySource 创建遥测源；out 由遥测源独占写入，Run 结束时关闭
func NewTelemetrySource(cfg TelemetryConfig, out *Queue[GameState], m *Metrics, log *zap.SugaredLogger) *TelemetrySource {
	t := &TelemetrySource{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  1024,
		},
		out:     out,
		metrics: m,
		log:     log,
	}
	t.session = &Session[*websocket.Conn]{
		Name:        "telemetry",
		Connect:     t.connect,
		Serve:       t.readPump,
		Close:       func(c *websocket.Conn) error { return c.Close() },
		Backoff:     cfg.Backoff,
		Log:         log,
		OnConnected: m.IncTelemetryConnects,
	}
	return t
}

// Run 运行重连循环；返回时关闭输出队列，下游据此结束
func (t *TelemetrySource) Run(ctx context.Context) error {
	defer t.out.Close()
	return t.session.Run(ctx)
}

// State 当前连接状态
func (t *TelemetrySource) State() SessionState { return t.session.State() }

func (t *TelemetrySource) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := t.dialer.DialContext(ctx, t.cfg.URL, nil)
	if err != nil {
		return nil, &ConnectionError{Endpoint: t.cfg.URL, Err: err}
	}
	return conn, nil
}

// readPump 逐条阻塞读取消息并解码；任何错误都结束本次连接
func (t *TelemetrySource) readPump(ctx context.Context, conn *websocket.Conn) error {
	// ReadMessage 不感知 ctx，ctx 结束时关闭连接使其返回
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	conn.SetReadLimit(1 << 20) // 1MB
	for {
		if t.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Endpoint: t.cfg.URL, Op: "read", Err: err}
		}

		state, err := DecodeGameState(payload)
		if err != nil {
			t.metrics.IncDecodeErrors()
			return err
		}
		t.metrics.IncSnapshots()
		t.out.Push(state)
	}
}

package bridge

import (
	"context"

	"go.uber.org/zap"
)

// Pipeline 把遥测源、翻译器、设备端连成两条独立的并发管道：
// 遥测源 --(GameState)--> 翻译器 --(Command)--> 设备端。
// 两个端点各自在后台协程中重连，翻译器在 Run 的调用协程中同步运行。
type Pipeline struct {
	Telemetry  *TelemetrySource
	Device     *DeviceSink
	Translator *Translator
	Metrics    *Metrics

	states   *Queue[GameState]
	commands *Queue[Command]
	log      *zap.SugaredLogger
}

// NewPipeline 按配置创建管道；open 为 nil 时使用真实串口
func NewPipeline(cfg Config, open PortOpener, log *zap.SugaredLogger) *Pipeline {
	m := &Metrics{}
	states := NewQueue[GameState]()
	commands := NewQueue[Command]()
	return &Pipeline{
		Telemetry:  NewTelemetrySource(cfg.Telemetry, states, m, log.Named("telemetry")),
		Device:     NewDeviceSink(cfg.Device, open, commands, m, log.Named("device")),
		Translator: NewTranslator(),
		Metrics:    m,
		states:     states,
		commands:   commands,
		log:        log.Named("translator"),
	}
}

// Run 启动两个后台会话并在当前协程运行翻译循环，直到遥测队列永久关闭。
// 核心没有优雅退出：ctx 只用于进程收到信号时结束等待。
// 翻译循环结束后关闭命令队列，设备端写完积压命令后退出。
func (p *Pipeline) Run(ctx context.Context) error {
	go func() { _ = p.Telemetry.Run(ctx) }()
	go func() { _ = p.Device.Run(ctx) }()

	defer p.commands.Close()
	return p.translate(ctx)
}

func (p *Pipeline) translate(ctx context.Context) error {
	for {
		state, ok, err := p.states.Pop(ctx)
		if err != nil {
			return err
		}
		if !ok {
			p.log.Info("telemetry stream closed")
			return nil
		}
		for _, cmd := range p.Translator.Translate(state) {
			p.log.Debugw("state transition", "state", state.String(), "command", cmd.String())
			p.Metrics.IncCommandsEmitted()
			p.commands.Push(cmd)
		}
	}
}

// QueueDepths 两个队列当前的积压长度
func (p *Pipeline) QueueDepths() (telemetry, commands int) {
	return p.states.Len(), p.commands.Len()
}

package bridge

import (
	"context"
	"errors"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

var errWriteTimeout = errors.New("write timed out")

// Port 设备连接的最小能力：写字节、关闭
type Port interface {
	io.Writer
	io.Closer
}

// PortOpener 打开设备，测试中替换为假设备
type PortOpener func(path string, baud int) (Port, error)

// OpenSerial 以给定波特率打开串口（8N1）
func OpenSerial(path string, baud int) (Port, error) {
	p, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	// 不读回应答，读超时只防止驱动层无限阻塞
	if err := p.SetReadTimeout(DefaultWriteTimeout); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// DeviceSink 从命令队列按序取出命令，编码后写入设备。
// 写失败的命令不会重发（至多一次），重连后从下一条命令继续。
type DeviceSink struct {
	cfg     DeviceConfig
	open    PortOpener
	in      *Queue[Command]
	metrics *Metrics
	log     *zap.SugaredLogger

	session *Session[Port]
}

// NewDeviceSink 创建设备端；open 为 nil 时使用 OpenSerial
func NewDeviceSink(cfg DeviceConfig, open PortOpener, in *Queue[Command], m *Metrics, log *zap.SugaredLogger) *DeviceSink {
	if open == nil {
		open = OpenSerial
	}
	d := &DeviceSink{
		cfg:     cfg,
		open:    open,
		in:      in,
		metrics: m,
		log:     log,
	}
	d.session = &Session[Port]{
		Name:        "device",
		Connect:     d.connect,
		Serve:       d.writePump,
		Close:       func(p Port) error { return p.Close() },
		Backoff:     cfg.Backoff,
		Log:         log,
		OnConnected: m.IncDeviceConnects,
	}
	return d
}

// Run 运行重连循环，直到 ctx 结束或命令队列关闭
func (d *DeviceSink) Run(ctx context.Context) error {
	return d.session.Run(ctx)
}

// State 当前连接状态
func (d *DeviceSink) State() SessionState { return d.session.State() }

func (d *DeviceSink) connect(ctx context.Context) (Port, error) {
	p, err := d.open(d.cfg.Path, d.cfg.Baud)
	if err != nil {
		return nil, &ConnectionError{Endpoint: d.cfg.Path, Err: err}
	}
	return p, nil
}

// writePump 阻塞等待下一条命令并写出；写失败时结束本次连接
func (d *DeviceSink) writePump(ctx context.Context, p Port) error {
	for {
		cmd, ok, err := d.in.Pop(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStreamClosed
		}
		d.log.Infow("command received", "command", cmd.String())

		frame := cmd.Encode()
		if err := d.writeFrame(p, frame); err != nil {
			d.metrics.IncCommandsDropped()
			return &TransportError{Endpoint: d.cfg.Path, Op: "write", Err: err}
		}
		d.metrics.AddWritten(len(frame))
	}
}

// writeFrame 在写超时内把整帧写完。超时后写协程可能仍阻塞在驱动里，
// 会话随后关闭端口使其返回。
func (d *DeviceSink) writeFrame(p Port, frame []byte) error {
	done := make(chan error, 1)
	go func() { done <- writeFull(p, frame) }()

	timer := time.NewTimer(d.cfg.WriteTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errWriteTimeout
	}
}

// writeFull 处理短写，直到整帧写完或出错
func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}

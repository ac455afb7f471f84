package bridge

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func testDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Path:         "/dev/ttyTEST0",
		Baud:         DefaultBaudRate,
		WriteTimeout: 50 * time.Millisecond,
		Backoff:      testBackoff,
	}
}

func TestDeviceSinkWritesInOrder(t *testing.T) {
	port := newFakePort()
	ports := &portSequence{ports: []*fakePort{port}}
	q := NewQueue[Command]()
	m := &Metrics{}
	log, logs := observedLogger()
	d := NewDeviceSink(testDeviceConfig(), ports.open, q, m, log)

	cmds := []Command{EnterMode{Mode: 2}, KeyState{K1: true}, KeyState{}, End{}}
	var want []byte
	for _, c := range cmds {
		q.Push(c)
		want = append(want, c.Encode()...)
	}
	q.Close()

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := port.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("device got % x, want % x", got, want)
	}
	if !port.IsClosed() {
		t.Error("port not closed after stream end")
	}
	if m.CommandsWritten != int64(len(cmds)) || m.BytesWritten != int64(len(want)) {
		t.Errorf("metrics = %v", m.Snapshot())
	}
	if n := logs.FilterMessage("command received").Len(); n != len(cmds) {
		t.Errorf("logged %d commands, want %d", n, len(cmds))
	}
}

// 写失败只丢弃连接和当前命令，重连后从下一条命令继续
func TestDeviceSinkWriteErrorDropsOnlyConnection(t *testing.T) {
	first := newFakePort()
	first.failOn = 2
	second := newFakePort()
	ports := &portSequence{ports: []*fakePort{first, second}}
	q := NewQueue[Command]()
	m := &Metrics{}
	log, logs := observedLogger()
	d := NewDeviceSink(testDeviceConfig(), ports.open, q, m, log)

	q.Push(EnterMode{Mode: 2})
	q.Push(KeyState{K1: true, K2: true})
	q.Push(End{})
	q.Close()

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := first.Bytes(), []byte{0x00, 0x02}; !bytes.Equal(got, want) {
		t.Errorf("first port got % x, want % x", got, want)
	}
	if got, want := second.Bytes(), []byte{0x04}; !bytes.Equal(got, want) {
		t.Errorf("second port got % x, want % x", got, want)
	}
	if !first.IsClosed() {
		t.Error("failed port was not closed")
	}
	if m.CommandsDropped != 1 || m.DeviceConnects != 2 {
		t.Errorf("metrics = %v", m.Snapshot())
	}

	lost := logs.FilterMessage("connection lost").All()
	if len(lost) != 1 {
		t.Fatalf("logged %d drops, want 1", len(lost))
	}
	var te *TransportError
	if err := loggedError(lost[0]); !errors.As(err, &te) || te.Op != "write" {
		t.Errorf("logged error %v, want write TransportError", err)
	}
}

func TestDeviceSinkRetriesOpen(t *testing.T) {
	port := newFakePort()
	ports := &portSequence{}
	q := NewQueue[Command]()
	d := NewDeviceSink(testDeviceConfig(), ports.open, q, nil, nopLogger())

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	waitFor(t, "open retries", func() bool { return ports.Opens() >= 3 })
	ports.mu.Lock()
	ports.ports = append(ports.ports, port)
	ports.mu.Unlock()
	waitFor(t, "device connected", func() bool { return d.State() == Connected })

	q.Push(End{})
	q.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
	if got := port.Bytes(); !bytes.Equal(got, []byte{0x04}) {
		t.Errorf("device got % x", got)
	}
}

func TestDeviceSinkWriteTimeout(t *testing.T) {
	stuck := newFakePort()
	stuck.block = true
	good := newFakePort()
	ports := &portSequence{ports: []*fakePort{stuck, good}}
	q := NewQueue[Command]()
	m := &Metrics{}
	d := NewDeviceSink(testDeviceConfig(), ports.open, q, m, nopLogger())

	q.Push(KeyState{K1: true})
	q.Push(End{})
	q.Close()

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !stuck.IsClosed() {
		t.Error("stuck port not closed after timeout")
	}
	if got := good.Bytes(); !bytes.Equal(got, []byte{0x04}) {
		t.Errorf("second port got % x, want 04", got)
	}
	if m.CommandsDropped != 1 {
		t.Errorf("dropped = %d, want 1", m.CommandsDropped)
	}
}

func TestWriteFullHandlesShortWrites(t *testing.T) {
	w := &shortWriter{}
	if err := writeFull(w, []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("writeFull: %v", err)
	}
	if !bytes.Equal(w.buf.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("wrote % x", w.buf.Bytes())
	}
}

type shortWriter struct{ buf bytes.Buffer }

// 每次只写一个字节
func (w *shortWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b[:1])
}

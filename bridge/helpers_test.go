package bridge

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testBackoff = 10 * time.Millisecond

// waitFor 轮询直到 cond 成立或超时
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func nopLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

// loggedError 取出日志条目中 "error" 字段携带的原始 error
func loggedError(e observer.LoggedEntry) error {
	for _, f := range e.Context {
		if f.Key == "error" {
			if err, ok := f.Interface.(error); ok {
				return err
			}
		}
	}
	return nil
}

func observedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core).Sugar(), logs
}

// fakePort 记录写入的字节；failOn 为第几次 Write 返回错误（从 1 开始，0 表示不失败）；
// block 非空时 Write 阻塞直到端口关闭
type fakePort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	writes int
	failOn int
	block  bool
	closed bool
	unblk  chan struct{}
}

func newFakePort() *fakePort { return &fakePort{unblk: make(chan struct{})} }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	p.writes++
	if p.block {
		p.mu.Unlock()
		<-p.unblk
		return 0, errors.New("port closed")
	}
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	if p.failOn == p.writes {
		return 0, errors.New("device unplugged")
	}
	return p.buf.Write(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.unblk)
	}
	return nil
}

func (p *fakePort) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.buf.Bytes()...)
}

func (p *fakePort) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// portSequence 依次返回预先准备好的端口，用完后一直报打开失败
type portSequence struct {
	mu    sync.Mutex
	ports []*fakePort
	opens int
}

func (s *portSequence) open(path string, baud int) (Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if len(s.ports) == 0 {
		return nil, errors.New("no such device")
	}
	p := s.ports[0]
	s.ports = s.ports[1:]
	return p, nil
}

func (s *portSequence) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

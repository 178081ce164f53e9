package step400

import (
	"net"
	"sync"
	"testing"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"
	"github.com/leandrodaf/ponmachine/internal/logger"
	"github.com/leandrodaf/ponmachine/internal/osc"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
	"go.uber.org/zap/zaptest"
)

// fakeConn is an in-memory net.PacketConn. Outbound datagrams are recorded;
// inbound ones are fed through deliver.
type fakeConn struct {
	mu       sync.Mutex
	sent     [][]byte
	writeErr error

	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

var deviceAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) ReadFrom(b []byte) (int, net.Addr, error) {
	select {
	case d := <-f.inbound:
		return copy(b, d), deviceAddr, nil
	case <-f.closed:
		return 0, nil, net.ErrClosed
	}
}

func (f *fakeConn) WriteTo(b []byte, _ net.Addr) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.closed:
		return 0, net.ErrClosed
	default:
	}
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.sent = append(f.sent, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) LocalAddr() net.Addr              { return &net.UDPAddr{Port: 50100} }
func (f *fakeConn) SetDeadline(time.Time) error      { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) deliver(t *testing.T, addr string, args ...interface{}) {
	t.Helper()
	data, err := goosc.NewMessage(addr, args...).MarshalBinary()
	if err != nil {
		t.Fatalf("marshal %s: %v", addr, err)
	}
	f.inbound <- data
}

func (f *fakeConn) messages(t *testing.T) []osc.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]osc.Message, 0, len(f.sent))
	for _, d := range f.sent {
		msgs, err := osc.Decode(d)
		if err != nil {
			t.Fatalf("sent datagram does not decode: %v", err)
		}
		out = append(out, msgs...)
	}
	return out
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

func newTestController(t *testing.T, mutate ...func(*contracts.ControllerOptions)) (*Controller, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	opts := contracts.ControllerOptions{
		Logger:                logger.NewZapLoggerFrom(zaptest.NewLogger(t)),
		RemoteHost:            "127.0.0.1",
		RemotePort:            50000,
		BasePort:              50100,
		RebootSettleDelay:     20 * time.Millisecond,
		DefaultReportInterval: time.Second,
		PacketConn:            conn,
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, conn
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, within time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", within, msg)
}

func ints(args []contracts.Arg) []int32 {
	out := make([]int32, len(args))
	for i, a := range args {
		out[i] = a.Int
	}
	return out
}

func equalInts(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

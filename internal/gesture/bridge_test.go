package gesture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/ponmachine/internal/logger"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
	"go.uber.org/zap/zaptest"
)

type motionCall struct {
	open  bool
	motor contracts.MotorID
}

type recordingMotors struct {
	mu    sync.Mutex
	calls []motionCall
}

func (r *recordingMotors) MoveToOpenPosition(id contracts.MotorID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, motionCall{open: true, motor: id})
}

func (r *recordingMotors) MoveToClosePosition(id contracts.MotorID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, motionCall{open: false, motor: id})
}

func (r *recordingMotors) snapshot() []motionCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]motionCall(nil), r.calls...)
}

type recordingSwitcher struct {
	mu      sync.Mutex
	cameras []int
	err     error
}

func (s *recordingSwitcher) SwitchCamera(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = append(s.cameras, id)
	return s.err
}

func (s *recordingSwitcher) snapshot() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.cameras...)
}

func newTestBridge(t *testing.T) (*Bridge, *recordingMotors, *recordingSwitcher) {
	log := logger.NewZapLoggerFrom(zaptest.NewLogger(t))
	motors := &recordingMotors{}
	switcher := &recordingSwitcher{}
	b := NewBridge(log, NewCorrelator(log, 0), motors, switcher, DefaultBridgeConfig())
	return b, motors, switcher
}

func TestBridgeDrivesMotorFromGesture(t *testing.T) {
	b, motors, _ := newTestBridge(t)

	b.HandleNote(note(1, "C", 80, 0))
	res := b.HandleNote(note(1, "C", 0, 500))

	p, ok := res.Completed()
	if !ok || p.Duration() != 500*time.Millisecond {
		t.Fatalf("pairing = %+v %v", p, ok)
	}
	want := []motionCall{{open: true, motor: 1}, {open: false, motor: 1}}
	got := motors.snapshot()
	if len(got) != len(want) {
		t.Fatalf("calls = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBridgeOpenOnPortTwo(t *testing.T) {
	b, motors, switcher := newTestBridge(t)

	b.HandleNote(note(2, "D", 50, 0))

	got := motors.snapshot()
	if len(got) != 1 || got[0] != (motionCall{open: true, motor: 2}) {
		t.Fatalf("calls = %+v", got)
	}
	if len(switcher.snapshot()) != 0 {
		t.Fatal("port 2 must not switch cameras")
	}
}

func TestBridgeOrphanCloseSendsNothing(t *testing.T) {
	b, motors, _ := newTestBridge(t)

	res := b.HandleNote(note(1, "C", 0, 0))
	if !res.Ignored {
		t.Fatalf("result = %+v", res)
	}
	if len(motors.snapshot()) != 0 {
		t.Fatalf("unexpected calls %+v", motors.snapshot())
	}
}

func TestBridgeSelectsCamera(t *testing.T) {
	b, motors, switcher := newTestBridge(t)

	b.HandleNote(note(3, "C", 100, 0))
	b.HandleNote(note(3, "C", 0, 10))
	b.HandleNote(note(3, "F", 100, 20))
	b.HandleNote(note(3, "G", 100, 30))

	got := switcher.snapshot()
	if len(got) != 2 || got[0] != 1 || got[1] != 4 {
		t.Fatalf("cameras = %v, want [1 4]", got)
	}
	if len(motors.snapshot()) != 0 {
		t.Fatal("camera port must not move motors")
	}
}

func TestBridgeSwitcherErrorIsNotFatal(t *testing.T) {
	b, _, switcher := newTestBridge(t)
	switcher.err = errors.New("mixer offline")

	res := b.HandleNote(note(3, "E", 100, 0))
	if !res.Opened {
		t.Fatalf("result = %+v", res)
	}
	if got := switcher.snapshot(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("cameras = %v", got)
	}
}

func TestBridgeRunConsumesAllPorts(t *testing.T) {
	b, motors, switcher := newTestBridge(t)
	at := time.Now()

	port1 := make(chan contracts.MIDI, 4)
	port3 := make(chan contracts.MIDI, 4)
	port1 <- contracts.NewMIDI(0x90, 60, 80, at)
	port1 <- contracts.NewMIDI(0xB0, 1, 10, at)
	port1 <- contracts.NewMIDI(0x80, 60, 0, at.Add(time.Second))
	port3 <- contracts.NewMIDI(0x90, 64, 90, at)
	close(port1)
	close(port3)

	err := b.Run(context.Background(), map[int]<-chan contracts.MIDI{1: port1, 3: port3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := motors.snapshot()
	if len(got) != 2 || !got[0].open || got[1].open {
		t.Fatalf("calls = %+v", got)
	}
	if cams := switcher.snapshot(); len(cams) != 1 || cams[0] != 3 {
		t.Fatalf("cameras = %v", cams)
	}
	if _, ok := b.correlator.Pending(3); ok {
		t.Fatal("Run must flush pending opens on return")
	}
}

func TestBridgeRunStopsOnCancel(t *testing.T) {
	b, _, _ := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	input := make(chan contracts.MIDI)

	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx, map[int]<-chan contracts.MIDI{1: input})
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

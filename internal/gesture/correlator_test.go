package gesture

import (
	"math/rand"
	"testing"
	"time"

	"github.com/leandrodaf/ponmachine/internal/logger"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func note(port int, name string, velocity byte, ms int) contracts.NoteEvent {
	return contracts.NoteEvent{
		Port:      port,
		Name:      name,
		Octave:    4,
		Velocity:  velocity,
		Timestamp: t0.Add(time.Duration(ms) * time.Millisecond),
	}
}

func newTestCorrelator(t *testing.T, size int) *Correlator {
	return NewCorrelator(logger.NewZapLoggerFrom(zaptest.NewLogger(t)), size)
}

func TestOpenThenCloseCompletesPairing(t *testing.T) {
	c := newTestCorrelator(t, 0)

	res := c.Observe(note(1, "C", 80, 0))
	if !res.Opened || len(res.Emitted) != 0 {
		t.Fatalf("open result = %+v", res)
	}
	res = c.Observe(note(1, "C", 0, 500))
	p, ok := res.Completed()
	if !ok || len(res.Emitted) != 1 {
		t.Fatalf("close result = %+v", res)
	}
	if p.Duration() != 500*time.Millisecond {
		t.Fatalf("duration = %v", p.Duration())
	}
	if !p.StartTime.Equal(t0) || p.ID == "" {
		t.Fatalf("pairing = %+v", p)
	}
	if _, pending := c.Pending(1); pending {
		t.Fatal("nothing should be pending")
	}
}

func TestOpenAtStreamEndIsOpenEnded(t *testing.T) {
	c := newTestCorrelator(t, 0)
	c.Observe(note(2, "D", 50, 0))

	out := c.Flush(2)
	if len(out) != 1 || out[0].Completed() || out[0].Open.Name != "D" {
		t.Fatalf("flush = %+v", out)
	}
	if out[0].Duration() != 0 {
		t.Fatalf("open-ended duration = %v", out[0].Duration())
	}
	if again := c.Flush(2); len(again) != 0 {
		t.Fatalf("second flush = %+v", again)
	}
}

func TestSecondOpenClosesOutFirst(t *testing.T) {
	c := newTestCorrelator(t, 0)
	first := c.Observe(note(1, "C", 80, 0))
	res := c.Observe(note(1, "E", 90, 100))

	if !res.Opened || len(res.Emitted) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.Emitted[0].Completed() || res.Emitted[0].Open.Name != "C" {
		t.Fatalf("closed-out pairing = %+v", res.Emitted[0])
	}
	if !first.Opened {
		t.Fatal("first event should open")
	}
	pending, ok := c.Pending(1)
	if !ok || pending.Name != "E" {
		t.Fatalf("pending = %+v %v", pending, ok)
	}

	res = c.Observe(note(1, "E", 0, 300))
	p, ok := res.Completed()
	if !ok || p.Open.Name != "E" || p.Duration() != 200*time.Millisecond {
		t.Fatalf("completed = %+v", p)
	}
}

func TestOrphanCloseIsIgnored(t *testing.T) {
	c := newTestCorrelator(t, 0)
	res := c.Observe(note(1, "C", 0, 0))
	if !res.Ignored || res.Opened || len(res.Emitted) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if out := c.FlushAll(); len(out) != 0 {
		t.Fatalf("orphan close produced %+v", out)
	}
}

func TestPortsAreIndependent(t *testing.T) {
	c := newTestCorrelator(t, 0)
	c.Observe(note(1, "C", 80, 0))
	c.Observe(note(2, "D", 80, 10))
	res := c.Observe(note(2, "D", 0, 20))

	if _, ok := res.Completed(); !ok {
		t.Fatal("port 2 close should complete port 2 open")
	}
	if _, ok := c.Pending(1); !ok {
		t.Fatal("port 1 open must still be pending")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	c := newTestCorrelator(t, 3)
	for i := 0; i < 5; i++ {
		c.Observe(note(1, "C", byte(10+i), i))
	}
	h := c.History(1)
	if len(h) != 3 {
		t.Fatalf("history length = %d", len(h))
	}
	if h[0].Velocity != 12 || h[2].Velocity != 14 {
		t.Fatalf("history should keep the newest events oldest first: %+v", h)
	}

	c.Clear()
	if len(c.History(1)) != 0 {
		t.Fatal("history not cleared")
	}
	if _, ok := c.Pending(1); !ok {
		t.Fatal("Clear must keep the pending open")
	}
}

func TestPairingsCountEqualsOpens(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		n := rng.Intn(30)
		events := make([]contracts.NoteEvent, n)
		opens := 0
		for i := range events {
			var v byte
			if rng.Intn(2) == 0 {
				v = byte(1 + rng.Intn(127))
				opens++
			}
			events[i] = note(1, "C", v, i*10)
		}

		pairings := Pairings(1, events)
		if len(pairings) != opens {
			t.Fatalf("run %d: %d pairings for %d opens", run, len(pairings), opens)
		}
		for _, p := range pairings {
			if !p.Open.IsOpen() {
				t.Fatalf("run %d: pairing without an open event: %+v", run, p)
			}
			if p.Completed() && p.Close.IsOpen() {
				t.Fatalf("run %d: close side is an open event", run)
			}
		}
	}
}

func TestPairingsMatchesIncrementalObserve(t *testing.T) {
	events := []contracts.NoteEvent{
		note(1, "C", 0, 0),
		note(1, "C", 80, 10),
		note(1, "D", 80, 20),
		note(1, "D", 0, 30),
		note(1, "D", 0, 40),
		note(1, "E", 70, 50),
	}

	c := newTestCorrelator(t, 0)
	var incremental []contracts.Pairing
	for _, ev := range events {
		incremental = append(incremental, c.Observe(ev).Emitted...)
	}
	incremental = append(incremental, c.Flush(1)...)

	batch := Pairings(1, events)
	if len(batch) != len(incremental) || len(batch) != 3 {
		t.Fatalf("batch %d, incremental %d, want 3", len(batch), len(incremental))
	}
	for i := range batch {
		if batch[i].Open.Name != incremental[i].Open.Name || batch[i].Completed() != incremental[i].Completed() {
			t.Fatalf("pairing %d differs: %+v vs %+v", i, batch[i], incremental[i])
		}
	}
	if batch[0].Completed() || !batch[1].Completed() || batch[2].Completed() {
		t.Fatalf("unexpected completion pattern: %+v", batch)
	}
}

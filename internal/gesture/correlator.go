// Package gesture turns per-port note streams into open/close gestures.
package gesture

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// DefaultHistorySize is the number of note events retained per port.
const DefaultHistorySize = 50

// machine is the per-port state: Idle when pending is nil, PendingOpen otherwise.
type machine struct {
	port      int
	pending   *contracts.NoteEvent
	pendingID string
}

// Result describes what one event did to its port.
type Result struct {
	Opened  bool                // the event became the pending open
	Emitted []contracts.Pairing // pairings finished by the event, oldest first
	Ignored bool                // a close with nothing pending
}

// Completed returns the completed pairing emitted by a close event, if any.
func (r Result) Completed() (contracts.Pairing, bool) {
	for _, p := range r.Emitted {
		if p.Completed() {
			return p, true
		}
	}
	return contracts.Pairing{}, false
}

func newPairingID(port int) string {
	return fmt.Sprintf("port%d-%s", port, uuid.NewString())
}

func (m *machine) step(ev contracts.NoteEvent) Result {
	var res Result
	if ev.IsOpen() {
		if p, ok := m.closeOut(); ok {
			res.Emitted = append(res.Emitted, p)
		}
		open := ev
		m.pending = &open
		m.pendingID = newPairingID(m.port)
		res.Opened = true
		return res
	}

	if m.pending == nil {
		res.Ignored = true
		return res
	}
	closeEv := ev
	res.Emitted = append(res.Emitted, contracts.Pairing{
		ID:        m.pendingID,
		Open:      *m.pending,
		Close:     &closeEv,
		StartTime: m.pending.Timestamp,
	})
	m.pending = nil
	m.pendingID = ""
	return res
}

// closeOut ends the pending open without a close.
func (m *machine) closeOut() (contracts.Pairing, bool) {
	if m.pending == nil {
		return contracts.Pairing{}, false
	}
	p := contracts.Pairing{
		ID:        m.pendingID,
		Open:      *m.pending,
		StartTime: m.pending.Timestamp,
	}
	m.pending = nil
	m.pendingID = ""
	return p, true
}

// Pairings derives the pairings of an ordered (oldest first) event sequence from one port.
// Every open yields exactly one pairing; closes with nothing pending yield none.
func Pairings(port int, events []contracts.NoteEvent) []contracts.Pairing {
	m := &machine{port: port}
	var out []contracts.Pairing
	for _, ev := range events {
		out = append(out, m.step(ev).Emitted...)
	}
	if p, ok := m.closeOut(); ok {
		out = append(out, p)
	}
	return out
}

type portState struct {
	machine machine
	history []contracts.NoteEvent // oldest first, bounded
}

// Correlator tracks one gesture state machine and a bounded history per port.
type Correlator struct {
	logger      contracts.Logger
	historySize int

	mu    sync.Mutex
	ports map[int]*portState
}

// NewCorrelator creates a correlator retaining historySize events per port
// (DefaultHistorySize when non-positive).
func NewCorrelator(logger contracts.Logger, historySize int) *Correlator {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Correlator{
		logger:      logger,
		historySize: historySize,
		ports:       make(map[int]*portState),
	}
}

func (c *Correlator) port(n int) *portState {
	ps, ok := c.ports[n]
	if !ok {
		ps = &portState{machine: machine{port: n}}
		c.ports[n] = ps
	}
	return ps
}

// Observe feeds one event, in arrival order for its port.
func (c *Correlator) Observe(ev contracts.NoteEvent) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := c.port(ev.Port)
	ps.history = append(ps.history, ev)
	if over := len(ps.history) - c.historySize; over > 0 {
		ps.history = append(ps.history[:0:0], ps.history[over:]...)
	}

	res := ps.machine.step(ev)
	if res.Ignored {
		c.logger.Debug("close without pending open ignored",
			c.logger.Field().Int("port", ev.Port),
			c.logger.Field().String("note", ev.Name))
	}
	return res
}

// Flush ends the stream for port, emitting any pending open as open-ended.
func (c *Correlator) Flush(port int) []contracts.Pairing {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps, ok := c.ports[port]
	if !ok {
		return nil
	}
	if p, ok := ps.machine.closeOut(); ok {
		return []contracts.Pairing{p}
	}
	return nil
}

// FlushAll flushes every port in ascending port order.
func (c *Correlator) FlushAll() []contracts.Pairing {
	var out []contracts.Pairing
	for _, port := range c.Ports() {
		out = append(out, c.Flush(port)...)
	}
	return out
}

// Ports lists the ports that have received events.
func (c *Correlator) Ports() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ports := make([]int, 0, len(c.ports))
	for p := range c.ports {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ports
}

// Pending returns the open event waiting for its close on port.
func (c *Correlator) Pending(port int) (contracts.NoteEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.ports[port]
	if !ok || ps.machine.pending == nil {
		return contracts.NoteEvent{}, false
	}
	return *ps.machine.pending, true
}

// History returns a copy of the retained events for port, oldest first.
func (c *Correlator) History(port int) []contracts.NoteEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.ports[port]
	if !ok {
		return nil
	}
	return append([]contracts.NoteEvent(nil), ps.history...)
}

// Clear drops the retained history of every port. Pending opens are kept.
func (c *Correlator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ps := range c.ports {
		ps.history = nil
	}
}

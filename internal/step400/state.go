package step400

import (
	"sync"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// DefaultSubscriberBuffer is the telemetry subscription buffer used when none is given.
const DefaultSubscriberBuffer = 64

// stateStore is the only writer of MotorState. Readers get copies.
type stateStore struct {
	logger contracts.Logger

	mu     sync.RWMutex
	motors map[contracts.MotorID]contracts.MotorState

	subMu         sync.Mutex
	subs          map[int]chan contracts.TelemetryEvent
	nextSub       int
	defaultBuffer int
	closed        bool
}

func newStateStore(logger contracts.Logger, buffer int) *stateStore {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &stateStore{
		logger:        logger,
		motors:        make(map[contracts.MotorID]contracts.MotorState),
		subs:          make(map[int]chan contracts.TelemetryEvent),
		defaultBuffer: buffer,
	}
}

// apply folds one motor telemetry event into the table. The event must have
// been validated by decodeTelemetry.
func (s *stateStore) apply(ev contracts.TelemetryEvent) {
	v := ev.Values[0].Int

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.motors[ev.MotorID]
	switch ev.Kind {
	case contracts.TelemetryPosition:
		st.Position = v
		st.PositionKnown = true
	case contracts.TelemetryBusy:
		st.Busy = contracts.TristateOf(v != 0)
	case contracts.TelemetryHiZ:
		st.HiZ = contracts.TristateOf(v != 0)
	case contracts.TelemetryDirection:
		if v != 0 {
			st.Direction = contracts.DirectionForward
		} else {
			st.Direction = contracts.DirectionReverse
		}
	case contracts.TelemetryStatus:
		st.Status = v
		st.StatusKnown = true
	default:
		return
	}
	st.UpdatedAt = ev.ReceivedAt
	s.motors[ev.MotorID] = st
}

func (s *stateStore) get(id contracts.MotorID) (contracts.MotorState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.motors[id]
	return st, ok
}

func (s *stateStore) snapshot() map[contracts.MotorID]contracts.MotorState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[contracts.MotorID]contracts.MotorState, len(s.motors))
	for id, st := range s.motors {
		out[id] = st
	}
	return out
}

func (s *stateStore) positions() map[contracts.MotorID]int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[contracts.MotorID]int32, len(s.motors))
	for id, st := range s.motors {
		if st.PositionKnown {
			out[id] = st.Position
		}
	}
	return out
}

func (s *stateStore) subscribe(buffer int) (<-chan contracts.TelemetryEvent, func()) {
	if buffer <= 0 {
		buffer = s.defaultBuffer
	}
	ch := make(chan contracts.TelemetryEvent, buffer)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

func (s *stateStore) publish(ev contracts.TelemetryEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("telemetry subscriber buffer full; dropping event",
				s.logger.Field().Int("subscriber", id),
				s.logger.Field().String("address", ev.Address))
		}
	}
}

func (s *stateStore) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.closed = true
}

package step400

import (
	"sort"
	"sync"
	"time"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// DefaultReportInterval is the position report cadence used when none is configured.
const DefaultReportInterval = time.Second

type reportTimer struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func (t *reportTimer) cancel() {
	close(t.stop)
	<-t.done
}

// reportScheduler keeps at most one repeating position query per motor.
type reportScheduler struct {
	logger          contracts.Logger
	defaultInterval time.Duration
	query           func(contracts.MotorID)

	mu     sync.Mutex
	timers map[contracts.MotorID]*reportTimer
	closed bool
}

func newReportScheduler(logger contracts.Logger, interval time.Duration, query func(contracts.MotorID)) *reportScheduler {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &reportScheduler{
		logger:          logger,
		defaultInterval: interval,
		query:           query,
		timers:          make(map[contracts.MotorID]*reportTimer),
	}
}

func (s *reportScheduler) start(id contracts.MotorID, interval time.Duration) {
	if interval <= 0 {
		interval = s.defaultInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Warn("controller closed; position report not started",
			s.logger.Field().Int("motorID", int(id)))
		return
	}
	if prev, ok := s.timers[id]; ok {
		prev.cancel()
	}
	t := &reportTimer{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.timers[id] = t
	go s.run(id, t)

	s.logger.Info("position report started",
		s.logger.Field().Int("motorID", int(id)),
		s.logger.Field().Duration("interval", interval))
}

func (s *reportScheduler) run(id contracts.MotorID, t *reportTimer) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			select {
			case <-t.stop:
				return
			default:
			}
			s.query(id)
		}
	}
}

// stop cancels the timers for ids, or every timer when ids is empty.
// Unknown ids are ignored.
func (s *reportScheduler) stop(ids ...contracts.MotorID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		for id, t := range s.timers {
			t.cancel()
			delete(s.timers, id)
		}
		s.logger.Debug("all position reports stopped")
		return
	}

	for _, id := range ids {
		t, ok := s.timers[id]
		if !ok {
			continue
		}
		t.cancel()
		delete(s.timers, id)
		s.logger.Info("position report stopped", s.logger.Field().Int("motorID", int(id)))
	}
}

// shutdown cancels every timer and refuses later starts.
func (s *reportScheduler) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, t := range s.timers {
		t.cancel()
		delete(s.timers, id)
	}
}

func (s *reportScheduler) active() []contracts.MotorID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]contracts.MotorID, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *reportScheduler) interval(id contracts.MotorID) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[id]
	if !ok {
		return 0, false
	}
	return t.interval, true
}

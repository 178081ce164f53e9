package step400

import (
	"sync"
	"time"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// DefaultRebootSettleDelay is the wait between "/booted" and the destination resend.
const DefaultRebootSettleDelay = 100 * time.Millisecond

// resynchronizer replays the destination configuration after the device reports
// "/booted". The STEP400 forgets its destination address on power cycle.
type resynchronizer struct {
	logger contracts.Logger
	delay  time.Duration
	send   func(contracts.Command)

	mu    sync.Mutex
	state contracts.SyncState
	dest  *contracts.Command
	timer *time.Timer
}

func newResynchronizer(logger contracts.Logger, delay time.Duration, send func(contracts.Command)) *resynchronizer {
	if delay <= 0 {
		delay = DefaultRebootSettleDelay
	}
	return &resynchronizer{
		logger: logger,
		delay:  delay,
		send:   send,
		state:  contracts.Synced,
	}
}

func (r *resynchronizer) remember(cmd contracts.Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dest = &cmd
}

func (r *resynchronizer) current() contracts.SyncState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// onBooted schedules one resend. Boots arriving while a resend is pending are absorbed.
func (r *resynchronizer) onBooted() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == contracts.AwaitingRebootConfig {
		r.logger.Debug("STEP400 boot reported while resync pending")
		return
	}
	r.logger.Warn("STEP400 rebooted; destination will be resent",
		r.logger.Field().Duration("settleDelay", r.delay))
	r.state = contracts.AwaitingRebootConfig
	r.timer = time.AfterFunc(r.delay, r.resend)
}

func (r *resynchronizer) resend() {
	r.mu.Lock()
	if r.state != contracts.AwaitingRebootConfig {
		r.mu.Unlock()
		return
	}
	r.state = contracts.Synced
	r.timer = nil
	dest := r.dest
	r.mu.Unlock()

	if dest == nil {
		r.logger.Warn("no destination configured; nothing to resend after reboot")
		return
	}
	r.send(*dest)
	r.logger.Info("destination configuration resent after reboot")
}

func (r *resynchronizer) onConfirmed(ev contracts.TelemetryEvent) {
	r.logger.Info("STEP400 destination confirmed", r.logger.Field().Int("values", len(ev.Values)))
}

func (r *resynchronizer) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.state = contracts.Synced
}

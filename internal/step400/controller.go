// Package step400 is an OSC-over-UDP client for the STEP400 four-axis
// stepper motor driver.
package step400

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/ponmachine/internal/osc"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// Error definitions for controller setup.
var (
	ErrResolveRemote = errors.New("cannot resolve STEP400 address")
	ErrBindLocal     = errors.New("cannot bind local OSC port")
	ErrClosed        = errors.New("controller closed")
	ErrNoLogger      = errors.New("controller logger is required")
)

const maxDatagramSize = 1536

// Controller owns the UDP channel to one STEP400, the motor state table and
// the position report timers.
type Controller struct {
	logger contracts.Logger
	conn   net.PacketConn
	remote net.Addr

	open      atomic.Bool
	closed    atomic.Bool
	openMu    sync.Mutex
	closeOnce sync.Once
	wg        sync.WaitGroup // receive loop

	state   *stateStore
	reports *reportScheduler
	resync  *resynchronizer
}

var _ contracts.MotorController = (*Controller)(nil)

// New resolves the remote endpoint and binds the local port (BasePort + DeviceIndex)
// unless a PacketConn is supplied. The channel stays inactive until Open.
func New(opts contracts.ControllerOptions) (*Controller, error) {
	if opts.Logger == nil {
		return nil, ErrNoLogger
	}

	remote, err := net.ResolveUDPAddr("udp", net.JoinHostPort(opts.RemoteHost, strconv.Itoa(opts.RemotePort)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolveRemote, err)
	}

	conn := opts.PacketConn
	if conn == nil {
		udp, err := net.ListenUDP("udp", &net.UDPAddr{Port: opts.LocalPort()})
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrBindLocal, opts.LocalPort(), err)
		}
		conn = udp
	}

	c := &Controller{
		logger: opts.Logger,
		conn:   conn,
		remote: remote,
		state:  newStateStore(opts.Logger, opts.SubscriberBuffer),
	}
	c.reports = newReportScheduler(opts.Logger, opts.DefaultReportInterval, c.GetPosition)
	c.resync = newResynchronizer(opts.Logger, opts.RebootSettleDelay, c.send)

	opts.Logger.Info("STEP400 controller created",
		opts.Logger.Field().String("remote", remote.String()),
		opts.Logger.Field().String("local", conn.LocalAddr().String()))
	return c, nil
}

// Open activates the channel and starts receiving telemetry.
func (c *Controller) Open() error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}
	if c.open.Load() {
		return nil
	}

	c.open.Store(true)
	c.wg.Add(1)
	go c.receiveLoop()

	c.logger.Info("STEP400 OSC connection ready")
	return nil
}

// Close stops every report timer, then releases the socket. It is safe to call more than once.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.openMu.Lock()
		defer c.openMu.Unlock()

		c.reports.shutdown()
		c.resync.stop()

		c.closed.Store(true)
		c.open.Store(false)
		err = c.conn.Close()
		c.wg.Wait()
		c.state.closeSubscribers()

		c.logger.Info("STEP400 OSC connection closed")
	})
	return err
}

// send encodes and transmits one command. Delivery is not confirmed and failures are only logged.
func (c *Controller) send(cmd contracts.Command) {
	if !c.open.Load() {
		c.logger.Warn("STEP400 channel not open; command dropped",
			c.logger.Field().String("address", string(cmd.Op)))
		return
	}

	data, err := osc.Encode(cmd)
	if err != nil {
		c.logger.Error("failed to encode STEP400 command",
			c.logger.Field().String("address", string(cmd.Op)),
			c.logger.Field().Error("error", err))
		return
	}

	if _, err := c.conn.WriteTo(data, c.remote); err != nil {
		c.logger.Error("STEP400 OSC error",
			c.logger.Field().String("address", string(cmd.Op)),
			c.logger.Field().Error("error", err))
		return
	}

	c.logger.Debug("STEP400 command sent",
		c.logger.Field().String("address", string(cmd.Op)),
		c.logger.Field().Int("motorID", int(cmd.MotorID)))
}

func (c *Controller) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := c.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || c.closed.Load() {
				return
			}
			c.logger.Error("STEP400 OSC error", c.logger.Field().Error("error", err))
			continue
		}
		if from != nil {
			c.logger.Debug("STEP400 datagram received",
				c.logger.Field().String("from", from.String()),
				c.logger.Field().Int("bytes", n))
		}
		c.handleDatagram(buf[:n], time.Now())
	}
}

// SyncState reports whether a post-reboot resend is pending.
func (c *Controller) SyncState() contracts.SyncState {
	return c.resync.current()
}

// State returns the last known telemetry for one motor.
func (c *Controller) State(id contracts.MotorID) (contracts.MotorState, bool) {
	return c.state.get(id)
}

// Snapshot returns a copy of every known motor state.
func (c *Controller) Snapshot() map[contracts.MotorID]contracts.MotorState {
	return c.state.snapshot()
}

// Positions is the aggregate position view: every motor whose position has been reported.
func (c *Controller) Positions() map[contracts.MotorID]int32 {
	return c.state.positions()
}

// Subscribe returns a telemetry stream and a function that ends the subscription.
// Events are dropped for a subscriber whose buffer is full.
func (c *Controller) Subscribe(buffer int) (<-chan contracts.TelemetryEvent, func()) {
	return c.state.subscribe(buffer)
}

// StartPositionReport polls /getPosition for id every interval, replacing any running report for id.
// A non-positive interval uses the configured default.
func (c *Controller) StartPositionReport(id contracts.MotorID, interval time.Duration) {
	if !c.validMotor(id, contracts.OpGetPosition) {
		return
	}
	c.reports.start(id, interval)
}

// StopPositionReport stops the reports for ids, or all reports when no id is given.
func (c *Controller) StopPositionReport(ids ...contracts.MotorID) {
	c.reports.stop(ids...)
}

// ActiveReports lists the motors with a running position report.
func (c *Controller) ActiveReports() []contracts.MotorID {
	return c.reports.active()
}

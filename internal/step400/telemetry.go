package step400

import (
	"errors"
	"fmt"
	"time"

	"github.com/leandrodaf/ponmachine/internal/osc"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// ErrMalformedTelemetry is returned for a known tag with missing or mistyped values.
var ErrMalformedTelemetry = errors.New("malformed telemetry")

var telemetryKinds = map[string]contracts.TelemetryKind{
	contracts.TagPosition: contracts.TelemetryPosition,
	contracts.TagBusy:     contracts.TelemetryBusy,
	contracts.TagHiZ:      contracts.TelemetryHiZ,
	contracts.TagDir:      contracts.TelemetryDirection,
	contracts.TagStatus:   contracts.TelemetryStatus,
	contracts.TagBooted:   contracts.TelemetryBooted,
	contracts.TagDestIP:   contracts.TelemetryDestIP,
}

func isMotorTelemetry(kind contracts.TelemetryKind) bool {
	switch kind {
	case contracts.TelemetryPosition, contracts.TelemetryBusy, contracts.TelemetryHiZ,
		contracts.TelemetryDirection, contracts.TelemetryStatus:
		return true
	}
	return false
}

// decodeTelemetry classifies one OSC message. Motor tags must carry an integer
// motor id followed by an integer value.
func decodeTelemetry(m osc.Message, at time.Time) (contracts.TelemetryEvent, error) {
	kind := telemetryKinds[m.Address]
	ev := contracts.TelemetryEvent{
		Kind:       kind,
		Address:    m.Address,
		Values:     m.Args,
		ReceivedAt: at,
	}
	if !isMotorTelemetry(kind) {
		return ev, nil
	}

	if len(m.Args) < 2 {
		return ev, fmt.Errorf("%w: %s has %d values", ErrMalformedTelemetry, m.Address, len(m.Args))
	}
	if m.Args[0].Type != contracts.IntArg || m.Args[1].Type != contracts.IntArg {
		return ev, fmt.Errorf("%w: %s expects integers", ErrMalformedTelemetry, m.Address)
	}
	id := contracts.MotorID(m.Args[0].Int)
	if !id.Valid() {
		return ev, fmt.Errorf("%w: %s motor id %d", ErrMalformedTelemetry, m.Address, id)
	}

	ev.MotorID = id
	ev.Values = m.Args[1:]
	return ev, nil
}

// handleDatagram decodes and dispatches one inbound datagram. Bad input is logged and dropped.
func (c *Controller) handleDatagram(data []byte, at time.Time) {
	msgs, err := osc.Decode(data)
	if err != nil {
		c.logger.Warn("dropping telemetry datagram", c.logger.Field().Error("error", err))
		return
	}

	for _, m := range msgs {
		ev, err := decodeTelemetry(m, at)
		if err != nil {
			c.logger.Warn("dropping telemetry message", c.logger.Field().Error("error", err))
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Controller) dispatch(ev contracts.TelemetryEvent) {
	switch {
	case isMotorTelemetry(ev.Kind):
		c.state.apply(ev)
		if ev.Kind == contracts.TelemetryPosition {
			c.logger.Debug("motor position",
				c.logger.Field().Int("motorID", int(ev.MotorID)),
				c.logger.Field().Int64("position", int64(ev.Values[0].Int)))
		}
	case ev.Kind == contracts.TelemetryBooted:
		c.resync.onBooted()
	case ev.Kind == contracts.TelemetryDestIP:
		c.resync.onConfirmed(ev)
	default:
		c.logger.Debug("unhandled telemetry",
			c.logger.Field().String("address", ev.Address),
			c.logger.Field().Int("values", len(ev.Values)))
	}
	c.state.publish(ev)
}

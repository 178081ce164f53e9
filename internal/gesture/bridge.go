package gesture

import (
	"context"
	"sync"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// MotionSink receives the motion commands derived from gestures.
type MotionSink interface {
	MoveToOpenPosition(id contracts.MotorID)
	MoveToClosePosition(id contracts.MotorID)
}

// BridgeConfig maps input ports to their targets.
type BridgeConfig struct {
	MotorPorts  map[int]contracts.MotorID // port -> motor driven by its gestures
	CameraPort  int                       // port whose opens select cameras
	CameraNotes map[string]int            // pitch class -> camera id
}

// DefaultBridgeConfig drives motors 1 and 2 from ports 1 and 2 and cameras 1..4 from C, D, E, F on port 3.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		MotorPorts:  map[int]contracts.MotorID{1: 1, 2: 2},
		CameraPort:  3,
		CameraNotes: map[string]int{"C": 1, "D": 2, "E": 3, "F": 4},
	}
}

// Bridge routes note events through the correlator to the motors and the switcher.
type Bridge struct {
	logger     contracts.Logger
	correlator *Correlator
	motors     MotionSink
	switcher   contracts.Switcher
	cfg        BridgeConfig
}

// NewBridge wires a correlator to its outputs. switcher may be nil.
func NewBridge(logger contracts.Logger, correlator *Correlator, motors MotionSink, switcher contracts.Switcher, cfg BridgeConfig) *Bridge {
	return &Bridge{
		logger:     logger,
		correlator: correlator,
		motors:     motors,
		switcher:   switcher,
		cfg:        cfg,
	}
}

// HandleNote processes one event and issues the resulting commands.
func (b *Bridge) HandleNote(ev contracts.NoteEvent) Result {
	res := b.correlator.Observe(ev)
	for _, p := range res.Emitted {
		b.logPairing(p)
	}

	if motor, ok := b.cfg.MotorPorts[ev.Port]; ok {
		if res.Opened {
			b.motors.MoveToOpenPosition(motor)
		}
		if _, ok := res.Completed(); ok {
			b.motors.MoveToClosePosition(motor)
		}
	}

	if ev.Port == b.cfg.CameraPort && res.Opened {
		b.selectCamera(ev)
	}
	return res
}

func (b *Bridge) selectCamera(ev contracts.NoteEvent) {
	camera, ok := b.cfg.CameraNotes[ev.Name]
	if !ok || b.switcher == nil {
		return
	}
	if err := b.switcher.SwitchCamera(camera); err != nil {
		b.logger.Error("camera switch failed",
			b.logger.Field().Int("camera", camera),
			b.logger.Field().Error("error", err))
		return
	}
	b.logger.Info("camera selected",
		b.logger.Field().Int("camera", camera),
		b.logger.Field().String("note", ev.Name))
}

func (b *Bridge) logPairing(p contracts.Pairing) {
	if p.Completed() {
		b.logger.Info("gesture completed",
			b.logger.Field().String("id", p.ID),
			b.logger.Field().Int("port", p.Open.Port),
			b.logger.Field().String("note", p.Open.Name),
			b.logger.Field().Duration("duration", p.Duration()))
		return
	}
	b.logger.Info("gesture left open",
		b.logger.Field().String("id", p.ID),
		b.logger.Field().Int("port", p.Open.Port),
		b.logger.Field().String("note", p.Open.Name))
}

type portEvent struct {
	port  int
	event contracts.MIDI
}

// Run consumes every input until ctx is done or all inputs are closed.
// Events from all ports are handled one at a time on the calling goroutine.
// Pending opens are flushed as open-ended when Run returns.
func (b *Bridge) Run(ctx context.Context, inputs map[int]<-chan contracts.MIDI) error {
	merged := make(chan portEvent)
	var wg sync.WaitGroup
	for port, ch := range inputs {
		wg.Add(1)
		go func(port int, ch <-chan contracts.MIDI) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case m, ok := <-ch:
					if !ok {
						return
					}
					select {
					case merged <- portEvent{port: port, event: m}:
					case <-ctx.Done():
						return
					}
				}
			}
		}(port, ch)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	defer func() {
		for _, p := range b.correlator.FlushAll() {
			b.logPairing(p)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pe, ok := <-merged:
			if !ok {
				return nil
			}
			if ev, ok := ToNoteEvent(pe.port, pe.event); ok {
				b.HandleNote(ev)
			}
		}
	}
}

package contracts

import (
	"net"
	"time"
)

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
)

// MIDIEventFilter allows users to specify which MIDI commands to capture.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to filter.
}

// Allows reports whether command passes the filter. A nil filter allows everything.
func (f *MIDIEventFilter) Allows(command byte) bool {
	if f == nil {
		return true
	}
	for _, allowed := range f.Commands {
		if command == byte(allowed) {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// ClientOptions defines the configuration options for the MIDI client.
type ClientOptions struct {
	Logger          Logger           // Logger for logging events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	LogFilePath     string           // File path for logging if file logging is enabled.
	MIDIEventFilter *MIDIEventFilter // Optional filter for MIDI events to capture.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI client.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI client.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithMIDIEventFilter sets the MIDI event filter for the MIDI client.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// ControllerOptions configures a STEP400 controller.
type ControllerOptions struct {
	Logger                Logger
	LogLevel              LogLevel
	RemoteHost            string        // Device address.
	RemotePort            int           // Device OSC receive port.
	BasePort              int           // Local port is BasePort + DeviceIndex.
	DeviceIndex           int           // Device instance index (DIP switch id on the board).
	RebootSettleDelay     time.Duration // Wait after "/booted" before resending the destination config.
	DefaultReportInterval time.Duration // Position report cadence when none is given.
	SubscriberBuffer      int           // Default telemetry subscription buffer.
	PacketConn            net.PacketConn
}

// LocalPort is the UDP port the controller listens on.
func (o ControllerOptions) LocalPort() int {
	return o.BasePort + o.DeviceIndex
}

// ControllerOption modifies ControllerOptions.
type ControllerOption func(*ControllerOptions)

// WithControllerLogger sets the controller logger.
func WithControllerLogger(l Logger) ControllerOption {
	return func(opts *ControllerOptions) {
		opts.Logger = l
	}
}

// WithControllerLogLevel sets the controller log level.
func WithControllerLogLevel(level LogLevel) ControllerOption {
	return func(opts *ControllerOptions) {
		opts.LogLevel = level
	}
}

// WithRemote sets the device address and port.
func WithRemote(host string, port int) ControllerOption {
	return func(opts *ControllerOptions) {
		opts.RemoteHost = host
		opts.RemotePort = port
	}
}

// WithLocalPort sets the local base port and the device index added to it.
func WithLocalPort(basePort, deviceIndex int) ControllerOption {
	return func(opts *ControllerOptions) {
		opts.BasePort = basePort
		opts.DeviceIndex = deviceIndex
	}
}

// WithRebootSettleDelay sets the delay between "/booted" and the destination resend.
func WithRebootSettleDelay(d time.Duration) ControllerOption {
	return func(opts *ControllerOptions) {
		opts.RebootSettleDelay = d
	}
}

// WithDefaultReportInterval sets the cadence used when StartPositionReport gets no interval.
func WithDefaultReportInterval(d time.Duration) ControllerOption {
	return func(opts *ControllerOptions) {
		opts.DefaultReportInterval = d
	}
}

// WithSubscriberBuffer sets the buffer used by Subscribe when it is given a non-positive size.
func WithSubscriberBuffer(n int) ControllerOption {
	return func(opts *ControllerOptions) {
		opts.SubscriberBuffer = n
	}
}

// WithPacketConn makes the controller use conn instead of binding its own socket.
func WithPacketConn(conn net.PacketConn) ControllerOption {
	return func(opts *ControllerOptions) {
		opts.PacketConn = conn
	}
}

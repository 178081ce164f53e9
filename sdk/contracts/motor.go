package contracts

import (
	"fmt"
	"time"
)

// MotorID identifies one axis on the STEP400 (1..4).
type MotorID int

// AllMotors addresses every axis at once; only accepted by commands that the device applies globally.
const AllMotors MotorID = 255

// MaxMotorID is the highest single-axis identity on a STEP400.
const MaxMotorID MotorID = 4

// Valid reports whether id names a single physical axis.
func (id MotorID) Valid() bool {
	return id >= 1 && id <= MaxMotorID
}

// Operation is the OSC address of a command understood by the device.
type Operation string

const (
	OpSetCurrentMode          Operation = "/setCurrentMode"
	OpSetTval                 Operation = "/setTval"
	OpSetSpeedProfile         Operation = "/setSpeedProfile"
	OpRun                     Operation = "/run"
	OpSoftStop                Operation = "/softStop"
	OpHardStop                Operation = "/hardStop"
	OpSoftHiZ                 Operation = "/softHiZ"
	OpHardHiZ                 Operation = "/hardHiZ"
	OpGoTo                    Operation = "/goTo"
	OpMove                    Operation = "/move"
	OpGoHome                  Operation = "/goHome"
	OpHoming                  Operation = "/homing"
	OpSetHomingDirection      Operation = "/setHomingDirection"
	OpSetHomeSwMode           Operation = "/setHomeSwMode"
	OpSetMicrostepMode        Operation = "/setMicrostepMode"
	OpGetMicrostepMode        Operation = "/getMicrostepMode"
	OpGetPosition             Operation = "/getPosition"
	OpGetStatus               Operation = "/getStatus"
	OpGetBusy                 Operation = "/getBusy"
	OpGetHiZ                  Operation = "/getHiZ"
	OpGetDir                  Operation = "/getDir"
	OpEnableBusyReport        Operation = "/enableBusyReport"
	OpEnableHiZReport         Operation = "/enableHizReport"
	OpEnableDirReport         Operation = "/enableDirReport"
	OpEnableMotorStatusReport Operation = "/enableMotorStatusReport"
	OpSetDestIP               Operation = "/setDestIp"
)

// ArgType is the OSC type tag of an argument.
type ArgType byte

const (
	IntArg    ArgType = 'i'
	FloatArg  ArgType = 'f'
	StringArg ArgType = 's'
)

// Arg is one typed OSC argument.
type Arg struct {
	Type  ArgType
	Int   int32
	Float float32
	Str   string
}

// Int builds an integer argument.
func Int(v int32) Arg { return Arg{Type: IntArg, Int: v} }

// Float builds a float argument.
func Float(v float32) Arg { return Arg{Type: FloatArg, Float: v} }

// String builds a string argument.
func String(v string) Arg { return Arg{Type: StringArg, Str: v} }

func (a Arg) String() string {
	switch a.Type {
	case IntArg:
		return fmt.Sprintf("i:%d", a.Int)
	case FloatArg:
		return fmt.Sprintf("f:%g", a.Float)
	case StringArg:
		return fmt.Sprintf("s:%q", a.Str)
	}
	return "?"
}

// Command is one outbound message. MotorID 0 means the operation carries no motor id.
type Command struct {
	Op      Operation
	MotorID MotorID
	Args    []Arg
}

// Arguments returns the full argument list as sent on the wire, motor id first.
func (c Command) Arguments() []Arg {
	if c.MotorID == 0 {
		return c.Args
	}
	out := make([]Arg, 0, len(c.Args)+1)
	out = append(out, Int(int32(c.MotorID)))
	return append(out, c.Args...)
}

// Telemetry address tags sent by the device.
const (
	TagPosition     = "/position"
	TagBusy         = "/busy"
	TagHiZ          = "/HiZ"
	TagDir          = "/dir"
	TagStatus       = "/status"
	TagBooted       = "/booted"
	TagDestIP       = "/destIp"
	TagMicrostep    = "/microstepMode"
	TagErrorCommand = "/error/command"
	TagErrorOSC     = "/error/osc"
)

// TelemetryKind classifies a decoded telemetry datagram.
type TelemetryKind int

const (
	TelemetryUnknown TelemetryKind = iota
	TelemetryPosition
	TelemetryBusy
	TelemetryHiZ
	TelemetryDirection
	TelemetryStatus
	TelemetryBooted
	TelemetryDestIP
)

// TelemetryEvent is one decoded inbound message.
// MotorID is 0 for tags that do not carry one; Values excludes the motor id.
type TelemetryEvent struct {
	Kind       TelemetryKind
	Address    string
	MotorID    MotorID
	Values     []Arg
	ReceivedAt time.Time
}

// Tristate holds a boolean that may not have been reported yet.
type Tristate int

const (
	Unknown Tristate = iota
	False
	True
)

// TristateOf converts a reported boolean.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Direction is the rotation direction reported by the driver.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionForward
	DirectionReverse
)

// MotorState is the last known telemetry for one axis.
type MotorState struct {
	Position      int32
	PositionKnown bool
	Busy          Tristate
	HiZ           Tristate
	Direction     Direction
	Status        int32
	StatusKnown   bool
	UpdatedAt     time.Time
}

// SyncState is the reboot resynchronizer state.
type SyncState int

const (
	Synced SyncState = iota
	AwaitingRebootConfig
)

func (s SyncState) String() string {
	if s == AwaitingRebootConfig {
		return "awaiting-reboot-config"
	}
	return "synced"
}

// MotorController is the command and telemetry surface of a STEP400 client.
// Command methods are fire-and-forget: they never report delivery.
type MotorController interface {
	Open() error
	Close() error

	SetCurrentMode(id MotorID)
	SetTval(id MotorID, tval int32)
	SetSpeedProfile(id MotorID, maxSpeed float32)
	Run(id MotorID, speed float32)
	SoftStop(id MotorID)
	HardStop(id MotorID)
	SoftHiZ(id MotorID)
	HardHiZ(id MotorID)
	GoTo(id MotorID, position int32)
	Move(id MotorID, steps int32)
	GoHome(id MotorID)
	Homing(id MotorID)
	SetHomingDirection(id MotorID, direction int32)
	SetHomeSwMode(id MotorID, mode int32)
	SetMicrostepMode(id MotorID, mode int32)
	GetMicrostepMode(id MotorID)
	GetPosition(id MotorID)
	GetStatus(id MotorID)
	GetBusy(id MotorID)
	GetHiZ(id MotorID)
	GetDir(id MotorID)
	EnableBusyReport(id MotorID, enable bool)
	EnableHiZReport(id MotorID, enable bool)
	EnableDirReport(id MotorID, enable bool)
	EnableMotorStatusReport(id MotorID, enable bool)
	SetDestIP()

	MoveToOpenPosition(id MotorID)
	MoveToClosePosition(id MotorID)

	StartPositionReport(id MotorID, interval time.Duration)
	StopPositionReport(ids ...MotorID)

	State(id MotorID) (MotorState, bool)
	Snapshot() map[MotorID]MotorState
	Positions() map[MotorID]int32
	Subscribe(buffer int) (<-chan TelemetryEvent, func())
	SyncState() SyncState
}

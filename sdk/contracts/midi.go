package contracts

import "time"

// MIDI represents a MIDI event with a timestamp, command, channel, note, and velocity.
type MIDI struct {
	Timestamp uint64 // Timestamp in nanoseconds since the Unix epoch.
	Command   byte   // Command specifies the type of MIDI event (e.g., Note On, Note Off), channel nibble cleared.
	Channel   byte   // Channel is the zero-based MIDI channel taken from the status byte.
	Note      byte   // Note represents the MIDI note number (0-127).
	Velocity  byte   // Velocity indicates the strength of the note being played (0-127).
}

// IsNoteOn reports whether the event is a press. A Note On with velocity 0 is a release.
func (m MIDI) IsNoteOn() bool {
	return m.Command == byte(NoteOn) && m.Velocity > 0
}

// IsNoteOff reports whether the event is a release.
func (m MIDI) IsNoteOff() bool {
	return m.Command == byte(NoteOff) || (m.Command == byte(NoteOn) && m.Velocity == 0)
}

// ClientMIDI defines an interface for MIDI client operations.
type ClientMIDI interface {
	Stop() error                         // Stops the MIDI client and releases resources.
	ListDevices() ([]DeviceInfo, error)  // Lists all available MIDI devices.
	SelectDevice(deviceID int) error     // Selects a MIDI device by its ID for communication.
	StartCapture(eventChannel chan MIDI) // Starts capturing MIDI events and sends them to the specified channel.
}

// NewMIDI builds an event from a three-byte channel message received at.
func NewMIDI(status, data1, data2 byte, at time.Time) MIDI {
	return MIDI{
		Timestamp: uint64(at.UnixNano()),
		Command:   status & 0xF0,
		Channel:   status & 0x0F,
		Note:      data1,
		Velocity:  data2,
	}
}

// Time converts the timestamp back to a time.Time.
func (m MIDI) Time() time.Time {
	return time.Unix(0, int64(m.Timestamp))
}

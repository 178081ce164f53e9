package contracts

import "time"

// NoteEvent is one press or release on a logical input port.
type NoteEvent struct {
	Port      int       // Logical input port (1, 2 drive motors; 3 drives the switcher).
	Number    byte      // MIDI note number.
	Name      string    // Pitch class name, e.g. "C#".
	Octave    int       // Octave, with middle C in octave 4.
	Velocity  byte      // Velocity > 0 opens, 0 closes.
	Timestamp time.Time // Arrival time.
}

// IsOpen reports whether the event starts a gesture.
func (n NoteEvent) IsOpen() bool { return n.Velocity > 0 }

// Pairing is an open event with its matching close, if any.
type Pairing struct {
	ID        string
	Open      NoteEvent
	Close     *NoteEvent // nil for an open-ended pairing
	StartTime time.Time
}

// Completed reports whether the pairing has a matching close.
func (p Pairing) Completed() bool { return p.Close != nil }

// Duration is the time between open and close; zero when open-ended.
func (p Pairing) Duration() time.Duration {
	if p.Close == nil {
		return 0
	}
	return p.Close.Timestamp.Sub(p.Open.Timestamp)
}

// Switcher selects a camera on the vision mixer.
type Switcher interface {
	SwitchCamera(cameraID int) error
}

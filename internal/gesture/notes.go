package gesture

import (
	"time"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName returns the pitch class and octave of a MIDI note number (60 is C4).
func NoteName(number byte) (string, int) {
	return noteNames[number%12], int(number)/12 - 1
}

// ToNoteEvent converts a raw MIDI event received on port. Non-note commands return false.
func ToNoteEvent(port int, m contracts.MIDI) (contracts.NoteEvent, bool) {
	var velocity byte
	switch {
	case m.IsNoteOn():
		velocity = m.Velocity
	case m.IsNoteOff():
		velocity = 0
	default:
		return contracts.NoteEvent{}, false
	}

	name, octave := NoteName(m.Note)
	ts := m.Time()
	if m.Timestamp == 0 {
		ts = time.Now()
	}
	return contracts.NoteEvent{
		Port:      port,
		Number:    m.Note,
		Name:      name,
		Octave:    octave,
		Velocity:  velocity,
		Timestamp: ts,
	}, true
}

package midi

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// ErrNoMatchingDevice is returned when neither the name nor the fallback index selects a device.
var ErrNoMatchingDevice = errors.New("no matching MIDI device")

// PortSelection describes which input device feeds one logical port.
type PortSelection struct {
	Port     int    // Logical port number.
	Match    string // Substring of the device name; tried first.
	Fallback int    // Device index used when Match finds nothing; negative disables.
}

// ChooseDevice resolves a selection against the device list.
func ChooseDevice(devices []contracts.DeviceInfo, sel PortSelection) (int, error) {
	if idx, ok := contracts.FindDevice(devices, sel.Match); ok {
		return idx, nil
	}
	if sel.Fallback >= 0 && sel.Fallback < len(devices) {
		return sel.Fallback, nil
	}
	return -1, fmt.Errorf("%w for port %d (match %q)", ErrNoMatchingDevice, sel.Port, sel.Match)
}

// OpenPort creates a client, selects the device for sel and starts capturing into events.
func OpenPort(sel PortSelection, events chan contracts.MIDI, opts ...contracts.Option) (contracts.ClientMIDI, error) {
	client, err := NewMIDIClient(opts...)
	if err != nil {
		return nil, err
	}

	devices, err := client.ListDevices()
	if err != nil {
		_ = client.Stop()
		return nil, err
	}
	idx, err := ChooseDevice(devices, sel)
	if err != nil {
		_ = client.Stop()
		return nil, err
	}
	if err := client.SelectDevice(idx); err != nil {
		_ = client.Stop()
		return nil, err
	}

	client.StartCapture(events)
	return client, nil
}

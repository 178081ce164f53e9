package contracts

import "strings"

// DeviceInfo contains information about a MIDI device.
type DeviceInfo struct {
	Index        int    // Position in the list returned by ListDevices.
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}

// FindDevice returns the index of the first device whose name contains substr.
func FindDevice(devices []DeviceInfo, substr string) (int, bool) {
	if substr == "" {
		return -1, false
	}
	for i, d := range devices {
		if strings.Contains(d.Name, substr) || strings.Contains(d.EntityName, substr) {
			return i, true
		}
	}
	return -1, false
}

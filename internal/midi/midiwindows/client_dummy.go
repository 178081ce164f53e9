//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

var errNotWindows = errors.New("winmm MIDI is only available on Windows")

type unavailableClient struct {
	logger contracts.Logger
}

// NewMIDIClient returns a client that reports winmm as unavailable.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("winmm MIDI unavailable on this platform")
	return &unavailableClient{logger: options.Logger}, nil
}

func (m *unavailableClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, errNotWindows
}

func (m *unavailableClient) SelectDevice(int) error {
	return errNotWindows
}

func (m *unavailableClient) StartCapture(chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on unavailable winmm client")
}

func (m *unavailableClient) Stop() error {
	return nil
}

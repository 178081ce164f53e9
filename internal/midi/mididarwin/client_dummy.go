//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

var errNotDarwin = errors.New("CoreMIDI is only available on macOS")

type unavailableClient struct {
	logger contracts.Logger
}

// NewMIDIClient returns a client that reports CoreMIDI as unavailable.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("CoreMIDI unavailable on this platform")
	return &unavailableClient{logger: options.Logger}, nil
}

func (m *unavailableClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, errNotDarwin
}

func (m *unavailableClient) SelectDevice(int) error {
	return errNotDarwin
}

func (m *unavailableClient) StartCapture(chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on unavailable CoreMIDI client")
}

func (m *unavailableClient) Stop() error {
	return nil
}

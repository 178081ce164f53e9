package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/ponmachine/internal/logger"
	"github.com/leandrodaf/ponmachine/internal/midi/mididarwin"
	"github.com/leandrodaf/ponmachine/internal/midi/midiwindows"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system is not supported by the MIDI client.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to corresponding MIDI client initializers.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.ClientMIDI, error){
	"darwin":  mididarwin.NewMIDIClient,
	"windows": midiwindows.NewMIDIClient,
}

// NewMIDIClient creates a MIDI input client for the current operating system.
//
// opts ...contracts.Option: option functions that customize the client configuration.
//
// Returns:
//   - contracts.ClientMIDI: an instance of the MIDI client.
//   - error: ErrUnsupportedOS, or an error from the platform initializer.
func NewMIDIClient(opts ...contracts.Option) (contracts.ClientMIDI, error) {
	options := applyDefaultOptions(opts...)

	initializer, ok := clientInitializers[runtime.GOOS]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
	}
	return initializer(&options)
}

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) contracts.ClientOptions {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "PonMachine"}
	}
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}

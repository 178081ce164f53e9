//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices        = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice    = errors.New("invalid MIDI device")
	ErrMIDIConnectionError  = errors.New("error connecting to MIDI device")
	ErrCreateInputPort      = errors.New("error creating input port")
	ErrIncompleteMIDIPacket = errors.New("incomplete MIDI packet")
)

type portConnection interface {
	Disconnect()
}

// ClientMid reads note events from one CoreMIDI source.
type ClientMid struct {
	logger          contracts.Logger
	eventChannel    atomic.Value // chan contracts.MIDI
	client          coremidi.Client
	inputPort       coremidi.InputPort
	portConn        portConnection
	midiEventFilter *contracts.MIDIEventFilter
	mu              sync.Mutex
	capturing       bool
	wg              sync.WaitGroup // in-flight callbacks
}

// NewMIDIClient creates a CoreMIDI client named after options.CoreMIDIConfig.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI client successfully created",
		options.Logger.Field().String("clientName", options.CoreMIDIConfig.ClientName))

	return &ClientMid{
		logger:          options.Logger,
		client:          client,
		midiEventFilter: options.MIDIEventFilter,
	}, nil
}

// ListDevices returns every CoreMIDI source.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			Index:        i,
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects the input port to source deviceID, replacing any previous connection.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	m.disconnectLocked()

	source := sources[deviceID]
	m.inputPort, err = coremidi.NewInputPort(m.client, "PonMachine Input", m.handlePacket)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}
	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device connected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))
	return nil
}

// handlePacket splits a CoreMIDI packet into note messages and forwards them without blocking.
func (m *ClientMid) handlePacket(_ coremidi.Source, packet coremidi.Packet) {
	m.wg.Add(1)
	defer m.wg.Done()

	events, _ := m.eventChannel.Load().(chan contracts.MIDI)
	if events == nil {
		return
	}

	now := time.Now()
	data := packet.Data
	for len(data) > 0 {
		if data[0]&0x80 == 0 {
			data = data[1:] // stray data byte
			continue
		}
		if len(data) < 3 {
			m.logger.Warn(ErrIncompleteMIDIPacket.Error(), m.logger.Field().Int("bytes", len(data)))
			return
		}
		event := contracts.NewMIDI(data[0], data[1], data[2], now)
		data = data[3:]

		if !m.midiEventFilter.Allows(event.Command) {
			continue
		}
		select {
		case events <- event:
		default:
			m.logger.Warn("event buffer full; dropping MIDI event",
				m.logger.Field().Uint8("note", event.Note))
		}
	}
}

// StartCapture routes incoming events to eventChannel.
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.capturing {
		m.logger.Warn("capture already started; switching event channel")
	}

	m.eventChannel.Store(eventChannel)
	m.capturing = true
	m.logger.Info("MIDI event capture started")
}

// Stop disconnects the source and waits for in-flight callbacks. Calling it twice is harmless.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.capturing && m.portConn == nil {
		return nil
	}
	m.disconnectLocked()
	m.capturing = false
	m.eventChannel.Store(make(chan contracts.MIDI))
	m.wg.Wait()

	m.logger.Info("MIDI capture stopped")
	return nil
}

func (m *ClientMid) disconnectLocked() {
	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}
}

//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
	"golang.org/x/sys/windows"
)

type hMidiIn windows.Handle

const (
	callbackFunction = 0x00030000
	midiIOStatus     = 0x00000020
)

// winmm input messages.
const (
	mimOpen      = 0x3C1
	mimClose     = 0x3C2
	mimData      = 0x3C3
	mimError     = 0x3C5
	mimLongError = 0x3C6
	mimMoreData  = 0x3CC
)

var (
	ErrNoMIDIDevices = errors.New("no MIDI devices found")
	ErrNotConnected  = errors.New("no MIDI device selected")
)

type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInClose      = winmm.NewProc("midiInClose")

	// The winmm callback is a process-wide trampoline; instances are looked up by id.
	callbackOnce sync.Once
	callbackPtr  uintptr
	clients      sync.Map // uintptr -> *ClientMid
	nextClientID atomic.Uintptr
)

// ClientMid reads note events from one winmm input device.
type ClientMid struct {
	id              uintptr
	logger          contracts.Logger
	eventChannel    atomic.Value // chan contracts.MIDI
	handle          hMidiIn
	connected       bool
	started         bool
	mu              sync.Mutex
	midiEventFilter *contracts.MIDIEventFilter
}

// NewMIDIClient creates a winmm MIDI input client.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(midiInCallback)
	})

	m := &ClientMid{
		id:              nextClientID.Add(1),
		logger:          options.Logger,
		midiEventFilter: options.MIDIEventFilter,
	}
	clients.Store(m.id, m)
	options.Logger.Info("MIDI client created for Windows")
	return m, nil
}

// ListDevices lists the winmm input devices.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			m.logger.Warn("failed to query MIDI device", m.logger.Field().Int("deviceID", int(i)))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		devices = append(devices, contracts.DeviceInfo{
			Index:        int(i),
			Name:         name,
			EntityName:   name,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return devices, nil
}

// SelectDevice opens device deviceID, closing any device opened before.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		if err := m.closeLocked(); err != nil {
			return fmt.Errorf("failed to close previous MIDI device: %w", err)
		}
	}

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&m.handle)),
		uintptr(deviceID),
		callbackPtr,
		m.id,
		uintptr(callbackFunction|midiIOStatus),
	)
	if r1 != 0 {
		return fmt.Errorf("failed to open MIDI device %d: %v", deviceID, err)
	}

	m.connected = true
	m.logger.Info("MIDI device connected", m.logger.Field().Int("deviceID", deviceID))
	return nil
}

// StartCapture starts the device and routes events to eventChannel.
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		m.logger.Error(ErrNotConnected.Error())
		return
	}
	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	m.eventChannel.Store(eventChannel)
	if m.started {
		return
	}

	if r1, _, err := procMidiInStart.Call(uintptr(m.handle)); r1 != 0 {
		m.logger.Error("failed to start MIDI capture", m.logger.Field().Error("error", err))
		return
	}
	m.started = true
	m.logger.Info("MIDI capture started")
}

func midiInCallback(_ uintptr, wMsg uint32, dwInstance, dwParam1, _ uintptr) uintptr {
	v, ok := clients.Load(dwInstance)
	if !ok {
		return 0
	}
	m := v.(*ClientMid)

	switch wMsg {
	case mimOpen:
		m.logger.Debug("MIDI device opened")
	case mimClose:
		m.logger.Debug("MIDI device closed")
	case mimData:
		event := contracts.NewMIDI(
			byte(dwParam1&0xFF),
			byte((dwParam1>>8)&0xFF),
			byte((dwParam1>>16)&0xFF),
			time.Now(),
		)
		if !m.midiEventFilter.Allows(event.Command) {
			return 0
		}
		if ch, ok := m.eventChannel.Load().(chan contracts.MIDI); ok && ch != nil {
			select {
			case ch <- event:
			default:
				m.logger.Warn("event buffer full; dropping MIDI event", m.logger.Field().Uint8("note", event.Note))
			}
		}
	case mimError, mimLongError:
		m.logger.Error("MIDI input error", m.logger.Field().Uint64("message", uint64(wMsg)))
	case mimMoreData:
	default:
		m.logger.Debug("unknown MIDI input message", m.logger.Field().Uint64("message", uint64(wMsg)))
	}
	return 0
}

// Stop stops capture and closes the device.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}
	if err := m.closeLocked(); err != nil {
		return fmt.Errorf("failed to stop MIDI capture: %w", err)
	}
	m.logger.Info("MIDI capture stopped and device closed")
	return nil
}

func (m *ClientMid) closeLocked() error {
	if m.started {
		if r1, _, err := procMidiInStop.Call(uintptr(m.handle)); r1 != 0 {
			return err
		}
		m.started = false
	}
	if r1, _, err := procMidiInClose.Call(uintptr(m.handle)); r1 != 0 {
		return err
	}
	m.connected = false
	m.handle = 0
	m.eventChannel.Store(make(chan contracts.MIDI))
	return nil
}

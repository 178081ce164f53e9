// Package config loads the runner configuration file.
package config

import (
	"os"
	"time"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root of the configuration file.
type Config struct {
	Step400  Step400Config  `yaml:"step400"`
	MIDI     MIDIConfig     `yaml:"midi"`
	Switcher SwitcherConfig `yaml:"switcher"`
	Log      LogConfig      `yaml:"log"`
}

// Step400Config describes the motor controller and the per-motor setup sent at startup.
type Step400Config struct {
	RemoteHost        string        `yaml:"remote_host"`
	RemotePort        int           `yaml:"remote_port"`
	BasePort          int           `yaml:"base_port"`
	DeviceIndex       int           `yaml:"device_index"`
	RebootSettleDelay time.Duration `yaml:"reboot_settle_delay"`
	InitOnStart       bool          `yaml:"init_on_start"`
	Motors            []MotorConfig `yaml:"motors"`
}

// MotorConfig is the startup setup of one motor.
type MotorConfig struct {
	ID             int           `yaml:"id"`
	ReportInterval time.Duration `yaml:"report_interval"`
	BusyReport     bool          `yaml:"busy_report"`
	HiZReport      bool          `yaml:"hiz_report"`
	DirReport      bool          `yaml:"dir_report"`
	MicrostepMode  *int          `yaml:"microstep_mode"`
}

// MotorID returns the id as a contracts.MotorID.
func (m MotorConfig) MotorID() contracts.MotorID { return contracts.MotorID(m.ID) }

// MIDIConfig lists the input devices of the logical ports.
type MIDIConfig struct {
	Ports []PortConfig `yaml:"ports"`
}

// PortConfig selects the device of one logical port.
type PortConfig struct {
	Port     int    `yaml:"port"`
	Match    string `yaml:"match"`
	Fallback int    `yaml:"fallback"`
}

// SwitcherConfig configures camera selection.
type SwitcherConfig struct {
	Port    int            `yaml:"port"`
	Cameras map[string]int `yaml:"cameras"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Step400: Step400Config{
			RemoteHost:        "10.0.0.101",
			RemotePort:        50000,
			BasePort:          50100,
			RebootSettleDelay: 100 * time.Millisecond,
			InitOnStart:       true,
			Motors: []MotorConfig{
				{ID: 1, ReportInterval: time.Second, BusyReport: true, HiZReport: true, DirReport: true},
				{ID: 2, ReportInterval: time.Second, BusyReport: true, HiZReport: true, DirReport: true},
			},
		},
		MIDI: MIDIConfig{
			Ports: []PortConfig{
				{Port: 1, Match: "ポン1", Fallback: -1},
				{Port: 2, Match: "ポン2", Fallback: -1},
				{Port: 3, Match: "カメラ", Fallback: 2},
			},
		},
		Switcher: SwitcherConfig{
			Port:    3,
			Cameras: map[string]int{"C": 1, "D": 2, "E": 3, "F": 4},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
// Lists given in the document replace the default lists.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and references between sections.
func (c Config) Validate() error {
	s := c.Step400
	if s.RemoteHost == "" {
		return errors.Wrap(ErrInvalidConfig, "step400.remote_host is empty")
	}
	if s.RemotePort <= 0 || s.RemotePort > 65535 {
		return errors.Wrapf(ErrInvalidConfig, "step400.remote_port %d out of range", s.RemotePort)
	}
	if s.BasePort < 0 || s.BasePort+s.DeviceIndex > 65535 || s.DeviceIndex < 0 {
		return errors.Wrapf(ErrInvalidConfig, "local port %d+%d out of range", s.BasePort, s.DeviceIndex)
	}
	if s.RebootSettleDelay < 0 {
		return errors.Wrap(ErrInvalidConfig, "step400.reboot_settle_delay is negative")
	}

	seen := make(map[int]bool)
	for _, m := range s.Motors {
		if !m.MotorID().Valid() {
			return errors.Wrapf(ErrInvalidConfig, "motor id %d out of range", m.ID)
		}
		if seen[m.ID] {
			return errors.Wrapf(ErrInvalidConfig, "motor %d configured twice", m.ID)
		}
		seen[m.ID] = true
		if m.ReportInterval < 0 {
			return errors.Wrapf(ErrInvalidConfig, "motor %d report_interval is negative", m.ID)
		}
		if m.MicrostepMode != nil && (*m.MicrostepMode < 0 || *m.MicrostepMode > 7) {
			return errors.Wrapf(ErrInvalidConfig, "motor %d microstep_mode %d out of range", m.ID, *m.MicrostepMode)
		}
	}

	ports := make(map[int]bool)
	for _, p := range c.MIDI.Ports {
		if p.Port <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "midi port %d must be positive", p.Port)
		}
		if ports[p.Port] {
			return errors.Wrapf(ErrInvalidConfig, "midi port %d configured twice", p.Port)
		}
		ports[p.Port] = true
	}

	for name, camera := range c.Switcher.Cameras {
		if camera <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "camera for note %s must be positive", name)
		}
	}

	if _, ok := contracts.ParseLogLevel(c.Log.Level); !ok {
		return errors.Wrapf(ErrInvalidConfig, "unknown log level %q", c.Log.Level)
	}
	return nil
}

// LogLevel returns the configured level.
func (c Config) LogLevel() contracts.LogLevel {
	level, _ := contracts.ParseLogLevel(c.Log.Level)
	return level
}

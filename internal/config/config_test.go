package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
	"github.com/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Step400.RemotePort != 50000 || cfg.Step400.BasePort != 50100 {
		t.Fatalf("unexpected defaults: %+v", cfg.Step400)
	}
	if cfg.LogLevel() != contracts.InfoLevel {
		t.Fatalf("LogLevel() = %v", cfg.LogLevel())
	}
	want := []PortConfig{
		{Port: 1, Match: "ポン1", Fallback: -1},
		{Port: 2, Match: "ポン2", Fallback: -1},
		{Port: 3, Match: "カメラ", Fallback: 2},
	}
	if len(cfg.MIDI.Ports) != len(want) {
		t.Fatalf("midi ports = %+v", cfg.MIDI.Ports)
	}
	for i, p := range want {
		if cfg.MIDI.Ports[i] != p {
			t.Errorf("port %d = %+v, want %+v", i, cfg.MIDI.Ports[i], p)
		}
	}
}

func TestLoadFile(t *testing.T) {
	doc := `
step400:
  remote_host: 192.168.1.50
  device_index: 2
  reboot_settle_delay: 250ms
  motors:
    - id: 1
      report_interval: 500ms
      busy_report: true
      microstep_mode: 7
midi:
  ports:
    - port: 1
      match: "nanoKEY"
      fallback: 0
switcher:
  cameras:
    G: 5
log:
  level: debug
  file: /tmp/ponmachine.log
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s := cfg.Step400
	if s.RemoteHost != "192.168.1.50" || s.RemotePort != 50000 || s.DeviceIndex != 2 {
		t.Fatalf("step400 = %+v", s)
	}
	if s.RebootSettleDelay != 250*time.Millisecond {
		t.Fatalf("settle delay = %v", s.RebootSettleDelay)
	}
	if len(s.Motors) != 1 || s.Motors[0].ReportInterval != 500*time.Millisecond {
		t.Fatalf("motors = %+v", s.Motors)
	}
	if m := s.Motors[0].MicrostepMode; m == nil || *m != 7 {
		t.Fatalf("microstep mode = %v", m)
	}
	if len(cfg.MIDI.Ports) != 1 || cfg.MIDI.Ports[0].Match != "nanoKEY" {
		t.Fatalf("midi = %+v", cfg.MIDI)
	}
	if cfg.Switcher.Cameras["G"] != 5 || cfg.Switcher.Port != 3 {
		t.Fatalf("switcher = %+v", cfg.Switcher)
	}
	if cfg.LogLevel() != contracts.DebugLevel || cfg.Log.File != "/tmp/ponmachine.log" {
		t.Fatalf("log = %+v", cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !os.IsNotExist(errors.Cause(err)) {
		t.Fatalf("Load() error = %v, want not-exist", err)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "step400: [unterminated"},
		{"motor id zero", "step400:\n  motors:\n    - id: 0\n"},
		{"motor id five", "step400:\n  motors:\n    - id: 5\n"},
		{"duplicate motor", "step400:\n  motors:\n    - id: 1\n    - id: 1\n"},
		{"microstep", "step400:\n  motors:\n    - id: 1\n      microstep_mode: 8\n"},
		{"remote port", "step400:\n  remote_port: 70000\n"},
		{"empty host", "step400:\n  remote_host: \"\"\n"},
		{"negative delay", "step400:\n  reboot_settle_delay: -1s\n"},
		{"duplicate midi port", "midi:\n  ports:\n    - port: 1\n    - port: 1\n"},
		{"camera zero", "switcher:\n  cameras:\n    C: 0\n"},
		{"log level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
		})
	}
}

func TestValidationErrorsWrapSentinel(t *testing.T) {
	_, err := Parse([]byte("log:\n  level: loud\n"))
	if errors.Cause(err) != ErrInvalidConfig {
		t.Fatalf("Cause(%v) is not ErrInvalidConfig", err)
	}
}

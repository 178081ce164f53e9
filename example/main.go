package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/leandrodaf/ponmachine/internal/config"
	"github.com/leandrodaf/ponmachine/internal/gesture"
	"github.com/leandrodaf/ponmachine/internal/logger"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
	"github.com/leandrodaf/ponmachine/sdk/midi"
	"github.com/leandrodaf/ponmachine/sdk/step400"
	flag "github.com/spf13/pflag"
	"go.uber.org/multierr"
)

type flags struct {
	configPath  string
	logLevel    string
	listDevices bool
	remote      string
	deviceIndex int
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "path to the YAML configuration file")
	flag.StringVar(&f.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	flag.BoolVar(&f.listDevices, "list-devices", false, "print MIDI input devices and exit")
	flag.StringVar(&f.remote, "remote", "", "motor controller address as host:port")
	flag.IntVar(&f.deviceIndex, "device-index", -1, "motor controller device index (DIP switch id)")
	flag.Parse()
	return f
}

// applyFlags overrides file settings with the ones given on the command line.
func applyFlags(cfg *config.Config, f flags) error {
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.remote != "" {
		host, port, err := net.SplitHostPort(f.remote)
		if err != nil {
			return fmt.Errorf("--remote: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("--remote port: %w", err)
		}
		cfg.Step400.RemoteHost = host
		cfg.Step400.RemotePort = p
	}
	if f.deviceIndex >= 0 {
		cfg.Step400.DeviceIndex = f.deviceIndex
	}
	return cfg.Validate()
}

// logSwitcher stands in for the vision mixer and records selections in the log.
type logSwitcher struct {
	log contracts.Logger
}

func (s logSwitcher) SwitchCamera(cameraID int) error {
	s.log.Info("switch camera", s.log.Field().Int("camera", cameraID))
	return nil
}

// initMotors sends the per-motor startup setup and starts position reporting.
func initMotors(ctrl contracts.MotorController, motors []config.MotorConfig) {
	ctrl.SetDestIP()
	for _, m := range motors {
		id := m.MotorID()
		ctrl.SetCurrentMode(id)
		ctrl.EnableBusyReport(id, m.BusyReport)
		ctrl.EnableHiZReport(id, m.HiZReport)
		ctrl.EnableDirReport(id, m.DirReport)
		if m.MicrostepMode != nil {
			ctrl.SetMicrostepMode(id, int32(*m.MicrostepMode))
		}
		if m.ReportInterval > 0 {
			ctrl.StartPositionReport(id, m.ReportInterval)
		}
	}
}

func bridgeConfig(cfg config.Config) gesture.BridgeConfig {
	bc := gesture.DefaultBridgeConfig()
	bc.CameraPort = cfg.Switcher.Port
	if len(cfg.Switcher.Cameras) > 0 {
		bc.CameraNotes = cfg.Switcher.Cameras
	}
	return bc
}

func listDevices(log contracts.Logger) error {
	client, err := midi.NewMIDIClient(contracts.WithLogger(log))
	if err != nil {
		return err
	}
	devices, err := client.ListDevices()
	if err != nil {
		return multierr.Append(err, client.Stop())
	}
	for _, d := range devices {
		fmt.Printf("%d\t%s\t%s\n", d.Index, d.Name, d.Manufacturer)
	}
	return client.Stop()
}

// openInputs opens every configured port. Ports whose device cannot be found are skipped.
func openInputs(log contracts.Logger, cfg config.Config) (map[int]<-chan contracts.MIDI, []contracts.ClientMIDI) {
	inputs := make(map[int]<-chan contracts.MIDI)
	var clients []contracts.ClientMIDI
	for _, p := range cfg.MIDI.Ports {
		events := make(chan contracts.MIDI, 100)
		client, err := midi.OpenPort(midi.PortSelection{Port: p.Port, Match: p.Match, Fallback: p.Fallback}, events,
			contracts.WithLogger(log),
			contracts.WithLogLevel(cfg.LogLevel()),
			contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
				Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
			}),
		)
		if err != nil {
			log.Warn("MIDI port unavailable", log.Field().Int("port", p.Port), log.Field().Error("error", err))
			continue
		}
		inputs[p.Port] = events
		clients = append(clients, client)
	}
	return inputs, clients
}

func run(ctx context.Context, log contracts.Logger, cfg config.Config) (err error) {
	ctrl, err := step400.NewController(
		contracts.WithControllerLogger(log),
		contracts.WithControllerLogLevel(cfg.LogLevel()),
		contracts.WithRemote(cfg.Step400.RemoteHost, cfg.Step400.RemotePort),
		contracts.WithLocalPort(cfg.Step400.BasePort, cfg.Step400.DeviceIndex),
		contracts.WithRebootSettleDelay(cfg.Step400.RebootSettleDelay),
	)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, ctrl.Close()) }()

	if err := ctrl.Open(); err != nil {
		return err
	}
	if cfg.Step400.InitOnStart {
		initMotors(ctrl, cfg.Step400.Motors)
	}

	inputs, clients := openInputs(log, cfg)
	defer func() {
		for _, c := range clients {
			err = multierr.Append(err, c.Stop())
		}
	}()
	if len(inputs) == 0 {
		log.Warn("no MIDI input available, waiting for shutdown")
	}

	correlator := gesture.NewCorrelator(log, gesture.DefaultHistorySize)
	bridge := gesture.NewBridge(log, correlator, ctrl, logSwitcher{log: log}, bridgeConfig(cfg))
	log.Info("running", log.Field().Int("inputs", len(inputs)))

	if err := bridge.Run(ctx, inputs); err != nil && ctx.Err() == nil {
		return err
	}
	if len(inputs) == 0 {
		<-ctx.Done()
	}
	return nil
}

func main() {
	f := parseFlags()

	cfg, err := config.Load(f.configPath)
	if err == nil {
		err = applyFlags(&cfg, f)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.NewZapLogger()
	log.SetLevel(cfg.LogLevel())
	if cfg.Log.File != "" {
		log.SetDestination(contracts.FileLog, cfg.Log.File)
	}
	if s, ok := log.(interface{ Sync() error }); ok {
		defer s.Sync()
	}

	if f.listDevices {
		if err := listDevices(log); err != nil {
			log.Error("listing MIDI devices failed", log.Field().Error("error", err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("shutdown with errors", log.Field().Error("error", err))
		return
	}
	log.Info("stopped")
}

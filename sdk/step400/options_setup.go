package step400

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/ponmachine/internal/logger"
	"github.com/leandrodaf/ponmachine/internal/step400"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// Defaults match the STEP400 factory configuration.
const (
	DefaultRemoteHost        = "10.0.0.101"
	DefaultRemotePort        = 50000
	DefaultBasePort          = 50100
	DefaultRebootSettleDelay = step400.DefaultRebootSettleDelay
	DefaultReportInterval    = step400.DefaultReportInterval
	DefaultSubscriberBuffer  = step400.DefaultSubscriberBuffer
	maxPort                  = 65535
)

// ErrInvalidOptions is returned when the options cannot describe a usable channel.
var ErrInvalidOptions = errors.New("invalid controller options")

// applyDefaultOptions fills unset ControllerOptions and validates the result.
func applyDefaultOptions(opts ...contracts.ControllerOption) (contracts.ControllerOptions, error) {
	options := &contracts.ControllerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.RemoteHost == "" {
		options.RemoteHost = DefaultRemoteHost
	}
	if options.RemotePort == 0 {
		options.RemotePort = DefaultRemotePort
	}
	if options.BasePort == 0 {
		options.BasePort = DefaultBasePort
	}
	if options.RebootSettleDelay <= 0 {
		options.RebootSettleDelay = DefaultRebootSettleDelay
	}
	if options.DefaultReportInterval <= 0 {
		options.DefaultReportInterval = DefaultReportInterval
	}
	if options.SubscriberBuffer <= 0 {
		options.SubscriberBuffer = DefaultSubscriberBuffer
	}

	if options.RemotePort < 0 || options.RemotePort > maxPort {
		return *options, fmt.Errorf("%w: remote port %d", ErrInvalidOptions, options.RemotePort)
	}
	if options.DeviceIndex < 0 {
		return *options, fmt.Errorf("%w: device index %d", ErrInvalidOptions, options.DeviceIndex)
	}
	if p := options.LocalPort(); p < 0 || p > maxPort {
		return *options, fmt.Errorf("%w: local port %d", ErrInvalidOptions, p)
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}

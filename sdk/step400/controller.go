package step400

import (
	"github.com/leandrodaf/ponmachine/internal/step400"
	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

// NewController creates a STEP400 controller with the specified options.
// The local UDP port is bound immediately; call Open to start sending and receiving.
//
// opts ...contracts.ControllerOption: option functions that customize the controller.
//
// Returns:
//   - *step400.Controller: the controller, which implements contracts.MotorController.
//   - error: an error if the remote address cannot be resolved or the local port cannot be bound.
func NewController(opts ...contracts.ControllerOption) (*step400.Controller, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return step400.New(options)
}

package step400

import "github.com/leandrodaf/ponmachine/sdk/contracts"

const (
	// holdTval is the holding current; kept low so idle motors stay cool.
	holdTval int32 = 2

	defaultAcceleration float32 = 2000.0
	defaultDeceleration float32 = 2000.0
)

func (c *Controller) validMotor(id contracts.MotorID, op contracts.Operation) bool {
	if id.Valid() {
		return true
	}
	c.logger.Warn("invalid motor id; command dropped",
		c.logger.Field().Int("motorID", int(id)),
		c.logger.Field().String("address", string(op)))
	return false
}

func (c *Controller) validMotorOrAll(id contracts.MotorID, op contracts.Operation) bool {
	if id == contracts.AllMotors {
		return true
	}
	return c.validMotor(id, op)
}

func (c *Controller) motorCommand(op contracts.Operation, id contracts.MotorID, args ...contracts.Arg) {
	if !c.validMotor(id, op) {
		return
	}
	c.send(contracts.Command{Op: op, MotorID: id, Args: args})
}

func (c *Controller) toggleCommand(op contracts.Operation, id contracts.MotorID, enable bool) {
	if !c.validMotorOrAll(id, op) {
		return
	}
	var v int32
	if enable {
		v = 1
	}
	c.send(contracts.Command{Op: op, MotorID: id, Args: []contracts.Arg{contracts.Int(v)}})
}

// SetCurrentMode switches the driver to current control.
func (c *Controller) SetCurrentMode(id contracts.MotorID) {
	c.motorCommand(contracts.OpSetCurrentMode, id)
}

// SetTval sets run, acceleration and deceleration torque to tval. Hold torque is fixed.
func (c *Controller) SetTval(id contracts.MotorID, tval int32) {
	c.motorCommand(contracts.OpSetTval, id,
		contracts.Int(holdTval),
		contracts.Int(tval),
		contracts.Int(tval),
		contracts.Int(tval),
	)
}

// SetSpeedProfile sets the maximum speed with the default acceleration and deceleration.
func (c *Controller) SetSpeedProfile(id contracts.MotorID, maxSpeed float32) {
	c.setSpeedProfile(id, defaultAcceleration, defaultDeceleration, maxSpeed)
}

func (c *Controller) setSpeedProfile(id contracts.MotorID, acc, dec, maxSpeed float32) {
	c.motorCommand(contracts.OpSetSpeedProfile, id,
		contracts.Float(acc),
		contracts.Float(dec),
		contracts.Float(maxSpeed),
	)
}

// Run spins the motor at speed steps/s; the sign selects the direction.
func (c *Controller) Run(id contracts.MotorID, speed float32) {
	c.motorCommand(contracts.OpRun, id, contracts.Float(speed))
}

// SoftStop decelerates to a stop and keeps holding torque.
func (c *Controller) SoftStop(id contracts.MotorID) {
	c.motorCommand(contracts.OpSoftStop, id)
}

// HardStop stops immediately and keeps holding torque.
func (c *Controller) HardStop(id contracts.MotorID) {
	c.motorCommand(contracts.OpHardStop, id)
}

// SoftHiZ decelerates and then releases the coils.
func (c *Controller) SoftHiZ(id contracts.MotorID) {
	c.motorCommand(contracts.OpSoftHiZ, id)
}

// HardHiZ releases the coils immediately.
func (c *Controller) HardHiZ(id contracts.MotorID) {
	c.motorCommand(contracts.OpHardHiZ, id)
}

// GoTo moves to an absolute position.
func (c *Controller) GoTo(id contracts.MotorID, position int32) {
	c.motorCommand(contracts.OpGoTo, id, contracts.Int(position))
}

// Move moves by a relative number of steps.
func (c *Controller) Move(id contracts.MotorID, steps int32) {
	c.motorCommand(contracts.OpMove, id, contracts.Int(steps))
}

// GoHome moves to the home position.
func (c *Controller) GoHome(id contracts.MotorID) {
	c.motorCommand(contracts.OpGoHome, id)
}

// Homing runs the home switch search.
func (c *Controller) Homing(id contracts.MotorID) {
	c.motorCommand(contracts.OpHoming, id)
}

// SetHomingDirection sets the direction of the home switch search.
func (c *Controller) SetHomingDirection(id contracts.MotorID, direction int32) {
	c.motorCommand(contracts.OpSetHomingDirection, id, contracts.Int(direction))
}

// SetHomeSwMode sets how the home switch input is treated.
func (c *Controller) SetHomeSwMode(id contracts.MotorID, mode int32) {
	c.motorCommand(contracts.OpSetHomeSwMode, id, contracts.Int(mode))
}

// SetMicrostepMode sets the step resolution: 0 is full step, 7 is 1/128.
func (c *Controller) SetMicrostepMode(id contracts.MotorID, mode int32) {
	if mode < 0 || mode > 7 {
		c.logger.Warn("microstep mode out of range; command dropped",
			c.logger.Field().Int("motorID", int(id)),
			c.logger.Field().Int64("mode", int64(mode)))
		return
	}
	c.motorCommand(contracts.OpSetMicrostepMode, id, contracts.Int(mode))
}

// GetMicrostepMode asks for the step resolution; the reply is /microstepMode.
func (c *Controller) GetMicrostepMode(id contracts.MotorID) {
	c.motorCommand(contracts.OpGetMicrostepMode, id)
}

// GetPosition asks for the current position; the reply is /position.
func (c *Controller) GetPosition(id contracts.MotorID) {
	c.motorCommand(contracts.OpGetPosition, id)
}

// GetStatus asks for the driver status register.
func (c *Controller) GetStatus(id contracts.MotorID) {
	c.motorCommand(contracts.OpGetStatus, id)
}

// GetBusy asks whether the motor is executing a motion command.
func (c *Controller) GetBusy(id contracts.MotorID) {
	c.motorCommand(contracts.OpGetBusy, id)
}

// GetHiZ asks whether the bridges are in high impedance.
func (c *Controller) GetHiZ(id contracts.MotorID) {
	c.motorCommand(contracts.OpGetHiZ, id)
}

// GetDir asks for the current rotation direction.
func (c *Controller) GetDir(id contracts.MotorID) {
	c.motorCommand(contracts.OpGetDir, id)
}

// EnableBusyReport toggles automatic /busy reports. AllMotors applies it to every motor.
func (c *Controller) EnableBusyReport(id contracts.MotorID, enable bool) {
	c.toggleCommand(contracts.OpEnableBusyReport, id, enable)
}

// EnableHiZReport toggles automatic /HiZ reports.
func (c *Controller) EnableHiZReport(id contracts.MotorID, enable bool) {
	c.toggleCommand(contracts.OpEnableHiZReport, id, enable)
}

// EnableDirReport toggles automatic /dir reports.
func (c *Controller) EnableDirReport(id contracts.MotorID, enable bool) {
	c.toggleCommand(contracts.OpEnableDirReport, id, enable)
}

// EnableMotorStatusReport toggles automatic /status reports.
func (c *Controller) EnableMotorStatusReport(id contracts.MotorID, enable bool) {
	c.toggleCommand(contracts.OpEnableMotorStatusReport, id, enable)
}

// SetDestIP asks the device to send telemetry to this host. The command is
// remembered so it can be replayed after the device reboots.
func (c *Controller) SetDestIP() {
	cmd := contracts.Command{Op: contracts.OpSetDestIP}
	c.resync.remember(cmd)
	c.send(cmd)
}

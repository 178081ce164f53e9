package step400

import "github.com/leandrodaf/ponmachine/sdk/contracts"

// MotionProfile is a fixed torque and speed preset ending at a target position.
type MotionProfile struct {
	Torque       int32
	Acceleration float32
	Deceleration float32
	Speed        float32
	Target       int32
}

// Open: light and fast, back to home.
var openProfile = MotionProfile{
	Torque:       9,
	Acceleration: defaultAcceleration,
	Deceleration: defaultDeceleration,
	Speed:        900,
	Target:       0,
}

// Close: strong and slow, towards a per-motor stop.
var closeProfile = MotionProfile{
	Torque:       60,
	Acceleration: defaultAcceleration,
	Deceleration: defaultDeceleration,
	Speed:        400,
}

var closeTargets = map[contracts.MotorID]int32{
	1: -3900,
	2: -3700,
}

// OpenProfile returns the open preset for id.
func OpenProfile(id contracts.MotorID) (MotionProfile, bool) {
	if !id.Valid() {
		return MotionProfile{}, false
	}
	return openProfile, true
}

// CloseProfile returns the close preset for id. Only motors with a calibrated
// close position have one.
func CloseProfile(id contracts.MotorID) (MotionProfile, bool) {
	target, ok := closeTargets[id]
	if !ok {
		return MotionProfile{}, false
	}
	p := closeProfile
	p.Target = target
	return p, true
}

// MoveToOpenPosition applies the open preset to id.
func (c *Controller) MoveToOpenPosition(id contracts.MotorID) {
	p, ok := OpenProfile(id)
	if !ok {
		c.logger.Warn("no open profile for motor", c.logger.Field().Int("motorID", int(id)))
		return
	}
	c.applyProfile(id, p)
}

// MoveToClosePosition applies the close preset to id.
func (c *Controller) MoveToClosePosition(id contracts.MotorID) {
	p, ok := CloseProfile(id)
	if !ok {
		c.logger.Warn("no close profile for motor", c.logger.Field().Int("motorID", int(id)))
		return
	}
	c.applyProfile(id, p)
}

func (c *Controller) applyProfile(id contracts.MotorID, p MotionProfile) {
	c.SetTval(id, p.Torque)
	c.setSpeedProfile(id, p.Acceleration, p.Deceleration, p.Speed)
	c.GoTo(id, p.Target)
}

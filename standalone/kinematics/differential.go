package kinematics

import (
	"fmt"
	"time"

	"wanderbot/core"
	"wanderbot/motor"
)

// Differential turns signed per-wheel speeds into wheel commands.
type Differential struct {
	drive  Drive
	cruise int
	log    core.Logger
}

// NewDifferential returns a differential drive whose discrete moves run at
// cruise speed.
func NewDifferential(drive Drive, cruise int, log core.Logger) *Differential {
	if log == nil {
		log = core.NopLogger{}
	}
	return &Differential{drive: drive, cruise: cruise, log: log}
}

// Cruise returns the speed used by SetDirection.
func (k *Differential) Cruise() int {
	return k.cruise
}

// SetDifferential drives each wheel with direction = sign and magnitude = |v|.
// There is no clamping here; the actuator clamps.
func (k *Differential) SetDifferential(left, right int) error {
	cmds := Decompose(left, right)
	for w, cmd := range cmds {
		if err := k.drive.DriveWheel(motor.Wheel(w), cmd.Direction, cmd.Magnitude); err != nil {
			return fmt.Errorf("%s wheel: %w", motor.Wheel(w), err)
		}
	}
	return nil
}

// Move applies (left, right) between two fault checks. A fault before the
// move refuses it; a fault after it stops the motors. Either way the motors
// end up stopped and ErrDriverFault is returned.
func (k *Differential) Move(name string, left, right int) error {
	if k.drive.CheckFault() {
		k.drive.ReportFault("cannot move " + name)
		return k.stopOnFault(name)
	}

	if err := k.SetDifferential(left, right); err != nil {
		return err
	}

	if k.drive.CheckFault() {
		k.drive.ReportFault("raised during " + name)
		return k.stopOnFault(name)
	}
	return nil
}

func (k *Differential) stopOnFault(name string) error {
	if err := k.drive.StopAll(); err != nil {
		k.log.Errorf("Failed to stop motors: %v", err)
	}
	return fmt.Errorf("move %s: %w", name, motor.ErrDriverFault)
}

// SetDirection applies one of the discrete motions at cruise speed.
func (k *Differential) SetDirection(dir MotorDirection) error {
	k.log.Debugf("Motor control: %s", dir)
	if dir == DirStop {
		return k.Stop()
	}
	left, right := WheelSpeeds(dir, k.cruise)
	return k.Move(dir.String(), left, right)
}

// Forward drives both wheels forward.
func (k *Differential) Forward(speed int) error {
	return k.Move("forward", speed, speed)
}

// Backward drives both wheels backward.
func (k *Differential) Backward(speed int) error {
	return k.Move("backward", -speed, -speed)
}

// SpinLeft pivots counter-clockwise in place.
func (k *Differential) SpinLeft(speed int) error {
	return k.Move("spin left", -speed, speed)
}

// SpinRight pivots clockwise in place.
func (k *Differential) SpinRight(speed int) error {
	return k.Move("spin right", speed, -speed)
}

// CurveLeft slows the left wheel by diff.
func (k *Differential) CurveLeft(base, diff int) error {
	return k.Move("curve left", base-diff, base)
}

// CurveRight slows the right wheel by diff.
func (k *Differential) CurveRight(base, diff int) error {
	return k.Move("curve right", base, base-diff)
}

// Stop coasts both wheels. Stopping is always allowed, fault or not.
func (k *Differential) Stop() error {
	return k.drive.StopAll()
}

// RampTo ramps each wheel from rest to its signed target over the
// actuator's configured steps.
func (k *Differential) RampTo(left, right int, now time.Time) error {
	if k.drive.CheckFault() {
		k.drive.ReportFault("cannot start ramp")
		return k.stopOnFault("ramp")
	}
	for w, cmd := range Decompose(left, right) {
		spec := motor.RampSpec{
			Wheel:     motor.Wheel(w),
			Direction: cmd.Direction,
			Start:     0,
			End:       cmd.Magnitude,
		}
		if err := k.drive.StartRamp(spec, now); err != nil {
			return fmt.Errorf("%s wheel: %w", motor.Wheel(w), err)
		}
	}
	return nil
}

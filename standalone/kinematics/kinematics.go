package kinematics

import (
	"time"

	"wanderbot/motor"
)

// Drive is the part of the actuation layer the kinematics drive through.
// *motor.Actuator implements it.
type Drive interface {
	DriveWheel(w motor.Wheel, d motor.Direction, speed int) error
	StartRamp(spec motor.RampSpec, now time.Time) error
	StopAll() error
	CheckFault() bool
	ReportFault(context string)
}

// MotorDirection is one of the discrete whole-robot motions.
type MotorDirection uint8

const (
	DirForward MotorDirection = iota
	DirBackward
	DirTurnLeft
	DirTurnRight
	DirStop
)

func (d MotorDirection) String() string {
	switch d {
	case DirForward:
		return "FORWARD"
	case DirBackward:
		return "BACKWARD"
	case DirTurnLeft:
		return "TURN_LEFT"
	case DirTurnRight:
		return "TURN_RIGHT"
	}
	return "STOP"
}

// WheelSpeeds maps a discrete direction to signed (left, right) speeds.
// Turns pivot in place: the inside wheel runs backward.
func WheelSpeeds(dir MotorDirection, speed int) (left, right int) {
	switch dir {
	case DirForward:
		return speed, speed
	case DirBackward:
		return -speed, -speed
	case DirTurnLeft:
		return -speed, speed
	case DirTurnRight:
		return speed, -speed
	}
	return 0, 0
}

// Decompose splits signed wheel speeds into per-wheel commands.
func Decompose(left, right int) [motor.NumWheels]motor.WheelCommand {
	return [motor.NumWheels]motor.WheelCommand{
		motor.Left:  motor.CommandFor(left),
		motor.Right: motor.CommandFor(right),
	}
}

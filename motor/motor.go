// Package motor drives a dual H-bridge (DRV8833 class) with two complementary
// PWM inputs per wheel and an optional active-low fault output.
package motor

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"wanderbot/core"
)

// ErrDriverFault is returned when the driver's fault line is asserted.
var ErrDriverFault = errors.New("motor driver fault")

// WithoutFaults drops the ErrDriverFault members of a combined error and
// returns whatever is left, nil if nothing.
func WithoutFaults(err error) error {
	var rest error
	for _, e := range multierr.Errors(err) {
		if !errors.Is(e, ErrDriverFault) {
			rest = multierr.Append(rest, e)
		}
	}
	return rest
}

// Wheel selects one of the two drive motors.
type Wheel uint8

const (
	Left Wheel = iota
	Right

	NumWheels = 2
)

func (w Wheel) String() string {
	switch w {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("wheel(%d)", uint8(w))
}

// Direction selects which leg of the H-bridge carries the PWM.
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// WheelCommand is a signed wheel speed split into direction and magnitude.
type WheelCommand struct {
	Direction Direction
	Magnitude int
}

// CommandFor decomposes a signed speed. Zero maps to Forward at zero.
func CommandFor(signed int) WheelCommand {
	if signed < 0 {
		return WheelCommand{Direction: Backward, Magnitude: -signed}
	}
	return WheelCommand{Direction: Forward, Magnitude: signed}
}

// Signed recombines a command into a signed speed.
func (c WheelCommand) Signed() int {
	if c.Direction == Backward {
		return -c.Magnitude
	}
	return c.Magnitude
}

// Channel is one PWM leg: wheel*2 + direction.
type Channel uint8

// NumChannels is the number of PWM legs on the driver.
const NumChannels = NumWheels * 2

// ChannelFor returns the leg that drives w in direction d.
func ChannelFor(w Wheel, d Direction) Channel {
	return Channel(uint8(w)*2 + uint8(d))
}

// Wheel returns the wheel the channel belongs to.
func (c Channel) Wheel() Wheel {
	return Wheel(c / 2)
}

// Direction returns the direction the channel drives.
func (c Channel) Direction() Direction {
	return Direction(c % 2)
}

// Config describes the driver wiring and actuation limits.
type Config struct {
	// PWM legs, IN1/IN2 of each H-bridge
	LeftForward   core.PWMPin
	LeftBackward  core.PWMPin
	RightForward  core.PWMPin
	RightBackward core.PWMPin

	// FaultPin is the driver fault output, core.NoPin when not wired
	FaultPin       core.GPIOPin
	FaultActiveLow bool

	PWMFrequency uint32 // carrier, Hz

	MinSpeed int
	MaxSpeed int

	RampSteps     int
	RampStepDelay time.Duration
}

// DefaultConfig returns the reference wiring limits: 500Hz carrier, 8-bit
// duty, 10 ramp steps 50ms apart, active-low fault line.
func DefaultConfig() Config {
	return Config{
		LeftForward:    0,
		LeftBackward:   1,
		RightForward:   2,
		RightBackward:  3,
		FaultPin:       core.NoPin,
		FaultActiveLow: true,
		PWMFrequency:   500,
		MinSpeed:       0,
		MaxSpeed:       core.DutyMax,
		RampSteps:      10,
		RampStepDelay:  50 * time.Millisecond,
	}
}

// Validate checks the limits.
func (c Config) Validate() error {
	if c.MinSpeed < 0 || c.MaxSpeed > core.DutyMax {
		return fmt.Errorf("speed range [%d, %d] outside 0-%d", c.MinSpeed, c.MaxSpeed, core.DutyMax)
	}
	if c.MinSpeed > c.MaxSpeed {
		return fmt.Errorf("min speed %d above max speed %d", c.MinSpeed, c.MaxSpeed)
	}
	if c.PWMFrequency == 0 {
		return errors.New("pwm frequency must be positive")
	}
	if c.RampSteps <= 0 {
		return fmt.Errorf("ramp steps must be positive, got %d", c.RampSteps)
	}
	if c.RampStepDelay < 0 {
		return fmt.Errorf("negative ramp step delay %v", c.RampStepDelay)
	}
	return nil
}

func (c Config) pins() [NumChannels]core.PWMPin {
	var pins [NumChannels]core.PWMPin
	pins[ChannelFor(Left, Forward)] = c.LeftForward
	pins[ChannelFor(Left, Backward)] = c.LeftBackward
	pins[ChannelFor(Right, Forward)] = c.RightForward
	pins[ChannelFor(Right, Backward)] = c.RightBackward
	return pins
}

// Clamp limits speed to [min, max].
func Clamp(speed, min, max int) int {
	if speed < min {
		return min
	}
	if speed > max {
		return max
	}
	return speed
}

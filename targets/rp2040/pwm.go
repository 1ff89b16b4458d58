//go:build rp2040 || rp2350

package main

import (
	"machine"

	"wanderbot/core"
)

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// RP2040PWMDriver implements core.PWMDriver on the RP2040's 8 PWM slices.
// Both legs of one wheel usually share a slice (GPIO 2N and 2N+1), so they
// always run at the same carrier frequency.
type RP2040PWMDriver struct {
	// Key: slice number (0-7), Value: configured period in nanoseconds
	slices map[uint8]uint64

	// Key: pin number, Value: PWM channel within its slice
	channels map[uint32]uint8

	peripherals map[uint8]pwmPeripheral
}

// NewRP2040PWMDriver creates a new RP2040 PWM driver
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{
		slices:      make(map[uint8]uint64),
		channels:    make(map[uint32]uint8),
		peripherals: make(map[uint8]pwmPeripheral),
	}
}

// GetMaxValue returns the 8-bit duty scale used above the HAL.
func (d *RP2040PWMDriver) GetMaxValue() uint32 {
	return core.DutyMax
}

// sliceOf maps GPIO N to slice (N >> 1) & 0x7.
func sliceOf(pin uint32) uint8 {
	return uint8((pin >> 1) & 0x7)
}

// ConfigureHardwarePWM configures a pin for hardware PWM output
func (d *RP2040PWMDriver) ConfigureHardwarePWM(pin core.PWMPin, cycleTicks uint32) (uint32, error) {
	pinNum := uint32(pin)
	sliceNum := sliceOf(pinNum)

	pwm, exists := d.peripherals[sliceNum]
	if !exists {
		pwm = getPWMPeripheral(sliceNum)
		d.peripherals[sliceNum] = pwm
	}

	period := core.PeriodNSFromCycleTicks(cycleTicks)

	// Reconfiguring a shared slice with the same period keeps the other
	// channel's duty.
	if existing, ok := d.slices[sliceNum]; !ok || existing != period {
		if err := pwm.Configure(machine.PWMConfig{Period: period}); err != nil {
			return 0, err
		}
	}

	channel, err := pwm.Channel(machine.Pin(pinNum))
	if err != nil {
		return 0, err
	}
	pwm.Set(channel, 0)

	d.slices[sliceNum] = period
	d.channels[pinNum] = channel

	return cycleTicks, nil
}

// SetDutyCycle sets the PWM duty cycle for a pin
// value: 0 (fully off) to 255 (fully on)
func (d *RP2040PWMDriver) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	pinNum := uint32(pin)

	channel, exists := d.channels[pinNum]
	if !exists {
		return errPinNotConfigured
	}
	pwm := d.peripherals[sliceOf(pinNum)]

	// Scale 0-255 to 0-Top()
	pwm.Set(channel, (uint32(value)*pwm.Top())/core.DutyMax)
	return nil
}

// DisablePWM forces the pin low. TinyGo has no way to release a channel, so
// the pin stays in PWM mode at zero duty.
func (d *RP2040PWMDriver) DisablePWM(pin core.PWMPin) error {
	pinNum := uint32(pin)

	if channel, ok := d.channels[pinNum]; ok {
		d.peripherals[sliceOf(pinNum)].Set(channel, 0)
	}
	delete(d.channels, pinNum)
	return nil
}

// getPWMPeripheral returns TinyGo's PWM0-PWM7 for a slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

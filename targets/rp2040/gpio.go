//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	"wanderbot/core"
)

var errPinNotConfigured = errors.New("pin not configured")

// RPGPIODriver implements core.GPIODriver. GPIO numbers map directly to
// machine.Pin.
type RPGPIODriver struct {
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) machine.Pin {
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: mode})
	d.configuredPins[pin] = machinePin
	return machinePin
}

// ConfigureOutput configures a pin as a digital output driven low
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	d.configure(pin, machine.PinOutput).Low()
	return nil
}

// ConfigureInputPullUp configures a pin as an input with pull-up resistor
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	d.configure(pin, machine.PinInputPullup)
	return nil
}

// ConfigureInputPullDown configures a pin as an input with pull-down resistor
func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	d.configure(pin, machine.PinInputPulldown)
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return errPinNotConfigured
	}
	machinePin.Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return false, errPinNotConfigured
	}
	return machinePin.Get(), nil
}

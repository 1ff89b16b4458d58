package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// NoPin marks an optional pin as not wired.
const NoPin GPIOPin = 0xFFFFFFFF

// GPIODriver is the abstract GPIO interface used for the aux output and the
// driver fault input.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as an input with pull-up.
	// Open-drain fault lines (DRV8833 nFAULT) need this.
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as an input with pull-down
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin drives the pin high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin level
	GetPin(pin GPIOPin) (bool, error)
}

var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}

package core

// PWMPin identifies a hardware pin capable of PWM output
type PWMPin uint32

// PWMValue is a raw duty cycle in driver units (0 to GetMaxValue())
type PWMValue uint32

// PWMDriver is the abstract PWM interface the actuation layer drives.
// Platform-specific implementations handle the actual hardware.
type PWMDriver interface {
	// ConfigureHardwarePWM configures a pin for hardware PWM output.
	// cycleTicks is the carrier period in timer ticks (see CycleTicksFromHz).
	// Returns the cycle ticks actually used by the hardware.
	ConfigureHardwarePWM(pin PWMPin, cycleTicks uint32) (uint32, error)

	// SetDutyCycle sets the duty cycle for a pin
	// value: 0 (fully off) to GetMaxValue() (fully on)
	SetDutyCycle(pin PWMPin, value PWMValue) error

	// GetMaxValue returns the maximum duty value (e.g. 255 for 8-bit)
	GetMaxValue() uint32

	// DisablePWM stops PWM on a pin and leaves it driven low
	DisablePWM(pin PWMPin) error
}

// Global singleton used by the firmware entry points.
var pwmDriver PWMDriver

// SetPWMDriver is called by target-specific code to register its driver.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the configured driver or panics if missing.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}

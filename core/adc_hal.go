package core

// ADCChannelID identifies a logical ADC channel.
type ADCChannelID uint8

// ADCValue is the raw reading as seen by the rest of the firmware.
// Convention: 16-bit value, even if the hardware converts fewer bits.
type ADCValue uint16

// ADCConfig is the high-level config the core cares about.
type ADCConfig struct {
	Reference  uint32 // millivolts, 0 = driver default
	Resolution uint32 // bits, 0 = driver default
}

// ADCDriver is the abstract ADC interface. The robot only samples an
// unconnected channel to seed its random source.
type ADCDriver interface {
	// Init powers up and configures the ADC peripheral.
	Init(cfg ADCConfig) error

	// ConfigureChannel prepares a channel for analog input.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw performs a one-shot sample from the given channel.
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}

var adcDriver ADCDriver

// SetADCDriver is called by target-specific code to register its driver.
func SetADCDriver(d ADCDriver) {
	adcDriver = d
}

// ADC returns the configured driver, or nil when the target has none.
func ADC() ADCDriver {
	return adcDriver
}

// MustADC returns the configured driver or panics if missing.
func MustADC() ADCDriver {
	if adcDriver == nil {
		panic("ADC driver not configured")
	}
	return adcDriver
}

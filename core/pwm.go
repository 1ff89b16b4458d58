// PWM output channels
// Each wheel leg of the H-bridge is one PWMOutput driven at a fixed carrier.
package core

// DutyMax is the top of the 8-bit duty scale used above the HAL.
const DutyMax = 255

// PWMOutput is one configured hardware PWM channel.
type PWMOutput struct {
	Pin        PWMPin
	CycleTicks uint32 // carrier period in ticks
	Value      uint8  // last duty written, 0-255

	DefaultValue uint8 // value written on Shutdown

	driver PWMDriver
}

// NewPWMOutput configures pin at the given carrier frequency and drives it to
// its default value.
func NewPWMOutput(driver PWMDriver, pin PWMPin, freqHz uint32, defaultValue uint8) (*PWMOutput, error) {
	actual, err := driver.ConfigureHardwarePWM(pin, CycleTicksFromHz(freqHz))
	if err != nil {
		return nil, err
	}

	out := &PWMOutput{
		Pin:          pin,
		CycleTicks:   actual,
		DefaultValue: defaultValue,
		driver:       driver,
	}
	if err := out.Set(defaultValue); err != nil {
		return nil, err
	}
	return out, nil
}

// Set writes an 8-bit duty value, scaled to the driver's range.
func (p *PWMOutput) Set(value uint8) error {
	if err := p.driver.SetDutyCycle(p.Pin, ScaleDuty(value, p.driver.GetMaxValue())); err != nil {
		return err
	}
	p.Value = value
	return nil
}

// Shutdown returns the channel to its default value.
func (p *PWMOutput) Shutdown() error {
	return p.Set(p.DefaultValue)
}

// ScaleDuty maps 0-255 onto 0-max.
func ScaleDuty(value uint8, max uint32) PWMValue {
	if max == DutyMax {
		return PWMValue(value)
	}
	return PWMValue((uint32(value) * max) / DutyMax)
}

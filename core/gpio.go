// Digital I/O
// DigitalOut drives the aux signal; DigitalIn samples the driver fault line.
package core

// DigitalOut is a configured GPIO output.
type DigitalOut struct {
	Pin          GPIOPin
	Value        bool
	DefaultValue bool

	driver GPIODriver
}

// NewDigitalOut configures pin as an output at its default level.
func NewDigitalOut(driver GPIODriver, pin GPIOPin, defaultValue bool) (*DigitalOut, error) {
	if err := driver.ConfigureOutput(pin); err != nil {
		return nil, err
	}
	out := &DigitalOut{Pin: pin, DefaultValue: defaultValue, driver: driver}
	if err := out.Set(defaultValue); err != nil {
		return nil, err
	}
	return out, nil
}

// Set drives the pin.
func (d *DigitalOut) Set(value bool) error {
	if err := d.driver.SetPin(d.Pin, value); err != nil {
		return err
	}
	d.Value = value
	return nil
}

// Toggle inverts the last written level.
func (d *DigitalOut) Toggle() error {
	return d.Set(!d.Value)
}

// DigitalIn is a configured GPIO input with an asserted polarity.
type DigitalIn struct {
	Pin       GPIOPin
	ActiveLow bool

	driver GPIODriver
}

// NewDigitalIn configures pin as an input. Active-low lines get the pull-up,
// active-high lines the pull-down, so an unconnected line reads deasserted.
func NewDigitalIn(driver GPIODriver, pin GPIOPin, activeLow bool) (*DigitalIn, error) {
	var err error
	if activeLow {
		err = driver.ConfigureInputPullUp(pin)
	} else {
		err = driver.ConfigureInputPullDown(pin)
	}
	if err != nil {
		return nil, err
	}
	return &DigitalIn{Pin: pin, ActiveLow: activeLow, driver: driver}, nil
}

// Asserted samples the line and applies polarity. A failed read counts as
// asserted.
func (d *DigitalIn) Asserted() bool {
	level, err := d.driver.GetPin(d.Pin)
	if err != nil {
		return true
	}
	return level != d.ActiveLow
}

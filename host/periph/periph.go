//go:build !tinygo

// Package periph drives the robot from a Linux single board computer through
// periph.io. Pins are addressed by their global GPIO number.
package periph

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"wanderbot/core"
)

// Init loads the periph host drivers. Call it once before NewBoard.
func Init() error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "periph host init")
	}
	return nil
}

// Resolver looks a pin up by name. gpioreg.ByName in production.
type Resolver func(name string) gpio.PinIO

// Board implements core.PWMDriver and core.GPIODriver.
type Board struct {
	mu      sync.Mutex
	resolve Resolver
	pins    map[uint32]gpio.PinIO
	freq    map[core.PWMPin]physic.Frequency
}

// NewBoard returns a board resolving pins through gpioreg.
func NewBoard() *Board {
	return NewBoardWithResolver(gpioreg.ByName)
}

// NewBoardWithResolver returns a board using resolve to find pins.
func NewBoardWithResolver(resolve Resolver) *Board {
	return &Board{
		resolve: resolve,
		pins:    make(map[uint32]gpio.PinIO),
		freq:    make(map[core.PWMPin]physic.Frequency),
	}
}

// expects b.mu held.
func (b *Board) pin(num uint32) (gpio.PinIO, error) {
	if p, ok := b.pins[num]; ok {
		return p, nil
	}
	name := strconv.FormatUint(uint64(num), 10)
	p := b.resolve(name)
	if p == nil {
		return nil, errors.Errorf("no global pin found for %q", name)
	}
	b.pins[num] = p
	return p, nil
}

// ConfigureHardwarePWM starts pin at zero duty with the requested carrier.
func (b *Board) ConfigureHardwarePWM(pin core.PWMPin, cycleTicks uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	hz := core.HzFromCycleTicks(cycleTicks)
	if hz == 0 {
		return 0, errors.Errorf("pwm pin %d: zero cycle ticks", pin)
	}
	p, err := b.pin(uint32(pin))
	if err != nil {
		return 0, err
	}
	f := physic.Frequency(hz) * physic.Hertz
	if err := p.PWM(0, f); err != nil {
		return 0, errors.Wrapf(err, "pwm pin %d", pin)
	}
	b.freq[pin] = f
	return cycleTicks, nil
}

// SetDutyCycle writes value, already scaled to GetMaxValue.
func (b *Board) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.freq[pin]
	if !ok {
		return errors.Errorf("pwm pin %d not configured", pin)
	}
	p, err := b.pin(uint32(pin))
	if err != nil {
		return err
	}
	duty := gpio.Duty(value)
	if duty > gpio.DutyMax {
		duty = gpio.DutyMax
	}
	return errors.Wrapf(p.PWM(duty, f), "pwm pin %d", pin)
}

// GetMaxValue returns periph's full-scale duty.
func (b *Board) GetMaxValue() uint32 {
	return uint32(gpio.DutyMax)
}

// DisablePWM stops the carrier and drives the pin low.
func (b *Board) DisablePWM(pin core.PWMPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.pin(uint32(pin))
	if err != nil {
		return err
	}
	delete(b.freq, pin)
	return errors.Wrapf(p.Out(gpio.Low), "pwm pin %d", pin)
}

func (b *Board) in(pin core.GPIOPin, pull gpio.Pull) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.pin(uint32(pin))
	if err != nil {
		return err
	}
	return errors.Wrapf(p.In(pull, gpio.NoEdge), "gpio pin %d", pin)
}

// ConfigureOutput configures pin as an output driven low.
func (b *Board) ConfigureOutput(pin core.GPIOPin) error {
	return b.SetPin(pin, false)
}

// ConfigureInputPullUp configures pin as an input with pull-up.
func (b *Board) ConfigureInputPullUp(pin core.GPIOPin) error {
	return b.in(pin, gpio.PullUp)
}

// ConfigureInputPullDown configures pin as an input with pull-down.
func (b *Board) ConfigureInputPullDown(pin core.GPIOPin) error {
	return b.in(pin, gpio.PullDown)
}

// SetPin drives pin.
func (b *Board) SetPin(pin core.GPIOPin, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.pin(uint32(pin))
	if err != nil {
		return err
	}
	l := gpio.Low
	if value {
		l = gpio.High
	}
	return errors.Wrapf(p.Out(l), "gpio pin %d", pin)
}

// GetPin reads pin.
func (b *Board) GetPin(pin core.GPIOPin) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.pin(uint32(pin))
	if err != nil {
		return false, err
	}
	return p.Read() == gpio.High, nil
}

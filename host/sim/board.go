// Package sim provides an in-memory board implementing the core HAL.
// It records every duty write so tests and the simulator can replay what the
// actuation layer did.
package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"wanderbot/core"
)

// PinMode is the configured mode of a simulated GPIO pin.
type PinMode uint8

const (
	PinUnconfigured PinMode = iota
	PinOutput
	PinInputPullUp
	PinInputPullDown
)

// PWMChannel is the state of one simulated PWM pin.
type PWMChannel struct {
	CycleTicks uint32
	Duty       core.PWMValue
	Enabled    bool
}

// Pin is the state of one simulated GPIO pin.
type Pin struct {
	Mode  PinMode
	Level bool
}

// Write is one recorded duty cycle write.
type Write struct {
	Pin   core.PWMPin
	Value core.PWMValue
}

// Board implements core.PWMDriver, core.GPIODriver and core.ADCDriver.
type Board struct {
	mu sync.Mutex

	maxValue uint32
	pwm      map[core.PWMPin]*PWMChannel
	pins     map[core.GPIOPin]*Pin
	writes   []Write
	failures map[core.PWMPin]error

	noise   *rand.Rand
	onWrite func(Write)
}

// NewBoard returns a board with an 8-bit PWM range and a seeded noise source.
func NewBoard(noiseSeed int64) *Board {
	return &Board{
		maxValue: core.DutyMax,
		pwm:      make(map[core.PWMPin]*PWMChannel),
		pins:     make(map[core.GPIOPin]*Pin),
		failures: make(map[core.PWMPin]error),
		noise:    rand.New(rand.NewSource(noiseSeed)),
	}
}

// ConfigureHardwarePWM enables PWM on pin.
func (b *Board) ConfigureHardwarePWM(pin core.PWMPin, cycleTicks uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cycleTicks == 0 {
		return 0, fmt.Errorf("pwm pin %d: zero cycle ticks", pin)
	}
	b.pwm[pin] = &PWMChannel{CycleTicks: cycleTicks, Enabled: true}
	return cycleTicks, nil
}

// SetDutyCycle records the write and updates the channel.
func (b *Board) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	b.mu.Lock()
	ch, ok := b.pwm[pin]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("pwm pin %d not configured", pin)
	}
	if err := b.failures[pin]; err != nil {
		b.mu.Unlock()
		return err
	}
	if uint32(value) > b.maxValue {
		value = core.PWMValue(b.maxValue)
	}
	ch.Duty = value
	w := Write{Pin: pin, Value: value}
	b.writes = append(b.writes, w)
	hook := b.onWrite
	b.mu.Unlock()

	if hook != nil {
		hook(w)
	}
	return nil
}

// GetMaxValue returns the full-scale duty value.
func (b *Board) GetMaxValue() uint32 {
	return b.maxValue
}

// DisablePWM turns the channel off.
func (b *Board) DisablePWM(pin core.PWMPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.pwm[pin]; ok {
		ch.Enabled = false
		ch.Duty = 0
	}
	return nil
}

func (b *Board) configure(pin core.GPIOPin, mode PinMode, level bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pins[pin] = &Pin{Mode: mode, Level: level}
	return nil
}

// ConfigureOutput configures pin as an output driven low.
func (b *Board) ConfigureOutput(pin core.GPIOPin) error {
	return b.configure(pin, PinOutput, false)
}

// ConfigureInputPullUp configures pin as an input idling high.
func (b *Board) ConfigureInputPullUp(pin core.GPIOPin) error {
	return b.configure(pin, PinInputPullUp, true)
}

// ConfigureInputPullDown configures pin as an input idling low.
func (b *Board) ConfigureInputPullDown(pin core.GPIOPin) error {
	return b.configure(pin, PinInputPullDown, false)
}

// SetPin drives an output pin.
func (b *Board) SetPin(pin core.GPIOPin, value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pins[pin]
	if !ok || p.Mode != PinOutput {
		return fmt.Errorf("gpio pin %d is not an output", pin)
	}
	p.Level = value
	return nil
}

// GetPin reads a pin level.
func (b *Board) GetPin(pin core.GPIOPin) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pins[pin]
	if !ok {
		return false, fmt.Errorf("gpio pin %d not configured", pin)
	}
	return p.Level, nil
}

// Init satisfies core.ADCDriver.
func (b *Board) Init(core.ADCConfig) error {
	return nil
}

// ConfigureChannel satisfies core.ADCDriver.
func (b *Board) ConfigureChannel(core.ADCChannelID) error {
	return nil
}

// ReadRaw returns 12 bits of noise scaled to 16 bits, like a floating input.
func (b *Board) ReadRaw(core.ADCChannelID) (core.ADCValue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return core.ADCValue(b.noise.Intn(4096) << 4), nil
}

// DriveInput sets the level seen on an input pin, as external hardware would.
func (b *Board) DriveInput(pin core.GPIOPin, level bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pins[pin]
	if !ok {
		p = &Pin{}
		b.pins[pin] = p
	}
	p.Level = level
}

// SetFault asserts or releases an active-low fault line such as DRV8833 nFAULT.
func (b *Board) SetFault(pin core.GPIOPin, asserted bool) {
	b.DriveInput(pin, !asserted)
}

// FailWrites makes every later write to pin return err. A nil err clears it.
func (b *Board) FailWrites(pin core.PWMPin, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		delete(b.failures, pin)
		return
	}
	b.failures[pin] = err
}

// OnWrite installs a hook called after every successful duty write.
func (b *Board) OnWrite(hook func(Write)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.onWrite = hook
}

// Duty returns the current duty of pin.
func (b *Board) Duty(pin core.PWMPin) core.PWMValue {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.pwm[pin]; ok {
		return ch.Duty
	}
	return 0
}

// Channel returns a copy of the PWM channel state.
func (b *Board) Channel(pin core.PWMPin) (PWMChannel, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.pwm[pin]
	if !ok {
		return PWMChannel{}, false
	}
	return *ch, true
}

// Level returns the current level of a GPIO pin.
func (b *Board) Level(pin core.GPIOPin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pins[pin]; ok {
		return p.Level
	}
	return false
}

// Mode returns the configured mode of a GPIO pin.
func (b *Board) Mode(pin core.GPIOPin) PinMode {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pins[pin]; ok {
		return p.Mode
	}
	return PinUnconfigured
}

// Writes returns the duty values written to pin, oldest first.
func (b *Board) Writes(pin core.PWMPin) []core.PWMValue {
	b.mu.Lock()
	defer b.mu.Unlock()

	var values []core.PWMValue
	for _, w := range b.writes {
		if w.Pin == pin {
			values = append(values, w.Value)
		}
	}
	return values
}

// AllWrites returns every recorded write, oldest first.
func (b *Board) AllWrites() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Write, len(b.writes))
	copy(out, b.writes)
	return out
}

// ResetWrites clears the write history.
func (b *Board) ResetWrites() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.writes = nil
}

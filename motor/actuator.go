package motor

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"wanderbot/core"
)

// Actuator owns the four PWM legs and the fault input. It is not safe for
// concurrent use; the control loop is its only caller.
type Actuator struct {
	cfg   Config
	clock clock.Clock
	log   core.Logger
	boot  time.Time

	legs  [NumChannels]*core.PWMOutput
	fault *core.DigitalIn
	latch *core.FaultLatch

	ramps [NumWheels]*Ramp
}

// NewActuator configures every leg at cfg.PWMFrequency, configures the fault
// input and leaves all legs at zero.
func NewActuator(cfg Config, pwm core.PWMDriver, gpio core.GPIODriver, clk clock.Clock, log core.Logger) (*Actuator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = core.NopLogger{}
	}

	a := &Actuator{
		cfg:   cfg,
		clock: clk,
		log:   log,
		boot:  clk.Now(),
	}

	for ch, pin := range cfg.pins() {
		out, err := core.NewPWMOutput(pwm, pin, cfg.PWMFrequency, 0)
		if err != nil {
			return nil, fmt.Errorf("configure %s %s leg (pin %d): %w",
				Channel(ch).Wheel(), Channel(ch).Direction(), pin, err)
		}
		a.legs[ch] = out
	}

	if cfg.FaultPin != core.NoPin {
		in, err := core.NewDigitalIn(gpio, cfg.FaultPin, cfg.FaultActiveLow)
		if err != nil {
			return nil, fmt.Errorf("configure fault pin %d: %w", cfg.FaultPin, err)
		}
		a.fault = in
	}

	a.log.Infof("Motors configured: PWM %dHz, speed range %d-%d, ramp %d steps x %v",
		cfg.PWMFrequency, cfg.MinSpeed, cfg.MaxSpeed, cfg.RampSteps, cfg.RampStepDelay)
	return a, nil
}

// Config returns the actuator configuration.
func (a *Actuator) Config() Config {
	return a.cfg
}

// SetFaultLatch installs a latch tripped from the fault pin interrupt.
func (a *Actuator) SetFaultLatch(latch *core.FaultLatch) {
	a.latch = latch
}

// Clamp limits speed to the configured range.
func (a *Actuator) Clamp(speed int) int {
	return Clamp(speed, a.cfg.MinSpeed, a.cfg.MaxSpeed)
}

// SetChannelSpeed clamps speed and writes it to one leg. Out-of-range speeds
// are not an error; only HAL write failures are returned.
func (a *Actuator) SetChannelSpeed(ch Channel, speed int) error {
	if int(ch) >= NumChannels {
		return fmt.Errorf("invalid channel %d", ch)
	}
	return a.legs[ch].Set(uint8(a.Clamp(speed)))
}

// zero releases a leg. It bypasses the clamp: MinSpeed is the lowest
// non-zero drive, zero always means off.
func (a *Actuator) zero(ch Channel) error {
	return a.legs[ch].Set(0)
}

// DriveWheel puts the clamped speed on the leg for d and zero on the other
// leg. A speed of zero or less coasts the wheel. Any ramp on the wheel is
// cancelled.
func (a *Actuator) DriveWheel(w Wheel, d Direction, speed int) error {
	if w >= NumWheels {
		return fmt.Errorf("invalid wheel %d", w)
	}
	if d > Backward {
		return fmt.Errorf("invalid direction %d", d)
	}
	a.ramps[w] = nil
	return a.driveWheel(w, d, speed)
}

// driveWheel zeroes the inactive leg before raising the active one so both
// legs are never non-zero together.
func (a *Actuator) driveWheel(w Wheel, d Direction, speed int) error {
	active := ChannelFor(w, d)
	inactive := ChannelFor(w, 1-d)

	if err := a.zero(inactive); err != nil {
		return err
	}
	if speed <= 0 {
		if err := a.zero(active); err != nil {
			return err
		}
		core.RecordEvent(core.EvtDrive, uint8(w), a.millis(), 0)
		return nil
	}
	if err := a.SetChannelSpeed(active, speed); err != nil {
		return err
	}
	core.RecordEvent(core.EvtDrive, uint8(w), a.millis(), int32(WheelCommand{d, a.Clamp(speed)}.Signed()))
	return nil
}

// StopAll writes zero to every leg (coast, never brake) and cancels ramps.
// Every leg is attempted; write errors are combined.
func (a *Actuator) StopAll() error {
	var err error
	for w := range a.ramps {
		a.ramps[w] = nil
	}
	for ch := range a.legs {
		err = multierr.Append(err, a.zero(Channel(ch)))
	}
	core.RecordEvent(core.EvtStopAll, 0, a.millis(), 0)
	return err
}

// CheckFault samples the fault line. It has no side effects and no
// debouncing. Without a fault pin it reports false unless the interrupt latch
// is tripped.
func (a *Actuator) CheckFault() bool {
	if a.latch != nil && a.latch.Tripped() {
		return true
	}
	if a.fault == nil {
		return false
	}
	return a.fault.Asserted()
}

// FaultCauses lists what trips the DRV8833 nFAULT output.
var FaultCauses = []string{
	"overcurrent",
	"overtemperature",
	"undervoltage lockout",
	"short circuit",
}

// ReportFault logs a driver fault with its possible causes and clears the
// interrupt latch.
func (a *Actuator) ReportFault(context string) {
	core.RecordEvent(core.EvtFault, 0, a.millis(), -1)
	a.log.Errorf("Motor driver FAULT detected: %s", context)
	for _, cause := range FaultCauses {
		a.log.Warnf("  possible cause: %s", cause)
	}
	if a.latch != nil {
		a.latch.Clear()
	}
}

// LogFaultStatus reports the current fault state.
func (a *Actuator) LogFaultStatus() {
	if a.CheckFault() {
		a.ReportFault("status check")
		return
	}
	a.log.Infof("Motor driver status: OK")
}

// Speed returns the last duty written to a leg.
func (a *Actuator) Speed(ch Channel) int {
	if int(ch) >= NumChannels {
		return 0
	}
	return int(a.legs[ch].Value)
}

// WheelSpeed returns the signed speed a wheel is currently driven at.
func (a *Actuator) WheelSpeed(w Wheel) int {
	fwd := a.Speed(ChannelFor(w, Forward))
	back := a.Speed(ChannelFor(w, Backward))
	return fwd - back
}

func (a *Actuator) millis() uint32 {
	return uint32(a.clock.Since(a.boot) / time.Millisecond)
}

package motor

import (
	"fmt"
	"time"

	"wanderbot/core"
)

// RampSpec describes a stepped speed change on one wheel.
// Steps and StepDelay fall back to the actuator config when zero.
type RampSpec struct {
	Wheel     Wheel
	Direction Direction
	Start     int
	End       int
	Steps     int
	StepDelay time.Duration
}

// SpeedAt returns the interpolated speed for step i of n.
// Step 0 is Start, step n is exactly End.
func (s RampSpec) SpeedAt(i int) int {
	return s.Start + (s.End-s.Start)*i/s.Steps
}

// Ramp is an in-progress RampSpec, advanced one step per due Tick.
type Ramp struct {
	spec     RampSpec
	step     int
	lastStep time.Time
}

// Spec returns the resolved spec.
func (r *Ramp) Spec() RampSpec {
	return r.spec
}

// Step returns the last issued step index.
func (r *Ramp) Step() int {
	return r.step
}

// Done reports whether the final step has been issued.
func (r *Ramp) Done() bool {
	return r.step >= r.spec.Steps
}

// StartRamp checks the fault line, writes the start speed and schedules the
// remaining steps for Tick. A ramp already running on the wheel is replaced.
func (a *Actuator) StartRamp(spec RampSpec, now time.Time) error {
	if spec.Wheel >= NumWheels {
		return fmt.Errorf("invalid wheel %d", spec.Wheel)
	}
	if spec.Steps <= 0 {
		spec.Steps = a.cfg.RampSteps
	}
	if spec.StepDelay <= 0 {
		spec.StepDelay = a.cfg.RampStepDelay
	}

	a.ramps[spec.Wheel] = nil
	if a.CheckFault() {
		return a.abortOnFault(spec.Wheel, 0)
	}
	if err := a.driveWheel(spec.Wheel, spec.Direction, spec.Start); err != nil {
		return err
	}
	a.ramps[spec.Wheel] = &Ramp{spec: spec, lastStep: now}
	return nil
}

// RampWheel ramps w from start to end over total, split into the configured
// step count.
func (a *Actuator) RampWheel(w Wheel, d Direction, start, end int, total time.Duration, now time.Time) error {
	steps := a.cfg.RampSteps
	return a.StartRamp(RampSpec{
		Wheel:     w,
		Direction: d,
		Start:     start,
		End:       end,
		Steps:     steps,
		StepDelay: total / time.Duration(steps),
	}, now)
}

// Ramping reports whether any wheel has a ramp in progress.
func (a *Actuator) Ramping() bool {
	for _, r := range a.ramps {
		if r != nil {
			return true
		}
	}
	return false
}

// ActiveRamp returns the ramp running on w, or nil.
func (a *Actuator) ActiveRamp(w Wheel) *Ramp {
	if w >= NumWheels {
		return nil
	}
	return a.ramps[w]
}

// Tick advances every ramp that is due by at most one step. The fault line is
// sampled before each step; on a fault the ramp is abandoned, every leg is
// forced to zero and ErrDriverFault is returned.
func (a *Actuator) Tick(now time.Time) error {
	for w := range a.ramps {
		r := a.ramps[w]
		if r == nil || now.Sub(r.lastStep) < r.spec.StepDelay {
			continue
		}

		next := r.step + 1
		if a.CheckFault() {
			return a.abortOnFault(Wheel(w), next)
		}

		speed := r.spec.SpeedAt(next)
		if err := a.driveWheel(Wheel(w), r.spec.Direction, speed); err != nil {
			a.ramps[w] = nil
			return fmt.Errorf("ramp %s step %d: %w", Wheel(w), next, err)
		}
		core.RecordEvent(core.EvtRampStep, uint8(w), a.millis(), int32(speed))

		r.step = next
		r.lastStep = now
		if r.Done() {
			core.RecordEvent(core.EvtRampDone, uint8(w), a.millis(), int32(r.spec.End))
			a.log.Debugf("Ramp %s complete at %d", Wheel(w), r.spec.End)
			a.ramps[w] = nil
		}
	}
	return nil
}

func (a *Actuator) abortOnFault(w Wheel, step int) error {
	a.ReportFault(fmt.Sprintf("ramp on %s wheel aborted at step %d", w, step))
	if err := a.StopAll(); err != nil {
		a.log.Errorf("Failed to stop motors after fault: %v", err)
	}
	return fmt.Errorf("ramp %s step %d: %w", w, step, ErrDriverFault)
}

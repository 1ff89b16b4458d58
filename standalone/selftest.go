package standalone

import (
	"time"

	"wanderbot/core"
	"wanderbot/standalone/kinematics"
)

// SelfTestStep holds one direction for a fixed time.
type SelfTestStep struct {
	Direction kinematics.MotorDirection
	Hold      time.Duration
}

// DefaultSelfTest exercises every direction with a stop in between.
func DefaultSelfTest() []SelfTestStep {
	return []SelfTestStep{
		{kinematics.DirForward, 2 * time.Second},
		{kinematics.DirStop, 1 * time.Second},
		{kinematics.DirBackward, 2 * time.Second},
		{kinematics.DirStop, 1 * time.Second},
		{kinematics.DirTurnLeft, 2 * time.Second},
		{kinematics.DirStop, 1 * time.Second},
		{kinematics.DirTurnRight, 2 * time.Second},
		{kinematics.DirStop, 1 * time.Second},
	}
}

// SelfTest steps through a fixed direction program, one check per Advance.
type SelfTest struct {
	steps     []SelfTestStep
	drive     *kinematics.Differential
	log       core.Logger
	index     int
	started   bool
	stepStart time.Time
}

// NewSelfTest returns a self test over steps.
func NewSelfTest(steps []SelfTestStep, drive *kinematics.Differential, log core.Logger) *SelfTest {
	if log == nil {
		log = core.NopLogger{}
	}
	return &SelfTest{steps: steps, drive: drive, log: log}
}

// Done reports whether every step has run.
func (t *SelfTest) Done() bool {
	return t.index >= len(t.steps)
}

// Step returns the index of the running step.
func (t *SelfTest) Step() int {
	return t.index
}

// Advance starts the first step, or the next one once the running step has
// been held long enough. It reports true when the program has finished.
func (t *SelfTest) Advance(now time.Time) (bool, error) {
	if t.Done() {
		return true, nil
	}
	if !t.started {
		t.started = true
		t.log.Infof("=== Self test ===")
		return false, t.start(now)
	}
	if now.Sub(t.stepStart) < t.steps[t.index].Hold {
		return false, nil
	}

	t.index++
	if t.Done() {
		t.log.Infof("Self test complete")
		return true, t.drive.Stop()
	}
	return false, t.start(now)
}

func (t *SelfTest) start(now time.Time) error {
	step := t.steps[t.index]
	t.stepStart = now
	t.log.Infof("Testing %s", step.Direction)
	return t.drive.SetDirection(step.Direction)
}

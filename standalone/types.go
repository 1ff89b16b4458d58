package standalone

import (
	"time"

	"wanderbot/core"
	"wanderbot/standalone/kinematics"
)

// Rand is the random source the generators and the rest draw use.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// AuxOutput is the auxiliary digital signal. *core.DigitalOut satisfies it.
type AuxOutput interface {
	Set(value bool) error
}

// Movement produces the next motion of a mode each time its poller fires.
type Movement interface {
	AdvanceMovement(ctx *ModeContext) error
}

// AuxPattern produces the next aux level each time its poller fires.
type AuxPattern interface {
	AdvanceAux(ctx *ModeContext) error
}

// DriftSettings bounds the speeds the drift movement picks from.
type DriftSettings struct {
	MinSpeed  int
	MaxSpeed  int
	CurveDiff int
}

// ModeContext is everything a generator may touch. Now is the timestamp of
// the Update that invoked it.
type ModeContext struct {
	Drive *kinematics.Differential
	Aux   AuxOutput
	Rand  Rand
	Log   core.Logger
	Drift DriftSettings
	Now   time.Time
}

// ModeDescriptor is one row of the mode table. Generator constructors are
// invoked once per scheduler.
type ModeDescriptor struct {
	Name             string
	NewMovement      func() Movement
	NewAux           func() AuxPattern
	MovementInterval time.Duration
	AuxInterval      time.Duration
	AuxDuration      time.Duration // how long a pulse is held, informational
}

// SchedulerConfig holds the session and rest timing, in seconds.
type SchedulerConfig struct {
	Durations      []int
	MinRestSeconds int
	MaxRestSeconds int
}

// SchedulerState is a snapshot of the scheduler.
type SchedulerState struct {
	ActiveModeIndex int
	DurationIndex   int
	ModeStart       time.Time
	LastMovement    time.Time
	LastAux         time.Time
	Resting         bool
	RestSeconds     int
}

// ModeEvent is published on every mode change.
type ModeEvent struct {
	Mode    string
	Index   int // -1 while resting
	Resting bool
	Seconds int // session or rest length
	At      time.Time
}

package standalone

import (
	"time"

	"wanderbot/motor"
	"wanderbot/standalone/kinematics"
)

// Mode table indexes.
const (
	ModeSpin = iota
	ModeWander
	ModePulse
	ModeCircle
	ModeZigzag
	ModeDrift
	ModeStop
	ModeRest
)

// DefaultModes returns the built-in mode table. Rest is always last.
func DefaultModes() []ModeDescriptor {
	return []ModeDescriptor{
		{
			Name:             "Spin",
			NewMovement:      func() Movement { return &spinMovement{} },
			NewAux:           func() AuxPattern { return &blinkAux{} },
			MovementInterval: 100 * time.Millisecond,
			AuxInterval:      100 * time.Millisecond,
			AuxDuration:      100 * time.Millisecond,
		},
		{
			Name:             "Wander",
			NewMovement:      func() Movement { return wanderMovement{} },
			NewAux:           func() AuxPattern { return randomAux{} },
			MovementInterval: 500 * time.Millisecond,
			AuxInterval:      200 * time.Millisecond,
			AuxDuration:      50 * time.Millisecond,
		},
		{
			Name:             "Pulse",
			NewMovement:      func() Movement { return &pulseMovement{} },
			NewAux:           func() AuxPattern { return &pulseAux{} },
			MovementInterval: 1000 * time.Millisecond,
			AuxInterval:      500 * time.Millisecond,
			AuxDuration:      200 * time.Millisecond,
		},
		{
			Name:             "Circle",
			NewMovement:      func() Movement { return &circleMovement{} },
			NewAux:           func() AuxPattern { return &waveAux{} },
			MovementInterval: 200 * time.Millisecond,
			AuxInterval:      100 * time.Millisecond,
			AuxDuration:      150 * time.Millisecond,
		},
		{
			Name:             "Zigzag",
			NewMovement:      func() Movement { return &zigzagMovement{} },
			NewAux:           func() AuxPattern { return &blinkAux{} },
			MovementInterval: 300 * time.Millisecond,
			AuxInterval:      150 * time.Millisecond,
			AuxDuration:      75 * time.Millisecond,
		},
		{
			Name:             "Drift",
			NewMovement:      func() Movement { return driftMovement{} },
			NewAux:           func() AuxPattern { return &pulseAux{} },
			MovementInterval: 1500 * time.Millisecond,
			AuxInterval:      250 * time.Millisecond,
			AuxDuration:      100 * time.Millisecond,
		},
		{
			Name:             "Stop",
			NewMovement:      func() Movement { return stopMovement{} },
			NewAux:           func() AuxPattern { return offAux{} },
			MovementInterval: 1000 * time.Millisecond,
			AuxInterval:      1000 * time.Millisecond,
		},
		{
			Name:             "Rest",
			NewMovement:      func() Movement { return stopMovement{} },
			NewAux:           func() AuxPattern { return offAux{} },
			MovementInterval: 2000 * time.Millisecond,
			AuxInterval:      2000 * time.Millisecond,
		},
	}
}

// spinMovement pivots left, then right, alternating.
type spinMovement struct {
	right bool
}

func (m *spinMovement) AdvanceMovement(ctx *ModeContext) error {
	dir := kinematics.DirTurnLeft
	if m.right {
		dir = kinematics.DirTurnRight
	}
	m.right = !m.right
	ctx.Log.Debugf("Spin pattern: %s", dir)
	return ctx.Drive.SetDirection(dir)
}

var wanderDirections = [...]kinematics.MotorDirection{
	kinematics.DirForward,
	kinematics.DirBackward,
	kinematics.DirTurnLeft,
	kinematics.DirTurnRight,
}

// wanderMovement picks one of the four moves at random.
type wanderMovement struct{}

func (wanderMovement) AdvanceMovement(ctx *ModeContext) error {
	dir := wanderDirections[ctx.Rand.Intn(len(wanderDirections))]
	ctx.Log.Debugf("Wander pattern: %s", dir)
	return ctx.Drive.SetDirection(dir)
}

// pulseMovement alternates forward and backward, starting forward.
type pulseMovement struct {
	backward bool
}

func (m *pulseMovement) AdvanceMovement(ctx *ModeContext) error {
	dir := kinematics.DirForward
	if m.backward {
		dir = kinematics.DirBackward
	}
	m.backward = !m.backward
	ctx.Log.Debugf("Pulse pattern: %s", dir)
	return ctx.Drive.SetDirection(dir)
}

// circleMovement alternates which wheel runs at half speed.
type circleMovement struct {
	phase int
}

func (m *circleMovement) AdvanceMovement(ctx *ModeContext) error {
	full := ctx.Drive.Cruise()
	half := full / 2

	left, right := full, half
	if m.phase == 1 {
		left, right = half, full
	}
	m.phase = (m.phase + 1) % 2

	ctx.Log.Debugf("Circle pattern: left=%d right=%d", left, right)
	return ctx.Drive.Move("circle", left, right)
}

var zigzagSequence = [...]kinematics.MotorDirection{
	kinematics.DirForward,
	kinematics.DirTurnLeft,
	kinematics.DirForward,
	kinematics.DirTurnRight,
}

type zigzagMovement struct {
	phase int
}

func (m *zigzagMovement) AdvanceMovement(ctx *ModeContext) error {
	dir := zigzagSequence[m.phase]
	m.phase = (m.phase + 1) % len(zigzagSequence)
	ctx.Log.Debugf("Zigzag pattern: %s", dir)
	return ctx.Drive.SetDirection(dir)
}

type stopMovement struct{}

func (stopMovement) AdvanceMovement(ctx *ModeContext) error {
	return ctx.Drive.SetDirection(kinematics.DirStop)
}

// Drift move weights, percent.
const (
	driftForwardWeight    = 30
	driftCurveLeftWeight  = 20
	driftCurveRightWeight = 20
	driftBackwardWeight   = 15
	driftPauseWeight      = 15
)

// driftMovement picks a weighted move and ramps both wheels into it.
type driftMovement struct{}

func (driftMovement) AdvanceMovement(ctx *ModeContext) error {
	d := ctx.Drift
	speed := d.MinSpeed + ctx.Rand.Intn(d.MaxSpeed-d.MinSpeed+1)
	slow := motor.Clamp(speed-d.CurveDiff, d.MinSpeed, d.MaxSpeed)

	r := ctx.Rand.Intn(driftForwardWeight + driftCurveLeftWeight + driftCurveRightWeight +
		driftBackwardWeight + driftPauseWeight)

	switch {
	case r < driftForwardWeight:
		ctx.Log.Debugf("Drift: forward at %d", speed)
		return ctx.Drive.RampTo(speed, speed, ctx.Now)
	case r < driftForwardWeight+driftCurveLeftWeight:
		ctx.Log.Debugf("Drift: curve left at %d/%d", slow, speed)
		return ctx.Drive.RampTo(slow, speed, ctx.Now)
	case r < driftForwardWeight+driftCurveLeftWeight+driftCurveRightWeight:
		ctx.Log.Debugf("Drift: curve right at %d/%d", speed, slow)
		return ctx.Drive.RampTo(speed, slow, ctx.Now)
	case r < driftForwardWeight+driftCurveLeftWeight+driftCurveRightWeight+driftBackwardWeight:
		ctx.Log.Debugf("Drift: backward at %d", speed)
		return ctx.Drive.RampTo(-speed, -speed, ctx.Now)
	}
	ctx.Log.Debugf("Drift: pause")
	return ctx.Drive.Stop()
}

// blinkAux toggles the output, first call drives it high.
type blinkAux struct {
	on bool
}

func (a *blinkAux) AdvanceAux(ctx *ModeContext) error {
	a.on = !a.on
	return ctx.Aux.Set(a.on)
}

// pulseAux toggles on every other call.
type pulseAux struct {
	phase int
	on    bool
}

func (a *pulseAux) AdvanceAux(ctx *ModeContext) error {
	var err error
	if a.phase%2 == 0 {
		a.on = !a.on
		err = ctx.Aux.Set(a.on)
	}
	a.phase = (a.phase + 1) % 10
	return err
}

// waveAux holds high for three calls, then low for three.
type waveAux struct {
	phase int
}

func (a *waveAux) AdvanceAux(ctx *ModeContext) error {
	on := a.phase < 3
	a.phase = (a.phase + 1) % 6
	return ctx.Aux.Set(on)
}

type randomAux struct{}

func (randomAux) AdvanceAux(ctx *ModeContext) error {
	return ctx.Aux.Set(ctx.Rand.Intn(2) == 0)
}

type offAux struct{}

func (offAux) AdvanceAux(ctx *ModeContext) error {
	return ctx.Aux.Set(false)
}

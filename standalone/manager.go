// Package standalone runs the robot's autonomous behavior: the mode table,
// the scheduler that rotates through it and the manager that wires both to
// the actuation layer.
package standalone

import (
	"errors"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"wanderbot/core"
	"wanderbot/motor"
	"wanderbot/standalone/config"
	"wanderbot/standalone/kinematics"
)

// Manager coordinates all standalone mode components
type Manager struct {
	config   *config.RobotConfig
	clock    clock.Clock
	log      core.Logger
	rand     Rand
	modes    []ModeDescriptor
	latch    *core.FaultLatch
	observer func(ModeEvent)

	actuator  *motor.Actuator
	drive     *kinematics.Differential
	aux       AuxOutput
	scheduler *Scheduler
	selfTest  *SelfTest

	initialized bool
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock sets the time source. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the log sink.
func WithLogger(l core.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithRand injects the random source instead of seeding one from ADC noise.
func WithRand(r Rand) Option {
	return func(m *Manager) { m.rand = r }
}

// WithModes replaces the built-in mode table.
func WithModes(modes []ModeDescriptor) Option {
	return func(m *Manager) { m.modes = modes }
}

// WithFaultLatch installs an interrupt-driven fault latch on the actuator.
func WithFaultLatch(l *core.FaultLatch) Option {
	return func(m *Manager) { m.latch = l }
}

// WithModeObserver is called after every mode change.
func WithModeObserver(fn func(ModeEvent)) Option {
	return func(m *Manager) { m.observer = fn }
}

// NewManager creates a new standalone mode manager from a JSON config
func NewManager(configData []byte, opts ...Option) (*Manager, error) {
	cfg, err := config.LoadConfig(configData)
	if err != nil {
		return nil, err
	}

	return NewManagerWithConfig(cfg, opts...)
}

// NewManagerWithConfig creates a manager with an existing config
func NewManagerWithConfig(cfg *config.RobotConfig, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mgr := &Manager{
		config: cfg,
		clock:  clock.New(),
		log:    core.NopLogger{},
		modes:  DefaultModes(),
	}
	for _, opt := range opts {
		opt(mgr)
	}

	return mgr, nil
}

type nopAux struct{}

func (nopAux) Set(bool) error { return nil }

// InitActuation configures the motor legs, the fault input and the aux
// output through the registered HAL drivers, then stops all motors.
func (m *Manager) InitActuation() error {
	if m.initialized {
		return errors.New("already initialized")
	}

	gpio := core.MustGPIO()
	act, err := motor.NewActuator(m.config.MotorConfig(), core.MustPWM(), gpio, m.clock, m.log)
	if err != nil {
		return err
	}
	if m.latch != nil {
		act.SetFaultLatch(m.latch)
	}

	m.aux = nopAux{}
	if m.config.AuxPin != config.NoPin {
		out, err := core.NewDigitalOut(gpio, config.Pin(m.config.AuxPin), false)
		if err != nil {
			return err
		}
		m.aux = out
	}

	m.actuator = act
	m.drive = kinematics.NewDifferential(act, m.config.MotorSpeed, m.log)

	if err := act.StopAll(); err != nil {
		return err
	}
	act.LogFaultStatus()

	m.initialized = true
	return nil
}

// InitScheduler seeds the random source and starts the scheduler in the
// first mode. With SelfTestOnBoot the self test runs first.
func (m *Manager) InitScheduler() error {
	if !m.initialized {
		return errors.New("manager not initialized")
	}
	if m.scheduler != nil {
		return errors.New("scheduler already running")
	}

	if m.rand == nil {
		seed := m.seed()
		m.log.Infof("Random seed: %d", seed)
		m.rand = rand.New(rand.NewSource(seed))
	}

	now := m.clock.Now()
	ctx := &ModeContext{
		Drive: m.drive,
		Aux:   m.aux,
		Rand:  m.rand,
		Log:   m.log,
		Drift: DriftSettings{
			MinSpeed:  m.config.DriftMinSpeed,
			MaxSpeed:  m.config.DriftMaxSpeed,
			CurveDiff: m.config.CurveSpeedDiff,
		},
		Now: now,
	}
	s, err := NewScheduler(m.modes, SchedulerConfig{
		Durations:      m.config.Durations,
		MinRestSeconds: m.config.MinRestSeconds,
		MaxRestSeconds: m.config.MaxRestSeconds,
	}, ctx, now)
	if err != nil {
		return err
	}
	if m.observer != nil {
		s.OnModeChange(m.observer)
	}
	m.scheduler = s

	if m.config.SelfTestOnBoot {
		m.selfTest = NewSelfTest(DefaultSelfTest(), m.drive, m.log)
	}

	m.log.Infof("Starting with mode: %s, duration %d seconds", s.CurrentMode().Name, s.SessionSeconds())
	return nil
}

// seed folds ADC noise into a seed, falling back to the clock.
func (m *Manager) seed() int64 {
	adc := core.ADC()
	if adc == nil || m.config.NoiseChannel < 0 {
		return m.clock.Now().UnixNano()
	}
	if err := adc.Init(core.ADCConfig{}); err != nil {
		m.log.Warnf("ADC init failed, seeding from clock: %v", err)
		return m.clock.Now().UnixNano()
	}
	seed, err := core.NoiseSeed(adc, core.ADCChannelID(m.config.NoiseChannel))
	if err != nil {
		m.log.Warnf("ADC noise read failed, seeding from clock: %v", err)
		return m.clock.Now().UnixNano()
	}
	return seed
}

// Tick samples the clock once, advances ramps, then runs either the pending
// self test or one scheduler update. Errors are combined and returned; faults
// have already been logged by the actuator.
func (m *Manager) Tick() error {
	if m.scheduler == nil {
		return errors.New("scheduler not initialized")
	}
	now := m.clock.Now()

	err := m.actuator.Tick(now)

	if m.selfTest != nil {
		done, stErr := m.selfTest.Advance(now)
		err = multierr.Append(err, stErr)
		if done {
			m.selfTest = nil
			m.scheduler.Reset(now)
		}
		return err
	}

	return multierr.Append(err, m.scheduler.Update(now))
}

// Recover stops the motors after a panic in the control loop and dumps the
// actuation event ring.
func (m *Manager) Recover(reason interface{}) {
	m.log.Errorf("Control loop panic: %v", reason)
	core.DumpEventRing()
	if m.actuator == nil {
		return
	}
	if err := m.actuator.StopAll(); err != nil {
		m.log.Errorf("Emergency stop failed: %v", err)
	}
}

// Shutdown coasts the motors and drives the aux output low.
func (m *Manager) Shutdown() error {
	if !m.initialized {
		return nil
	}
	return multierr.Combine(m.actuator.StopAll(), m.aux.Set(false))
}

// Status is a snapshot of the robot for telemetry.
type Status struct {
	Mode       string
	ModeIndex  int // -1 while resting
	Resting    bool
	SelfTest   bool
	Seconds    int
	Remaining  time.Duration
	LeftSpeed  int
	RightSpeed int
	Fault      bool
}

// Status returns the current mode and wheel state.
func (m *Manager) Status() Status {
	var st Status
	if m.actuator != nil {
		st.LeftSpeed = m.actuator.WheelSpeed(motor.Left)
		st.RightSpeed = m.actuator.WheelSpeed(motor.Right)
		st.Fault = m.actuator.CheckFault()
	}
	if m.scheduler == nil {
		st.ModeIndex = -1
		return st
	}

	state := m.scheduler.State()
	st.Mode = m.scheduler.CurrentMode().Name
	st.ModeIndex = state.ActiveModeIndex
	st.Resting = state.Resting
	if st.Resting {
		st.ModeIndex = -1
	}
	st.SelfTest = m.selfTest != nil
	st.Seconds = m.scheduler.SessionSeconds()
	st.Remaining = m.scheduler.Remaining(m.clock.Now())
	return st
}

// Config returns the robot configuration.
func (m *Manager) Config() *config.RobotConfig {
	return m.config
}

// Actuator returns the actuation layer, nil before InitActuation.
func (m *Manager) Actuator() *motor.Actuator {
	return m.actuator
}

// Drive returns the differential drive, nil before InitActuation.
func (m *Manager) Drive() *kinematics.Differential {
	return m.drive
}

// Scheduler returns the scheduler, nil before InitScheduler.
func (m *Manager) Scheduler() *Scheduler {
	return m.scheduler
}

package standalone

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"wanderbot/core"
)

type modeRuntime struct {
	desc     ModeDescriptor
	movement Movement
	aux      AuxPattern
}

// Scheduler rotates through the mode table. Each active session runs for the
// next entry of the duration table and is followed by a rest of random
// length. It never blocks and never inspects the fault line.
type Scheduler struct {
	modes    []modeRuntime
	cfg      SchedulerConfig
	ctx      *ModeContext
	state    SchedulerState
	boot     time.Time
	observer func(ModeEvent)
}

// NewScheduler starts in the first mode with the first duration. The last
// table entry is the rest mode.
func NewScheduler(modes []ModeDescriptor, cfg SchedulerConfig, ctx *ModeContext, now time.Time) (*Scheduler, error) {
	if len(modes) < 2 {
		return nil, errors.New("mode table needs at least one mode and a rest mode")
	}
	if len(cfg.Durations) == 0 {
		return nil, errors.New("no mode durations")
	}
	if cfg.MinRestSeconds < 0 || cfg.MinRestSeconds > cfg.MaxRestSeconds {
		return nil, fmt.Errorf("invalid rest range [%d, %d]", cfg.MinRestSeconds, cfg.MaxRestSeconds)
	}
	if ctx == nil || ctx.Rand == nil {
		return nil, errors.New("scheduler needs a random source")
	}
	if ctx.Log == nil {
		ctx.Log = core.NopLogger{}
	}

	s := &Scheduler{
		modes: make([]modeRuntime, len(modes)),
		cfg:   cfg,
		ctx:   ctx,
		boot:  now,
	}
	for i, desc := range modes {
		if desc.NewMovement == nil || desc.NewAux == nil {
			return nil, fmt.Errorf("mode %q has no generators", desc.Name)
		}
		s.modes[i] = modeRuntime{
			desc:     desc,
			movement: desc.NewMovement(),
			aux:      desc.NewAux(),
		}
	}
	s.Reset(now)
	return s, nil
}

// OnModeChange installs fn to be called after every mode change.
func (s *Scheduler) OnModeChange(fn func(ModeEvent)) {
	s.observer = fn
}

// Reset restarts the current session's timers at now.
func (s *Scheduler) Reset(now time.Time) {
	s.state.ModeStart = now
	s.state.LastMovement = now
	s.state.LastAux = now
}

// Update runs one scheduler tick. A session or rest timeout switches mode
// and ends the tick. Otherwise the movement and aux pollers each fire when
// their interval has elapsed. Generator errors are combined and returned.
func (s *Scheduler) Update(now time.Time) error {
	elapsed := now.Sub(s.state.ModeStart)

	if s.state.Resting {
		if elapsed >= seconds(s.state.RestSeconds) {
			s.ctx.Log.Infof("Rest period ended after %d seconds", s.state.RestSeconds)
			s.nextMode(now)
			return nil
		}
	} else {
		limit := s.cfg.Durations[s.state.DurationIndex]
		if elapsed >= seconds(limit) {
			s.ctx.Log.Infof("Mode timeout reached after %d seconds", limit)
			s.nextMode(now)
			return nil
		}
	}

	mode := s.current()
	s.ctx.Now = now

	var err error
	if now.Sub(s.state.LastMovement) >= mode.desc.MovementInterval {
		s.state.LastMovement = now
		s.ctx.Log.Debugf("Updating movement pattern: %s", mode.desc.Name)
		err = multierr.Append(err, mode.movement.AdvanceMovement(s.ctx))
	}
	if now.Sub(s.state.LastAux) >= mode.desc.AuxInterval {
		s.state.LastAux = now
		err = multierr.Append(err, mode.aux.AdvanceAux(s.ctx))
	}
	return err
}

func (s *Scheduler) nextMode(now time.Time) {
	if s.state.Resting {
		s.state.Resting = false
		s.state.ActiveModeIndex = (s.state.ActiveModeIndex + 1) % (len(s.modes) - 1)
		s.state.DurationIndex = (s.state.DurationIndex + 1) % len(s.cfg.Durations)
	} else {
		s.state.Resting = true
		s.state.RestSeconds = s.cfg.MinRestSeconds +
			s.ctx.Rand.Intn(s.cfg.MaxRestSeconds-s.cfg.MinRestSeconds+1)
	}
	s.Reset(now)

	mode := s.current()
	event := ModeEvent{
		Mode:    mode.desc.Name,
		Index:   s.state.ActiveModeIndex,
		Resting: s.state.Resting,
		Seconds: s.SessionSeconds(),
		At:      now,
	}
	if event.Resting {
		event.Index = -1
	}

	log := s.ctx.Log
	log.Infof("--- Mode Change ---")
	if event.Resting {
		log.Infof("New mode: %s, Rest Duration: %d seconds", event.Mode, event.Seconds)
	} else {
		log.Infof("New mode: %s, Duration: %d seconds", event.Mode, event.Seconds)
	}
	log.Infof("Movement interval: %dms, Aux interval: %dms",
		mode.desc.MovementInterval.Milliseconds(), mode.desc.AuxInterval.Milliseconds())

	core.RecordEvent(core.EvtModeChange, 0, uint32(now.Sub(s.boot)/time.Millisecond), int32(event.Index))
	if s.observer != nil {
		s.observer(event)
	}
}

func (s *Scheduler) current() *modeRuntime {
	if s.state.Resting {
		return &s.modes[len(s.modes)-1]
	}
	return &s.modes[s.state.ActiveModeIndex]
}

// State returns a snapshot of the scheduler state.
func (s *Scheduler) State() SchedulerState {
	return s.state
}

// CurrentMode returns the descriptor of the running mode, Rest while resting.
func (s *Scheduler) CurrentMode() ModeDescriptor {
	return s.current().desc
}

// SessionSeconds returns the length of the running session or rest.
func (s *Scheduler) SessionSeconds() int {
	if s.state.Resting {
		return s.state.RestSeconds
	}
	return s.cfg.Durations[s.state.DurationIndex]
}

// Remaining returns how long the running session or rest has left at now.
func (s *Scheduler) Remaining(now time.Time) time.Duration {
	left := seconds(s.SessionSeconds()) - now.Sub(s.state.ModeStart)
	if left < 0 {
		return 0
	}
	return left
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

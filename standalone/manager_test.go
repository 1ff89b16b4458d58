package standalone

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"wanderbot/core"
	"wanderbot/host/sim"
	"wanderbot/motor"
	"wanderbot/standalone/config"
)

type managerFixture struct {
	mgr   *Manager
	board *sim.Board
	clock *clock.Mock
	logs  *observer.ObservedLogs
}

func newTestManager(t *testing.T, cfg *config.RobotConfig, withADC bool, opts ...Option) *managerFixture {
	t.Helper()

	board := sim.NewBoard(7)
	core.SetPWMDriver(board)
	core.SetGPIODriver(board)
	if withADC {
		core.SetADCDriver(board)
	} else {
		core.SetADCDriver(nil)
	}

	obs, logs := observer.New(zapcore.DebugLevel)
	mock := clock.NewMock()
	opts = append([]Option{WithClock(mock), WithLogger(zap.New(obs).Sugar())}, opts...)

	mgr, err := NewManagerWithConfig(cfg, opts...)
	if err != nil {
		t.Fatalf("NewManagerWithConfig failed: %v", err)
	}
	return &managerFixture{mgr: mgr, board: board, clock: mock, logs: logs}
}

func (f *managerFixture) init(t *testing.T) {
	t.Helper()
	if err := f.mgr.InitActuation(); err != nil {
		t.Fatalf("InitActuation failed: %v", err)
	}
	if err := f.mgr.InitScheduler(); err != nil {
		t.Fatalf("InitScheduler failed: %v", err)
	}
}

func (f *managerFixture) wheels() (int, int) {
	act := f.mgr.Actuator()
	return act.WheelSpeed(motor.Left), act.WheelSpeed(motor.Right)
}

func TestNewManagerFromJSON(t *testing.T) {
	mgr, err := NewManager([]byte(`{"motor_speed": 150}`))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if mgr.Config().MotorSpeed != 150 {
		t.Errorf("Expected motor speed 150, got %d", mgr.Config().MotorSpeed)
	}
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	if _, err := NewManager([]byte(`{"min_speed": 300}`)); err == nil {
		t.Error("Expected error for invalid speed range")
	}
	if _, err := NewManager([]byte(`not json`)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestManagerLifecycleOrder(t *testing.T) {
	f := newTestManager(t, config.DefaultConfig(), false, WithRand(&scriptedRand{}))

	if err := f.mgr.Tick(); err == nil {
		t.Error("Expected Tick to fail before initialization")
	}
	if err := f.mgr.InitScheduler(); err == nil {
		t.Error("Expected InitScheduler to fail before InitActuation")
	}

	f.init(t)

	if err := f.mgr.InitActuation(); err == nil {
		t.Error("Expected second InitActuation to fail")
	}
	if err := f.mgr.InitScheduler(); err == nil {
		t.Error("Expected second InitScheduler to fail")
	}
}

func TestManagerInitActuation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FaultPin = 9
	f := newTestManager(t, cfg, false)

	if err := f.mgr.InitActuation(); err != nil {
		t.Fatalf("InitActuation failed: %v", err)
	}

	for _, pin := range []core.PWMPin{2, 3, 4, 5} {
		ch, ok := f.board.Channel(pin)
		if !ok || !ch.Enabled {
			t.Errorf("Expected PWM enabled on pin %d", pin)
		}
		if ch.Duty != 0 {
			t.Errorf("Expected pin %d at zero, got %d", pin, ch.Duty)
		}
	}
	if f.board.Mode(6) != sim.PinOutput || f.board.Level(6) {
		t.Error("Expected aux pin configured as output, driven low")
	}
	if f.board.Mode(9) != sim.PinInputPullUp {
		t.Errorf("Expected fault pin with pull-up, got mode %d", f.board.Mode(9))
	}
	if f.logs.FilterMessage("Motor driver status: OK").Len() != 1 {
		t.Error("Expected fault status logged at init")
	}
}

func TestManagerWithoutAuxPin(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AuxPin = config.NoPin
	f := newTestManager(t, cfg, false, WithRand(&scriptedRand{}))
	f.init(t)

	f.clock.Add(100 * time.Millisecond)
	if err := f.mgr.Tick(); err != nil {
		t.Errorf("Expected aux patterns to run without an aux pin, got %v", err)
	}
}

func TestManagerRunsScheduler(t *testing.T) {
	f := newTestManager(t, config.DefaultConfig(), false, WithRand(&scriptedRand{values: []int{3}}))
	f.init(t)

	f.clock.Add(100 * time.Millisecond)
	if err := f.mgr.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if l, r := f.wheels(); l != -200 || r != 200 {
		t.Errorf("Expected spin left (-200, 200), got (%d, %d)", l, r)
	}
	if !f.board.Level(6) {
		t.Error("Expected blink pattern to drive aux high")
	}

	st := f.mgr.Status()
	if st.Mode != "Spin" || st.ModeIndex != 0 || st.Resting || st.Seconds != 5 {
		t.Errorf("Unexpected status %+v", st)
	}
	if st.LeftSpeed != -200 || st.RightSpeed != 200 {
		t.Errorf("Expected status wheel speeds (-200, 200), got (%d, %d)", st.LeftSpeed, st.RightSpeed)
	}
	if st.Remaining != 4900*time.Millisecond {
		t.Errorf("Expected 4.9s remaining, got %v", st.Remaining)
	}

	f.clock.Add(4900 * time.Millisecond)
	if err := f.mgr.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	st = f.mgr.Status()
	if !st.Resting || st.Mode != "Rest" || st.ModeIndex != -1 || st.Seconds != 8 {
		t.Errorf("Expected 8 second rest, got %+v", st)
	}
}

func TestManagerAdvancesRamps(t *testing.T) {
	f := newTestManager(t, config.DefaultConfig(), false, WithRand(&scriptedRand{}))
	f.init(t)

	now := f.clock.Now()
	if err := f.mgr.Drive().RampTo(100, 100, now); err != nil {
		t.Fatalf("RampTo failed: %v", err)
	}

	// Step delay is 50ms; the scheduler's first Spin tick is at 100ms.
	f.clock.Add(50 * time.Millisecond)
	if err := f.mgr.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if l, _ := f.wheels(); l != 10 {
		t.Errorf("Expected first ramp step at 10, got %d", l)
	}
}

func TestManagerSelfTestBeforeScheduler(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SelfTestOnBoot = true
	f := newTestManager(t, cfg, false, WithRand(&scriptedRand{}))
	f.init(t)

	if err := f.mgr.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if l, r := f.wheels(); l != 200 || r != 200 {
		t.Errorf("Expected self test forward, got (%d, %d)", l, r)
	}
	if !f.mgr.Status().SelfTest {
		t.Error("Expected status to report the self test")
	}

	// Step boundaries: 2, 3, 5, 6, 8, 9, 11, 12 seconds
	for _, d := range []time.Duration{2, 1, 2, 1, 2, 1, 2, 1} {
		f.clock.Add(d * time.Second)
		if err := f.mgr.Tick(); err != nil {
			t.Fatalf("Tick failed: %v", err)
		}
	}
	if f.mgr.Status().SelfTest {
		t.Fatal("Expected self test finished after 12s")
	}

	st := f.mgr.Scheduler().State()
	if !st.ModeStart.Equal(f.clock.Now()) {
		t.Errorf("Expected scheduler restarted when the self test ended, got %v", st.ModeStart)
	}

	f.clock.Add(100 * time.Millisecond)
	if err := f.mgr.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if l, r := f.wheels(); l != -200 || r != 200 {
		t.Errorf("Expected Spin to start after the self test, got (%d, %d)", l, r)
	}
	if f.mgr.Status().Mode != "Spin" {
		t.Errorf("Expected Spin, got %s", f.mgr.Status().Mode)
	}
}

func TestManagerSeedsFromADCNoise(t *testing.T) {
	f := newTestManager(t, config.DefaultConfig(), true)
	f.init(t)

	want, err := core.NoiseSeed(sim.NewBoard(7), 2)
	if err != nil {
		t.Fatal(err)
	}
	msg := fmt.Sprintf("Random seed: %d", want)
	if f.logs.FilterMessage(msg).Len() != 1 {
		t.Errorf("Expected %q logged", msg)
	}
}

func TestManagerSeedsFromClockWithoutADC(t *testing.T) {
	f := newTestManager(t, config.DefaultConfig(), false)
	f.init(t)

	msg := fmt.Sprintf("Random seed: %d", f.clock.Now().UnixNano())
	if f.logs.FilterMessage(msg).Len() != 1 {
		t.Errorf("Expected %q logged", msg)
	}
}

func TestManagerFaultLatch(t *testing.T) {
	latch := &core.FaultLatch{}
	f := newTestManager(t, config.DefaultConfig(), false, WithRand(&scriptedRand{}), WithFaultLatch(latch))
	f.init(t)

	latch.Trip()
	f.clock.Add(100 * time.Millisecond)
	err := f.mgr.Tick()
	if !errors.Is(err, motor.ErrDriverFault) {
		t.Errorf("Expected driver fault, got %v", err)
	}
	if l, r := f.wheels(); l != 0 || r != 0 {
		t.Errorf("Expected motors stopped, got (%d, %d)", l, r)
	}
	if latch.Tripped() {
		t.Error("Expected latch cleared once the fault was reported")
	}
	if f.logs.FilterMessageSnippet("Motor driver FAULT detected").Len() == 0 {
		t.Error("Expected fault logged")
	}
}

func TestManagerModeObserver(t *testing.T) {
	var events []ModeEvent
	f := newTestManager(t, config.DefaultConfig(), false,
		WithRand(&scriptedRand{}),
		WithModeObserver(func(e ModeEvent) { events = append(events, e) }))
	f.init(t)

	f.clock.Add(5 * time.Second)
	if err := f.mgr.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if len(events) != 1 || !events[0].Resting || events[0].Seconds != 5 {
		t.Errorf("Expected one 5 second rest event, got %+v", events)
	}
}

func TestManagerShutdown(t *testing.T) {
	f := newTestManager(t, config.DefaultConfig(), false, WithRand(&scriptedRand{}))

	if err := f.mgr.Shutdown(); err != nil {
		t.Errorf("Expected Shutdown before init to be a no-op, got %v", err)
	}

	f.init(t)
	f.clock.Add(100 * time.Millisecond)
	f.mgr.Tick()

	if err := f.mgr.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if l, r := f.wheels(); l != 0 || r != 0 {
		t.Errorf("Expected motors coasting, got (%d, %d)", l, r)
	}
	if f.board.Level(6) {
		t.Error("Expected aux low after shutdown")
	}
}

func TestManagerRecoverStopsMotors(t *testing.T) {
	f := newTestManager(t, config.DefaultConfig(), false, WithRand(&scriptedRand{}))
	f.mgr.Recover("before init")

	f.init(t)
	f.clock.Add(100 * time.Millisecond)
	f.mgr.Tick()

	mc := f.mgr.Config().MotorConfig()
	errBridge := errors.New("bridge unreachable")
	f.board.FailWrites(mc.LeftForward, errBridge)

	f.mgr.Recover("index out of range")

	if f.logs.FilterMessageSnippet("index out of range").Len() != 1 {
		t.Error("Expected the panic reason to be logged")
	}
	failed := f.logs.FilterMessageSnippet("Emergency stop failed").All()
	if len(failed) != 1 || failed[0].Level != zapcore.ErrorLevel {
		t.Fatalf("Expected one error about the failed stop, got %v", failed)
	}
	if f.board.Duty(mc.LeftBackward) != 0 || f.board.Duty(mc.RightForward) != 0 || f.board.Duty(mc.RightBackward) != 0 {
		t.Error("Expected the writable legs to be zeroed")
	}
}

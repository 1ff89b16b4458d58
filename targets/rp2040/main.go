//go:build rp2040 || rp2350

// Firmware entry point: boot sequence, driver registration and the control
// loop that ticks the behavior scheduler.
package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/l9110x"

	"wanderbot/core"
	"wanderbot/motor"
	"wanderbot/protocol"
	"wanderbot/standalone"
	"wanderbot/standalone/config"
)

const (
	loopPeriod    = 10 * time.Millisecond
	logQueueDepth = 16
	blinkPeriod   = 100 * time.Millisecond
)

var (
	log       core.Logger = core.DebugLogger{}
	latch     core.FaultLatch
	tickFails uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})

	InitUSB()
	core.SetLogWriter(writeLog)
	core.InitAsyncLog(logQueueDepth)

	cfg := config.DefaultConfig()
	coastBridges(cfg)

	led := machine.Pin(cfg.LEDPin)
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	blink(led, cfg.StartupBlinks)

	// Let the motor supply's bulk capacitors charge before drawing current.
	log.Infof("Waiting %d ms before enabling motors", cfg.ChargeDelayMS)
	time.Sleep(cfg.ChargeDelay())

	core.SetPWMDriver(NewRP2040PWMDriver())
	core.SetGPIODriver(NewRPGPIODriver())
	core.SetADCDriver(NewRPAdcDriver())

	var mgr *standalone.Manager
	mgr, err := standalone.NewManagerWithConfig(cfg,
		standalone.WithLogger(log),
		standalone.WithFaultLatch(&latch),
		standalone.WithModeObserver(func(e standalone.ModeEvent) {
			writeStatus(protocol.Status{
				ModeIndex: int32(e.Index),
				Resting:   e.Resting,
				Seconds:   uint32(e.Seconds),
				Fault:     mgr.Actuator().CheckFault(),
				Mode:      e.Mode,
			})
		}),
	)
	if err != nil {
		halt(led, err)
	}
	if err := mgr.InitActuation(); err != nil {
		halt(led, err)
	}
	watchFault(cfg)
	if err := mgr.InitScheduler(); err != nil {
		halt(led, err)
	}

	for {
		tick(mgr)
		time.Sleep(loopPeriod)
	}
}

// coastBridges holds every H-bridge input low before the PWM slices take
// the pins over.
func coastBridges(cfg *config.RobotConfig) {
	left := l9110x.New(machine.Pin(cfg.LeftForwardPin), machine.Pin(cfg.LeftBackwardPin))
	right := l9110x.New(machine.Pin(cfg.RightForwardPin), machine.Pin(cfg.RightBackwardPin))
	left.Configure()
	right.Configure()
	left.Stop()
	right.Stop()
}

// watchFault latches the fault line from a pin interrupt so a fault between
// two polls is not missed.
func watchFault(cfg *config.RobotConfig) {
	if cfg.FaultPin == config.NoPin {
		return
	}
	change := machine.PinRising
	if cfg.FaultActiveLow {
		change = machine.PinFalling
	}
	err := machine.Pin(cfg.FaultPin).SetInterrupt(change, func(machine.Pin) {
		latch.Trip()
	})
	if err != nil {
		log.Warnf("Fault interrupt unavailable, polling only: %v", err)
	}
}

// tick runs one control step. A panic stops the motors and dumps the event
// ring instead of resetting the board.
func tick(mgr *standalone.Manager) {
	defer func() {
		if r := recover(); r != nil {
			tickFails++
			log.Errorf("Panic %d in control loop", tickFails)
			mgr.Recover(r)
		}
	}()

	if err := motor.WithoutFaults(mgr.Tick()); err != nil {
		log.Warnf("Tick failed: %v", err)
	}
}

func blink(led machine.Pin, n int) {
	for i := 0; i < n; i++ {
		led.High()
		time.Sleep(blinkPeriod)
		led.Low()
		time.Sleep(blinkPeriod)
	}
}

// halt flashes the LED forever. The bridges were coasted at boot.
func halt(led machine.Pin, err error) {
	log.Errorf("Startup failed: %v", err)
	for {
		blink(led, 1)
	}
}

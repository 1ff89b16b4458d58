package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"wanderbot/core"
	"wanderbot/host/monitor"
	"wanderbot/host/periph"
	"wanderbot/host/serial"
	"wanderbot/host/sim"
	"wanderbot/standalone"
	"wanderbot/standalone/config"
)

const defaultTick = 10 * time.Millisecond

// loadConfig reads the --config file, or the defaults, then applies
// WANDERBOT_* overrides.
func loadConfig(c *cli.Context) (*config.RobotConfig, error) {
	cfg := config.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func loopContext(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	if d := c.Duration(flagDuration); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		return ctx, func() {
			cancel()
			stop()
		}
	}
	return ctx, stop
}

// runLoop initializes mgr and ticks it until ctx is done. Driver faults are
// logged by the actuation layer and never end the loop.
func runLoop(ctx context.Context, mgr *standalone.Manager, clk clock.Clock, tick time.Duration, logger *zap.SugaredLogger) error {
	if tick <= 0 {
		return errors.Errorf("tick must be positive, got %v", tick)
	}
	if err := mgr.InitActuation(); err != nil {
		return errors.Wrap(err, "init actuation")
	}
	if err := mgr.InitScheduler(); err != nil {
		return errors.Wrap(err, "init scheduler")
	}

	ticker := clk.Ticker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			st := mgr.Status()
			logger.Infow("stopping", "mode", st.Mode, "resting", st.Resting)
			return errors.Wrap(mgr.Shutdown(), "shutdown")
		case <-ticker.C:
			if err := mgr.Tick(); err != nil {
				logger.Debugw("tick", "error", err)
			}
		}
	}
}

func simulateAction(c *cli.Context, logger *zap.SugaredLogger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	seed := c.Int64(flagSeed)
	board := sim.NewBoard(seed)
	core.SetPWMDriver(board)
	core.SetGPIODriver(board)
	core.SetADCDriver(board)

	clk := clock.New()
	mgr, err := standalone.NewManagerWithConfig(cfg,
		standalone.WithClock(clk),
		standalone.WithLogger(logger.Named("robot")),
		standalone.WithModeObserver(func(e standalone.ModeEvent) {
			logger.Debugw("mode event", "mode", e.Mode, "index", e.Index, "seconds", e.Seconds)
		}),
	)
	if err != nil {
		return err
	}

	ctx, cancel := loopContext(c)
	defer cancel()

	logger.Infow("simulating", "seed", seed, "tick", c.Duration(flagTick))
	return runLoop(ctx, mgr, clk, c.Duration(flagTick), logger)
}

func runAction(c *cli.Context, logger *zap.SugaredLogger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := periph.Init(); err != nil {
		return err
	}

	board := periph.NewBoard()
	core.SetPWMDriver(board)
	core.SetGPIODriver(board)
	core.SetADCDriver(nil)

	clk := clock.New()
	mgr, err := standalone.NewManagerWithConfig(cfg,
		standalone.WithClock(clk),
		standalone.WithLogger(logger.Named("robot")),
	)
	if err != nil {
		return err
	}

	ctx, cancel := loopContext(c)
	defer cancel()

	return runLoop(ctx, mgr, clk, c.Duration(flagTick), logger)
}

func monitorAction(c *cli.Context, logger *zap.SugaredLogger) error {
	scfg := serial.DefaultConfig(c.String(flagDevice))
	scfg.Baud = c.Int(flagBaud)

	port, err := serial.Open(scfg)
	if err != nil {
		return err
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := monitor.New(logger.Desugar().Named("robot"))
	m.Follow = true

	logger.Infow("monitoring", "device", scfg.Device, "baud", scfg.Baud)
	err = m.Run(ctx, port)
	if d := m.Dropped(); d > 0 {
		logger.Warnw("frame sync lost during session", "count", d)
	}
	return err
}

func configAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	_, err = c.App.Writer.Write(out)
	return err
}

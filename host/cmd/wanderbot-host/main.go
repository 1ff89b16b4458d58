// Command wanderbot-host runs the wander robot on a host: in simulation, on
// a Linux board through periph.io, or as a monitor for a robot's serial log.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"wanderbot/host/logging"
)

const (
	flagConfig   = "config"
	flagDebug    = "debug"
	flagDuration = "duration"
	flagSeed     = "seed"
	flagTick     = "tick"
	flagDevice   = "device"
	flagBaud     = "baud"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger *zap.SugaredLogger

	return &cli.App{
		Name:  "wanderbot-host",
		Usage: "simulate, drive or monitor a wander robot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load robot configuration from YAML `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			logger, err = logging.NewLogger("wanderbot", c.Bool(flagDebug))
			return err
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "simulate",
				Usage: "run the behavior scheduler against a simulated board",
				Flags: append(loopFlags(),
					&cli.Int64Flag{
						Name:  flagSeed,
						Usage: "seed for the board's ADC noise",
						Value: 1,
					},
				),
				Action: func(c *cli.Context) error {
					return simulateAction(c, logger)
				},
			},
			{
				Name:  "run",
				Usage: "drive real motors from a Linux board through periph.io",
				Flags: loopFlags(),
				Action: func(c *cli.Context) error {
					return runAction(c, logger)
				},
			},
			{
				Name:  "monitor",
				Usage: "decode the log and status frames a robot writes to its serial port",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagDevice,
						Usage: "serial `DEVICE`",
						Value: "/dev/ttyACM0",
					},
					&cli.IntFlag{
						Name:  flagBaud,
						Usage: "baud rate (ignored for USB CDC)",
						Value: 115200,
					},
				},
				Action: func(c *cli.Context) error {
					return monitorAction(c, logger)
				},
			},
			{
				Name:   "config",
				Usage:  "print the effective configuration as YAML",
				Action: configAction,
			},
		},
	}
}

func loopFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:  flagDuration,
			Usage: "stop after `DURATION` (0 runs until interrupted)",
		},
		&cli.DurationFlag{
			Name:  flagTick,
			Usage: "control loop period",
			Value: defaultTick,
		},
	}
}

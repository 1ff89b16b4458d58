// Package config holds the robot wiring and behavior settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wanderbot/core"
	"wanderbot/motor"
)

// NoPin marks an optional pin as not wired.
const NoPin = -1

// RobotConfig represents the complete robot configuration
type RobotConfig struct {
	// H-bridge inputs
	LeftForwardPin   int `json:"left_forward_pin" yaml:"left_forward_pin" env:"WANDERBOT_LEFT_FORWARD_PIN"`
	LeftBackwardPin  int `json:"left_backward_pin" yaml:"left_backward_pin" env:"WANDERBOT_LEFT_BACKWARD_PIN"`
	RightForwardPin  int `json:"right_forward_pin" yaml:"right_forward_pin" env:"WANDERBOT_RIGHT_FORWARD_PIN"`
	RightBackwardPin int `json:"right_backward_pin" yaml:"right_backward_pin" env:"WANDERBOT_RIGHT_BACKWARD_PIN"`

	// Optional pins, NoPin when absent
	AuxPin       int `json:"aux_pin" yaml:"aux_pin" env:"WANDERBOT_AUX_PIN"`
	FaultPin     int `json:"fault_pin" yaml:"fault_pin" env:"WANDERBOT_FAULT_PIN"`
	NoiseChannel int `json:"noise_channel" yaml:"noise_channel" env:"WANDERBOT_NOISE_CHANNEL"`
	LEDPin       int `json:"led_pin" yaml:"led_pin" env:"WANDERBOT_LED_PIN"`

	FaultActiveLow bool `json:"fault_active_low" yaml:"fault_active_low" env:"WANDERBOT_FAULT_ACTIVE_LOW"`

	// Carrier in Hz, speeds in duty counts. MotorSpeed is the cruise speed
	// of the discrete moves.
	PWMFrequency    int `json:"pwm_frequency" yaml:"pwm_frequency" env:"WANDERBOT_PWM_FREQUENCY"`
	MinSpeed        int `json:"min_speed" yaml:"min_speed" env:"WANDERBOT_MIN_SPEED"`
	MaxSpeed        int `json:"max_speed" yaml:"max_speed" env:"WANDERBOT_MAX_SPEED"`
	MotorSpeed      int `json:"motor_speed" yaml:"motor_speed" env:"WANDERBOT_MOTOR_SPEED"`
	RampSteps       int `json:"ramp_steps" yaml:"ramp_steps" env:"WANDERBOT_RAMP_STEPS"`
	RampStepDelayMS int `json:"ramp_step_delay_ms" yaml:"ramp_step_delay_ms" env:"WANDERBOT_RAMP_STEP_DELAY_MS"`

	// Drift mode
	DriftMinSpeed  int `json:"drift_min_speed" yaml:"drift_min_speed" env:"WANDERBOT_DRIFT_MIN_SPEED"`
	DriftMaxSpeed  int `json:"drift_max_speed" yaml:"drift_max_speed" env:"WANDERBOT_DRIFT_MAX_SPEED"`
	CurveSpeedDiff int `json:"curve_speed_diff" yaml:"curve_speed_diff" env:"WANDERBOT_CURVE_SPEED_DIFF"`

	// Scheduling, all in seconds
	Durations      []int `json:"durations" yaml:"durations" env:"WANDERBOT_DURATIONS" envSeparator:","`
	MinRestSeconds int   `json:"min_rest_seconds" yaml:"min_rest_seconds" env:"WANDERBOT_MIN_REST_SECONDS"`
	MaxRestSeconds int   `json:"max_rest_seconds" yaml:"max_rest_seconds" env:"WANDERBOT_MAX_REST_SECONDS"`

	// Boot
	SelfTestOnBoot bool `json:"self_test_on_boot" yaml:"self_test_on_boot" env:"WANDERBOT_SELF_TEST_ON_BOOT"`
	StartupBlinks  int  `json:"startup_blinks" yaml:"startup_blinks" env:"WANDERBOT_STARTUP_BLINKS"`
	ChargeDelayMS  int  `json:"charge_delay_ms" yaml:"charge_delay_ms" env:"WANDERBOT_CHARGE_DELAY_MS"`
}

// LoadConfig parses a JSON configuration. Fields missing from the document
// keep their DefaultConfig value.
func LoadConfig(jsonData []byte) (*RobotConfig, error) {
	config := DefaultConfig()

	err := json.Unmarshal(jsonData, config)
	if err != nil {
		return nil, err
	}

	applyDefaults(config)

	return config, nil
}

// applyDefaults fills in values that must never be zero
func applyDefaults(config *RobotConfig) {
	if config.PWMFrequency == 0 {
		config.PWMFrequency = 500
	}
	if config.MaxSpeed == 0 {
		config.MaxSpeed = core.DutyMax
	}
	if config.MotorSpeed == 0 {
		config.MotorSpeed = 200
	}
	if config.RampSteps == 0 {
		config.RampSteps = 10
	}
	if config.RampStepDelayMS == 0 {
		config.RampStepDelayMS = 50
	}
	if config.DriftMaxSpeed == 0 {
		config.DriftMaxSpeed = 150
	}
	if len(config.Durations) == 0 {
		config.Durations = []int{5, 10, 15, 20, 25, 30}
	}
	if config.MaxRestSeconds == 0 {
		config.MaxRestSeconds = 15
	}
}

// DefaultConfig returns the reference robot: RP2040 with the DRV8833 on
// GPIO 2-5, aux LED on 6, on-board LED on 25, noise from ADC channel 2.
func DefaultConfig() *RobotConfig {
	return &RobotConfig{
		LeftForwardPin:   2,
		LeftBackwardPin:  3,
		RightForwardPin:  4,
		RightBackwardPin: 5,
		AuxPin:           6,
		FaultPin:         NoPin,
		NoiseChannel:     2,
		LEDPin:           25,
		FaultActiveLow:   true,
		PWMFrequency:     500,
		MinSpeed:         0,
		MaxSpeed:         core.DutyMax,
		MotorSpeed:       200,
		RampSteps:        10,
		RampStepDelayMS:  50,
		DriftMinSpeed:    10,
		DriftMaxSpeed:    150,
		CurveSpeedDiff:   5,
		Durations:        []int{5, 10, 15, 20, 25, 30},
		MinRestSeconds:   5,
		MaxRestSeconds:   15,
		SelfTestOnBoot:   false,
		StartupBlinks:    7,
		ChargeDelayMS:    15000,
	}
}

// Validate checks ranges and pin assignments.
func (c *RobotConfig) Validate() error {
	if c.MinSpeed < 0 || c.MaxSpeed > core.DutyMax || c.MinSpeed > c.MaxSpeed {
		return fmt.Errorf("invalid speed range [%d, %d]", c.MinSpeed, c.MaxSpeed)
	}
	if c.MotorSpeed < c.MinSpeed || c.MotorSpeed > c.MaxSpeed {
		return fmt.Errorf("motor speed %d outside [%d, %d]", c.MotorSpeed, c.MinSpeed, c.MaxSpeed)
	}
	if c.DriftMinSpeed < 0 || c.DriftMinSpeed > c.DriftMaxSpeed || c.DriftMaxSpeed > c.MaxSpeed {
		return fmt.Errorf("invalid drift speed range [%d, %d]", c.DriftMinSpeed, c.DriftMaxSpeed)
	}
	if c.CurveSpeedDiff < 0 {
		return fmt.Errorf("negative curve speed difference %d", c.CurveSpeedDiff)
	}
	if c.PWMFrequency <= 0 {
		return fmt.Errorf("pwm frequency must be positive, got %d", c.PWMFrequency)
	}
	if c.RampSteps <= 0 {
		return fmt.Errorf("ramp steps must be positive, got %d", c.RampSteps)
	}
	if c.RampStepDelayMS < 0 {
		return fmt.Errorf("negative ramp step delay %dms", c.RampStepDelayMS)
	}
	if len(c.Durations) == 0 {
		return errors.New("at least one mode duration is required")
	}
	for i, d := range c.Durations {
		if d <= 0 {
			return fmt.Errorf("duration %d must be positive, got %d", i, d)
		}
	}
	if c.MinRestSeconds < 0 || c.MinRestSeconds > c.MaxRestSeconds {
		return fmt.Errorf("invalid rest range [%d, %d]", c.MinRestSeconds, c.MaxRestSeconds)
	}

	seen := make(map[int]string)
	pins := []struct {
		name string
		pin  int
	}{
		{"left_forward_pin", c.LeftForwardPin},
		{"left_backward_pin", c.LeftBackwardPin},
		{"right_forward_pin", c.RightForwardPin},
		{"right_backward_pin", c.RightBackwardPin},
		{"aux_pin", c.AuxPin},
		{"fault_pin", c.FaultPin},
		{"led_pin", c.LEDPin},
	}
	for i, p := range pins {
		if p.pin == NoPin && i >= 4 {
			continue
		}
		if p.pin < 0 {
			return fmt.Errorf("%s: invalid pin %d", p.name, p.pin)
		}
		if other, ok := seen[p.pin]; ok {
			return fmt.Errorf("%s: pin %d already used by %s", p.name, p.pin, other)
		}
		seen[p.pin] = p.name
	}
	return nil
}

// RampStepDelay returns the delay between ramp steps.
func (c *RobotConfig) RampStepDelay() time.Duration {
	return time.Duration(c.RampStepDelayMS) * time.Millisecond
}

// ChargeDelay returns how long to wait for the motor supply to settle at boot.
func (c *RobotConfig) ChargeDelay() time.Duration {
	return time.Duration(c.ChargeDelayMS) * time.Millisecond
}

// MotorConfig converts the wiring and limits for the actuation layer.
func (c *RobotConfig) MotorConfig() motor.Config {
	mc := motor.Config{
		LeftForward:    core.PWMPin(c.LeftForwardPin),
		LeftBackward:   core.PWMPin(c.LeftBackwardPin),
		RightForward:   core.PWMPin(c.RightForwardPin),
		RightBackward:  core.PWMPin(c.RightBackwardPin),
		FaultPin:       core.NoPin,
		FaultActiveLow: c.FaultActiveLow,
		PWMFrequency:   uint32(c.PWMFrequency),
		MinSpeed:       c.MinSpeed,
		MaxSpeed:       c.MaxSpeed,
		RampSteps:      c.RampSteps,
		RampStepDelay:  c.RampStepDelay(),
	}
	if c.FaultPin != NoPin {
		mc.FaultPin = core.GPIOPin(c.FaultPin)
	}
	return mc
}

// Pin converts an optional pin to a GPIO pin, core.NoPin when absent.
func Pin(pin int) core.GPIOPin {
	if pin < 0 {
		return core.NoPin
	}
	return core.GPIOPin(pin)
}

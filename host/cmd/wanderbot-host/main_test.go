package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"wanderbot-host"}, args...))
	return out.String(), err
}

func TestConfigCommandDefaults(t *testing.T) {
	out, err := runApp(t, "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	for _, want := range []string{"motor_speed: 200", "pwm_frequency: 500", "fault_pin: -1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestConfigCommandFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	if err := os.WriteFile(path, []byte("motor_speed: 180\nmin_rest_seconds: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WANDERBOT_MOTOR_SPEED", "150")

	out, err := runApp(t, "--config", path, "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, "motor_speed: 150") {
		t.Errorf("Expected environment to override the file:\n%s", out)
	}
	if !strings.Contains(out, "min_rest_seconds: 2") {
		t.Errorf("Expected file value kept:\n%s", out)
	}
}

func TestConfigCommandRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	if err := os.WriteFile(path, []byte("min_speed: 300\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := runApp(t, "-c", path, "config"); err == nil {
		t.Error("Expected invalid configuration to fail")
	}

	if _, err := runApp(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "config"); err == nil {
		t.Error("Expected missing config file to fail")
	}
}

func TestSimulateCommand(t *testing.T) {
	if _, err := runApp(t, "simulate", "--duration", "50ms", "--tick", "5ms", "--seed", "3"); err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
}

func TestSimulateRejectsBadTick(t *testing.T) {
	if _, err := runApp(t, "simulate", "--duration", "10ms", "--tick", "0s"); err == nil {
		t.Error("Expected zero tick to fail")
	}
}

func TestMonitorMissingDevice(t *testing.T) {
	device := filepath.Join(t.TempDir(), "ttyACM9")
	if _, err := runApp(t, "monitor", "--device", device); err == nil {
		t.Error("Expected missing device to fail")
	}
}

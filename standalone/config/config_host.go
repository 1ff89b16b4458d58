//go:build !tinygo

package config

import (
	"os"

	"github.com/caarlos0/env"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// LoadFile reads a YAML configuration file. Missing fields keep their
// defaults.
func LoadFile(path string) (*RobotConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return ParseYAML(data)
}

// ParseYAML parses a YAML document over DefaultConfig.
func ParseYAML(data []byte) (*RobotConfig, error) {
	config := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, errors.Wrap(err, "parse yaml config")
	}
	applyDefaults(config)
	return config, nil
}

// ApplyEnv overlays WANDERBOT_* environment variables onto config.
func ApplyEnv(config *RobotConfig) error {
	if err := env.Parse(config); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file, picks the decoder by extension
// (.toml for TOML, anything else is treated as YAML), applies defaults
// and validates the result. An empty path yields a pure-defaults config.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file '%s'", configPath)
	}
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		return LoadFromTOML(data)
	default:
		return LoadFromYAML(data)
	}
}

// Default returns the configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	SetDefaults(cfg)
	return cfg
}

// LoadFromYAML unmarshals YAML content, then applies defaults and
// validates.
func LoadFromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal yaml config")
	}
	return finish(&cfg)
}

// LoadFromTOML unmarshals TOML content, then applies defaults and
// validates.
func LoadFromTOML(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal toml config")
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	SetDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate rejects configurations that could not possibly run.
func Validate(cfg *Config) error {
	if cfg.Engine.CommandTimeout < time.Second {
		return errors.Errorf("engine.commandTimeout %s is below the 1s minimum", cfg.Engine.CommandTimeout)
	}
	if cfg.Engine.RateSampleInterval < 0 {
		return errors.New("engine.rateSampleInterval cannot be negative")
	}
	if cfg.Session.TTL < time.Minute {
		return errors.Errorf("session.ttl %s is below the 1m minimum", cfg.Session.TTL)
	}
	if !strings.Contains(cfg.Server.ListenAddress, ":") {
		return errors.Errorf("server.listenAddress '%s' is not a host:port", cfg.Server.ListenAddress)
	}
	return nil
}

package config

import "time"

// Config is the root hostboard configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Engine  EngineConfig  `yaml:"engine" toml:"engine"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listenAddress" toml:"listenAddress"`
	ReadTimeout     time.Duration `yaml:"readTimeout" toml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" toml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" toml:"shutdownTimeout"`
}

// EngineConfig configures the introspection engine.
type EngineConfig struct {
	// CommandTimeout bounds each external command invocation.
	CommandTimeout time.Duration `yaml:"commandTimeout" toml:"commandTimeout"`
	// RateSampleInterval is the delay between the two interface counter
	// reads used to derive traffic rates. Zero disables rate sampling.
	RateSampleInterval time.Duration `yaml:"rateSampleInterval" toml:"rateSampleInterval"`
	// AllowedActions extends the built-in allow-list of executables the
	// action endpoints may invoke.
	AllowedActions []string `yaml:"allowedActions" toml:"allowedActions"`
}

// SessionConfig configures the flat-file session store.
type SessionConfig struct {
	FilePath string        `yaml:"filePath" toml:"filePath"`
	TTL      time.Duration `yaml:"ttl" toml:"ttl"`
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	ConsoleLevel  string `yaml:"consoleLevel" toml:"consoleLevel"`
	FileLevel     string `yaml:"fileLevel" toml:"fileLevel"`
	FilePath      string `yaml:"filePath" toml:"filePath"`
	MaxFileSizeMB int    `yaml:"maxFileSizeMB" toml:"maxFileSizeMB"`
	MaxBackups    int    `yaml:"maxBackups" toml:"maxBackups"`
	Color         bool   `yaml:"color" toml:"color"`
}

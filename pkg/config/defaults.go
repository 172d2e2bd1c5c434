package config

import "time"

const (
	DefaultListenAddress   = ":8780"
	DefaultCommandTimeout  = 10 * time.Second
	DefaultSessionFilePath = "/var/lib/hostboard/sessions.json"
	DefaultSessionTTL      = 24 * time.Hour
)

// SetDefaults applies default values for fields the user left unset.
// It modifies cfg in place.
func SetDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Engine.CommandTimeout == 0 {
		cfg.Engine.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.Session.FilePath == "" {
		cfg.Session.FilePath = DefaultSessionFilePath
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = DefaultSessionTTL
	}
	if cfg.Log.ConsoleLevel == "" {
		cfg.Log.ConsoleLevel = "info"
	}
	if cfg.Log.FileLevel == "" {
		cfg.Log.FileLevel = "debug"
	}
	if cfg.Log.MaxFileSizeMB == 0 {
		cfg.Log.MaxFileSizeMB = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
}

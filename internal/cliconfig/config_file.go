package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Host            string `toml:"host"`
	CommandPort     int    `toml:"command_port"`
	VideoPort       int    `toml:"video_port"`
	ReadBufferBytes int    `toml:"read_buffer_bytes"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	LogLevel        string `toml:"log_level"`
	EventLog        string `toml:"event_log"`
	EventLogMaxMB   int    `toml:"event_log_max_mb"`
	TakeOff         *bool  `toml:"takeoff"`
	WatchConfig     *bool  `toml:"watch_config"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.dronelink/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".dronelink", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", fc.Host, &cfg.Host)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("event-log", fc.EventLog, &cfg.EventLog)

	s.setInt("command-port", fc.CommandPort, &cfg.CommandPort)
	s.setInt("video-port", fc.VideoPort, &cfg.VideoPort)
	s.setInt("read-buffer", fc.ReadBufferBytes, &cfg.ReadBufferBytes)
	s.setInt("event-log-max-mb", fc.EventLogMaxMB, &cfg.EventLogMaxMB)

	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBool("takeoff", fc.TakeOff, &cfg.TakeOff)
	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

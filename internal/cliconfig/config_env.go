package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (DRONELINK_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", os.Getenv("DRONELINK_HOST"), &cfg.Host)
	s.setString("log-level", os.Getenv("DRONELINK_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("event-log", os.Getenv("DRONELINK_EVENT_LOG"), &cfg.EventLog)

	if err := s.setIntFromString("command-port", os.Getenv("DRONELINK_COMMAND_PORT"), &cfg.CommandPort); err != nil {
		return err
	}
	if err := s.setIntFromString("video-port", os.Getenv("DRONELINK_VIDEO_PORT"), &cfg.VideoPort); err != nil {
		return err
	}
	if err := s.setIntFromString("read-buffer", os.Getenv("DRONELINK_READ_BUFFER_BYTES"), &cfg.ReadBufferBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("event-log-max-mb", os.Getenv("DRONELINK_EVENT_LOG_MAX_MB"), &cfg.EventLogMaxMB); err != nil {
		return err
	}

	if err := s.setDuration("shutdown-timeout", os.Getenv("DRONELINK_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBoolFromString("takeoff", os.Getenv("DRONELINK_TAKEOFF"), &cfg.TakeOff)
	s.setBoolFromString("watch-config", os.Getenv("DRONELINK_WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}

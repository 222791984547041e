package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/dronelink/pkg/dronelink"
	"github.com/bft-labs/dronelink/pkg/log"
)

// DefaultHost is the vehicle's address on its own access point.
const DefaultHost = "192.168.10.1"

// Config holds CLI configuration for dronelink.
type Config struct {
	Host        string
	CommandPort int
	VideoPort   int

	ReadBufferBytes int
	ShutdownTimeout time.Duration

	LogLevel      string
	EventLog      string
	EventLogMaxMB int

	TakeOff     bool
	WatchConfig bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Host:            DefaultHost,
		CommandPort:     int(dronelink.DefaultCommandPort),
		VideoPort:       int(dronelink.DefaultVideoPort),
		ReadBufferBytes: 4096,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
		EventLogMaxMB:   10,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if err := validPort("command-port", c.CommandPort); err != nil {
		return err
	}
	if err := validPort("video-port", c.VideoPort); err != nil {
		return err
	}
	if c.CommandPort == c.VideoPort {
		return fmt.Errorf("command-port and video-port must differ")
	}
	if c.ReadBufferBytes <= 0 {
		return fmt.Errorf("read buffer must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.EventLog != "" && c.EventLogMaxMB <= 0 {
		return fmt.Errorf("event log size must be positive")
	}
	return nil
}

func validPort(name string, p int) error {
	if p <= 0 || p > 65535 {
		return fmt.Errorf("%s %d out of range", name, p)
	}
	return nil
}

// Session converts the CLI configuration into the library configuration.
func (c Config) Session() dronelink.Config {
	return dronelink.Config{
		Host:            c.Host,
		CommandPort:     uint16(c.CommandPort),
		VideoPort:       uint16(c.VideoPort),
		ReadBufferBytes: c.ReadBufferBytes,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

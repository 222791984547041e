package cliconfig

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/bft-labs/dronelink/pkg/log"
)

// Logger returns the CLI logger: console output on stderr.
func Logger() zerolog.Logger {
	return log.NewConsoleLogger(os.Stderr)
}

// ApplyLogLevel sets the process-wide zerolog level.
func ApplyLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

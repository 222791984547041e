// Package log provides the logging abstraction used by dronelink components.
//
// Components log through the Logger interface so that the session can be
// embedded in programs with their own logging stack. A zerolog adapter and a
// no-op logger are provided.
//
// # Usage
//
//	logger := log.NewZerologAdapter()
//	cmdLog := logger.With(log.String("channel", "command"))
//	cmdLog.Debug("text frame", log.String("text", "conn_ack"))
//
// Tests and library callers that do not care about output use:
//
//	logger := log.NewNoopLogger()
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.1.0
package log

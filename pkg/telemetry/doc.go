// Package telemetry turns inbound commands into typed telemetry events.
//
// Each [Reader] handles exactly one command identifier. Readers are collected
// in a [Registry]; the session's dispatcher looks up the reader for every
// inbound command and publishes the resulting [Event]. Commands without a
// reader, or whose payload a reader cannot interpret, produce no event; this
// keeps the session forward compatible with telemetry it does not know yet.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package telemetry

// Package domain holds the error values shared by the session runtime and its
// public facade.
//
// Wire-level types live in pkg/wire and telemetry types in pkg/telemetry; this
// package stays free of infrastructure so every layer can import it.
package domain

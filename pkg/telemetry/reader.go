package telemetry

import "github.com/bft-labs/dronelink/pkg/wire"

// Reader decodes one command identifier into an Event.
type Reader interface {
	ID() wire.CommandID

	// Read returns the event carried by cmd. The boolean is false when the
	// payload does not hold a valid event.
	Read(cmd wire.Command) (Event, bool)
}

// WifiStatusReader reads CmdWifiStatus: payload byte 0 is signal strength,
// byte 1 is interference.
type WifiStatusReader struct{}

func (WifiStatusReader) ID() wire.CommandID { return wire.CmdWifiStatus }

func (WifiStatusReader) Read(cmd wire.Command) (Event, bool) {
	if len(cmd.Payload) < 2 {
		return nil, false
	}
	return WifiStatus{Strength: cmd.Payload[0], Interference: cmd.Payload[1]}, true
}

// LightStrengthReader reads CmdLightStrength: payload byte 0 is the level.
type LightStrengthReader struct{}

func (LightStrengthReader) ID() wire.CommandID { return wire.CmdLightStrength }

func (LightStrengthReader) Read(cmd wire.Command) (Event, bool) {
	if len(cmd.Payload) < 1 {
		return nil, false
	}
	return LightStrength{Strength: cmd.Payload[0]}, true
}

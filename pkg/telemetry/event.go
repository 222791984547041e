package telemetry

import "github.com/bft-labs/dronelink/pkg/wire"

// Event is a decoded telemetry value.
type Event interface {
	// Kind is a stable snake_case name used in logs and event files.
	Kind() string

	// CommandID is the identifier of the command the event was read from.
	CommandID() wire.CommandID
}

// WifiStatus reports the vehicle's Wi-Fi link quality.
type WifiStatus struct {
	Strength     uint8 `json:"strength"`
	Interference uint8 `json:"interference"`
}

func (WifiStatus) Kind() string              { return "wifi_status" }
func (WifiStatus) CommandID() wire.CommandID { return wire.CmdWifiStatus }

// LightStrength reports the ambient light level seen by the vehicle.
type LightStrength struct {
	Strength uint8 `json:"strength"`
}

func (LightStrength) Kind() string              { return "light_strength" }
func (LightStrength) CommandID() wire.CommandID { return wire.CmdLightStrength }

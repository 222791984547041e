package wire

import "fmt"

// CommandID identifies a command or telemetry message.
type CommandID uint16

// Known command identifiers.
const (
	CmdWifiStatus    CommandID = 0x001a
	CmdLightStrength CommandID = 0x0035
	CmdTakeOff       CommandID = 0x0054
	CmdLand          CommandID = 0x0055
)

// String returns the symbolic name of the identifier, or its hex value.
func (id CommandID) String() string {
	switch id {
	case CmdWifiStatus:
		return "WifiStatus"
	case CmdLightStrength:
		return "LightStrength"
	case CmdTakeOff:
		return "TakeOff"
	case CmdLand:
		return "Land"
	default:
		return fmt.Sprintf("0x%04x", uint16(id))
	}
}

// PacketType is the command class tag carried in byte 4 of a binary frame.
type PacketType uint8

// PacketTypeSet tags commands that change vehicle state (take-off, land).
const PacketTypeSet PacketType = 0x68

// Command is a structured instruction (outbound) or telemetry carrier (inbound).
// Commands are values; the payload must not be modified after construction.
type Command struct {
	ID       CommandID
	Type     PacketType
	Sequence uint16
	Payload  []byte
}

// NewCommand builds an outbound command. The sequence number is assigned when
// the command is encoded for sending.
func NewCommand(id CommandID, typ PacketType, payload []byte) Command {
	var p []byte
	if len(payload) > 0 {
		p = append([]byte(nil), payload...)
	}
	return Command{ID: id, Type: typ, Payload: p}
}

// WithSequence returns a copy of c carrying seq.
func (c Command) WithSequence(seq uint16) Command {
	c.Sequence = seq
	return c
}

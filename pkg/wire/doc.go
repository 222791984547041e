// Package wire implements the vehicle's command-channel frame format.
//
// Every datagram on the command channel is either a binary command frame or a
// text frame. Binary frames start with the [Sentinel] byte (0xCC); anything
// else is human readable protocol text such as the connection handshake.
//
// # Binary frame layout
//
// All multi-byte integers are little endian.
//
//	offset  size  field
//	0       1     sentinel (0xCC)
//	1       2     frame length << 3
//	3       1     CRC8 over bytes 0..2
//	4       1     packet type (command class tag)
//	5       2     command identifier
//	7       2     sequence number
//	9       n     payload
//	9+n     2     CRC16 over bytes 0..8+n
//
// # Usage
//
//	codec := wire.NewCodec()
//	frame := codec.Encode(wire.NewCommand(wire.CmdTakeOff, wire.PacketTypeSet, nil), seq)
//
//	if wire.IsBinary(datagram) {
//	    cmd, err := codec.Decode(datagram[1:])
//	    ...
//	}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package wire

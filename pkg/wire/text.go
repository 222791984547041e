package wire

import (
	"encoding/binary"
	"strings"
)

const connRequestPrefix = "conn_req:"

// ConnectionRequest builds the handshake text frame asking the vehicle to open
// a session and stream video to videoPort.
func ConnectionRequest(videoPort uint16) []byte {
	b := make([]byte, len(connRequestPrefix)+2)
	copy(b, connRequestPrefix)
	binary.LittleEndian.PutUint16(b[len(connRequestPrefix):], videoPort)
	return b
}

// DecodeText renders a text frame as ASCII. Bytes outside the printable ASCII
// range are written as \xNN so log lines stay single line.
func DecodeText(frame []byte) string {
	const hex = "0123456789abcdef"
	var sb strings.Builder
	sb.Grow(len(frame))
	for _, c := range frame {
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString(`\x`)
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Sentinel is the first byte of every binary command frame.
const Sentinel byte = 0xcc

const (
	// headerLen covers sentinel, length, CRC8, type, id and sequence.
	headerLen = 9
	// trailerLen is the CRC16 trailer.
	trailerLen = 2
	// MinFrameLen is the length of a frame with an empty payload.
	MinFrameLen = headerLen + trailerLen
	// MaxPayloadLen is the largest payload whose frame length fits the
	// 13-bit length field.
	MaxPayloadLen = 1<<13 - 1 - MinFrameLen
)

// Decode errors. Use errors.Is to check.
var (
	ErrNotBinary      = errors.New("wire: frame is not a binary command frame")
	ErrShortFrame     = errors.New("wire: frame too short")
	ErrSizeMismatch   = errors.New("wire: frame length field does not match datagram")
	ErrHeaderChecksum = errors.New("wire: header checksum mismatch")
	ErrFrameChecksum  = errors.New("wire: frame checksum mismatch")
)

// ErrPayloadTooLarge is returned for commands whose frame length would not fit
// the length field.
var ErrPayloadTooLarge = errors.New("wire: payload too large")

// CheckPayload reports ErrPayloadTooLarge when cmd cannot be encoded.
func CheckPayload(cmd Command) error {
	if len(cmd.Payload) > MaxPayloadLen {
		return fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(cmd.Payload), MaxPayloadLen)
	}
	return nil
}

// Codec converts commands to and from binary command frames.
type Codec interface {
	// Encode produces a complete frame, sentinel included, for cmd carrying seq.
	// The result is only decodable when CheckPayload(cmd) passes.
	Encode(cmd Command, seq uint16) []byte

	// Decode parses a frame whose leading sentinel has already been stripped.
	Decode(body []byte) (Command, error)
}

// BinaryCodec is the vehicle's frame format.
type BinaryCodec struct{}

// NewCodec returns the vehicle codec.
func NewCodec() *BinaryCodec {
	return &BinaryCodec{}
}

// Encode implements Codec.
func (BinaryCodec) Encode(cmd Command, seq uint16) []byte {
	n := MinFrameLen + len(cmd.Payload)
	buf := make([]byte, n)
	buf[0] = Sentinel
	binary.LittleEndian.PutUint16(buf[1:3], uint16(n)<<3)
	buf[3] = crc8(buf[0:3])
	buf[4] = byte(cmd.Type)
	binary.LittleEndian.PutUint16(buf[5:7], uint16(cmd.ID))
	binary.LittleEndian.PutUint16(buf[7:9], seq)
	copy(buf[headerLen:], cmd.Payload)
	binary.LittleEndian.PutUint16(buf[n-trailerLen:], crc16(buf[:n-trailerLen]))
	return buf
}

// Decode implements Codec.
func (BinaryCodec) Decode(body []byte) (Command, error) {
	n := len(body) + 1
	if n < MinFrameLen {
		return Command{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, n)
	}

	// Checksums cover the sentinel, so rebuild the full frame.
	frame := make([]byte, n)
	frame[0] = Sentinel
	copy(frame[1:], body)

	if crc8(frame[0:3]) != frame[3] {
		return Command{}, ErrHeaderChecksum
	}
	size := int(binary.LittleEndian.Uint16(frame[1:3]) >> 3)
	if size != n {
		return Command{}, fmt.Errorf("%w: header says %d, got %d", ErrSizeMismatch, size, n)
	}
	if crc16(frame[:n-trailerLen]) != binary.LittleEndian.Uint16(frame[n-trailerLen:]) {
		return Command{}, ErrFrameChecksum
	}

	cmd := Command{
		Type:     PacketType(frame[4]),
		ID:       CommandID(binary.LittleEndian.Uint16(frame[5:7])),
		Sequence: binary.LittleEndian.Uint16(frame[7:9]),
	}
	if p := frame[headerLen : n-trailerLen]; len(p) > 0 {
		cmd.Payload = p
	}
	return cmd, nil
}

// DecodeFrame decodes a complete frame, sentinel included.
func DecodeFrame(c Codec, frame []byte) (Command, error) {
	if !IsBinary(frame) {
		return Command{}, ErrNotBinary
	}
	return c.Decode(frame[1:])
}

// IsBinary reports whether frame is a binary command frame.
func IsBinary(frame []byte) bool {
	return len(frame) > 0 && frame[0] == Sentinel
}

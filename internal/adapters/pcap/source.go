// Package pcap reads recorded command-channel traffic from packet captures.
package pcap

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Source yields the UDP payloads of a capture whose source or destination
// port matches the command port. Non-UDP packets, other ports and empty
// payloads are skipped.
type Source struct {
	file   io.Closer
	reader *pcapgo.Reader
	port   layers.UDPPort

	packets uint64
	skipped uint64
}

// Open opens a classic pcap file.
func Open(path string, port uint16) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture %s: %w", path, err)
	}
	src, err := NewSource(f, port)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read capture %s: %w", path, err)
	}
	src.file = f
	return src, nil
}

// NewSource reads a capture from r.
func NewSource(r io.Reader, port uint16) (*Source, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &Source{reader: reader, port: layers.UDPPort(port)}, nil
}

// Next returns the next matching payload, or io.EOF at the end of the capture.
func (s *Source) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, _, err := s.reader.ReadPacketData()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", s.packets+1, err)
		}
		s.packets++

		packet := gopacket.NewPacket(data, s.reader.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok || (udp.SrcPort != s.port && udp.DstPort != s.port) || len(udp.Payload) == 0 {
			s.skipped++
			continue
		}
		return udp.Payload, nil
	}
}

// Packets returns the number of packets read and skipped so far.
func (s *Source) Packets() (read, skipped uint64) {
	return s.packets, s.skipped
}

// Close closes the underlying file when the source was created with Open.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

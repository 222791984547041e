package pcap

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type datagram struct {
	src, dst uint16
	payload  []byte
}

func writeCapture(t *testing.T, w io.Writer, grams []datagram) {
	t.Helper()
	pw := pcapgo.NewWriter(w)
	require.NoError(t, pw.WriteFileHeader(65535, layers.LinkTypeEthernet))

	for i, g := range grams {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x60, 0x60, 0x1f, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0x60, 0x60, 0x1f, 0, 0, 2},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IPv4(192, 168, 10, 1),
			DstIP:    net.IPv4(192, 168, 10, 2),
		}
		udp := &layers.UDP{SrcPort: layers.UDPPort(g.src), DstPort: layers.UDPPort(g.dst)}
		require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(g.payload)))

		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(1700000000, int64(i)),
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, pw.WritePacket(ci, data))
	}
}

func TestSource_FiltersCommandPort(t *testing.T) {
	var buf bytes.Buffer
	writeCapture(t, &buf, []datagram{
		{src: 40000, dst: 8889, payload: []byte("command")},
		{src: 8889, dst: 40000, payload: []byte{0xcc, 0x58, 0x00}},
		{src: 6037, dst: 40001, payload: []byte{0, 0, 0, 1}},
		{src: 8889, dst: 40000, payload: []byte("ok")},
	})

	src, err := NewSource(&buf, 8889)
	require.NoError(t, err)
	defer src.Close()

	var got [][]byte
	for {
		p, err := src.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, p)
	}

	assert.Equal(t, [][]byte{[]byte("command"), {0xcc, 0x58, 0x00}, []byte("ok")}, got)
	read, skipped := src.Packets()
	assert.Equal(t, uint64(4), read)
	assert.Equal(t, uint64(1), skipped)
}

func TestSource_Open(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	writeCapture(t, f, []datagram{{src: 8889, dst: 40000, payload: []byte("ok")}})
	require.NoError(t, f.Close())

	src, err := Open(path, 8889)
	require.NoError(t, err)
	p, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), p)
	require.NoError(t, src.Close())
}

func TestSource_NotACapture(t *testing.T) {
	_, err := NewSource(bytes.NewReader([]byte("definitely not pcap data")), 8889)
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing.pcap"), 8889)
	assert.Error(t, err)
}

func TestSource_Cancelled(t *testing.T) {
	var buf bytes.Buffer
	writeCapture(t, &buf, []datagram{{src: 8889, dst: 40000, payload: []byte("ok")}})
	src, err := NewSource(&buf, 8889)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

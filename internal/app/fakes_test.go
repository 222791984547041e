package app

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/bft-labs/dronelink/internal/ports"
	"github.com/bft-labs/dronelink/pkg/wire"
)

// fakeConn is an in-memory DatagramConn. Datagrams pushed with deliver are
// returned by Read; failWith makes the next Read return an error.
type fakeConn struct {
	in     chan []byte
	errs   chan error
	closed chan struct{}
	once   sync.Once

	mu       sync.Mutex
	written  [][]byte
	writeErr error
	short    bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 64),
		errs:   make(chan error, 4),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) deliver(b []byte) { c.in <- b }

func (c *fakeConn) failWith(err error) { c.errs <- err }

func (c *fakeConn) Read(b []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, net.ErrClosed
	default:
	}
	select {
	case d := <-c.in:
		return copy(b, d), nil
	case err := <-c.errs:
		return 0, err
	case <-c.closed:
		return 0, net.ErrClosed
	}
}

func (c *fakeConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return 0, net.ErrClosed
	default:
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	if c.short {
		return len(b) - 1, nil
	}
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

func (c *fakeConn) LocalAddr() net.Addr  { return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000} }
func (c *fakeConn) RemoteAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8889} }

// fakeDialer hands out fresh fakeConns keyed by port.
type fakeDialer struct {
	mu    sync.Mutex
	conns map[uint16]*fakeConn
	err   error
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(map[uint16]*fakeConn)}
}

func (d *fakeDialer) Dial(_ context.Context, _ string, port uint16) (ports.DatagramConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns[port] = c
	return c, nil
}

func (d *fakeDialer) conn(port uint16) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[port]
}

// sliceSource replays a fixed list of frames.
type sliceSource struct {
	frames [][]byte
}

func (s *sliceSource) Next(context.Context) ([]byte, error) {
	if len(s.frames) == 0 {
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *sliceSource) Close() error { return nil }

func wifiFrame(seq uint16, strength, interference uint8) []byte {
	cmd := wire.NewCommand(wire.CmdWifiStatus, wire.PacketTypeSet, []byte{strength, interference})
	return wire.NewCodec().Encode(cmd, seq)
}

// gatedSource signals on started when Next is first called and then blocks
// until release is closed.
type gatedSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSource() *gatedSource {
	return &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
}

func (s *gatedSource) Next(ctx context.Context) ([]byte, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *gatedSource) Close() error { return nil }

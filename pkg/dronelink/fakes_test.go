package dronelink_test

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/bft-labs/dronelink/pkg/dronelink"
)

type failingDialer struct {
	err error
}

func (d failingDialer) Dial(context.Context, string, uint16) (dronelink.DatagramConn, error) {
	return nil, d.err
}

// memConn is a DatagramConn that never receives anything until fail is
// called.
type memConn struct {
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func newMemConn() *memConn {
	return &memConn{errs: make(chan error, 1), closed: make(chan struct{})}
}

func (c *memConn) fail(err error) { c.errs <- err }

func (c *memConn) Read([]byte) (int, error) {
	select {
	case err := <-c.errs:
		return 0, err
	case <-c.closed:
		return 0, net.ErrClosed
	}
}

func (c *memConn) Write(b []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, net.ErrClosed
	default:
		return len(b), nil
	}
}

func (c *memConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *memConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *memConn) LocalAddr() net.Addr  { return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000} }
func (c *memConn) RemoteAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4(192, 168, 10, 1), Port: 8889} }

// pipeDialer hands out memConns; the first dial is the command socket.
type pipeDialer struct {
	mu    sync.Mutex
	conns []*memConn
}

func (d *pipeDialer) Dial(context.Context, string, uint16) (dronelink.DatagramConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := newMemConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *pipeDialer) command() *memConn { return d.at(0) }
func (d *pipeDialer) video() *memConn   { return d.at(1) }

func (d *pipeDialer) at(i int) *memConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

// stuckConn ignores Close: Read blocks until release is closed.
type stuckConn struct {
	release <-chan struct{}
}

func (c stuckConn) Read([]byte) (int, error) {
	<-c.release
	return 0, net.ErrClosed
}

func (c stuckConn) Write(b []byte) (int, error) { return len(b), nil }
func (c stuckConn) Close() error                { return nil }
func (c stuckConn) LocalAddr() net.Addr         { return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50001} }
func (c stuckConn) RemoteAddr() net.Addr        { return &net.UDPAddr{IP: net.IPv4(192, 168, 10, 1), Port: 8889} }

type stuckDialer struct {
	release chan struct{}
}

func (d stuckDialer) Dial(context.Context, string, uint16) (dronelink.DatagramConn, error) {
	return stuckConn{release: d.release}, nil
}

// frameList is a FrameSource over recorded datagrams.
type frameList [][]byte

func (f *frameList) Next(context.Context) ([]byte, error) {
	if len(*f) == 0 {
		return nil, io.EOF
	}
	b := (*f)[0]
	*f = (*f)[1:]
	return b, nil
}

func (f *frameList) Close() error { return nil }

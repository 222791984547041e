package ports

import (
	"context"
	"net"
)

// DatagramConn is a connected datagram socket. *net.UDPConn satisfies it.
type DatagramConn interface {
	// Read blocks until one datagram arrives or the socket is closed.
	Read(b []byte) (int, error)

	// Write sends b as a single datagram.
	Write(b []byte) (int, error)

	Close() error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// Dialer opens a DatagramConn to host:port.
type Dialer interface {
	Dial(ctx context.Context, host string, port uint16) (DatagramConn, error)
}

// FrameHandler consumes one datagram. The slice is owned by the handler.
type FrameHandler func(frame []byte)

// FrameSource yields recorded command-channel datagrams in capture order.
// Next returns io.EOF when the source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

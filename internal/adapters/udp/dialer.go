package udp

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/bft-labs/dronelink/internal/ports"
)

// Dialer opens connected UDP sockets to the vehicle.
type Dialer struct {
	// ReadBuffer sets SO_RCVBUF on new sockets when positive.
	ReadBuffer int
}

// NewDialer creates a Dialer.
func NewDialer(readBuffer int) *Dialer {
	return &Dialer{ReadBuffer: readBuffer}
}

// Dial implements ports.Dialer.
func (d *Dialer) Dial(ctx context.Context, host string, port uint16) (ports.DatagramConn, error) {
	var nd net.Dialer
	c, err := nd.DialContext(ctx, "udp", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return nil, fmt.Errorf("dial udp %s:%d: %w", host, port, err)
	}
	conn := c.(*net.UDPConn)

	if d.ReadBuffer > 0 {
		if err := conn.SetReadBuffer(d.ReadBuffer); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set read buffer to %d: %w", d.ReadBuffer, err)
		}
	}
	return conn, nil
}

var _ ports.Dialer = (*Dialer)(nil)

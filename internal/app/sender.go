package app

import (
	"fmt"
	"io"
	"sync"

	"github.com/bft-labs/dronelink/internal/domain"
	"github.com/bft-labs/dronelink/internal/ports"
	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/wire"
)

// Sender serializes writes to the command socket. The send lock covers
// encoding, the write and the sequence increment, so frames on the wire carry
// contiguous sequence numbers in send order.
type Sender struct {
	mu    sync.Mutex
	conn  ports.DatagramConn
	codec wire.Codec
	seq   uint16

	logger  log.Logger
	metrics *Metrics
}

// NewSender creates a sender with no socket attached.
func NewSender(codec wire.Codec, logger log.Logger, metrics *Metrics) *Sender {
	return &Sender{
		codec:   codec,
		logger:  logger,
		metrics: metrics,
	}
}

// Attach sets the socket used by later sends. A nil conn detaches it.
// The sequence counter is kept.
func (s *Sender) Attach(conn ports.DatagramConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}

// Send encodes cmd with the next sequence number and writes it. The sequence
// number advances only when the write succeeds. It returns the sequence number
// the frame carried. Oversized payloads fail with wire.ErrPayloadTooLarge and
// nothing is written.
func (s *Sender) Send(cmd wire.Command) (uint16, error) {
	if err := wire.CheckPayload(cmd); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return 0, domain.ErrNotRunning
	}

	seq := s.seq
	frame := s.codec.Encode(cmd, seq)
	if err := s.write(frame); err != nil {
		return 0, err
	}
	s.seq++

	s.logger.Debug("command sent",
		log.Stringer("id", cmd.ID),
		log.Uint16("seq", seq),
	)
	return seq, nil
}

// SendRaw writes b unchanged under the send lock.
func (s *Sender) SendRaw(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return domain.ErrNotRunning
	}
	return s.write(b)
}

// Sequence returns the sequence number the next command will carry.
func (s *Sender) Sequence() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *Sender) write(b []byte) error {
	n, err := s.conn.Write(b)
	if err != nil {
		return fmt.Errorf("%w: send: %w", domain.ErrTransport, err)
	}
	if n != len(b) {
		return fmt.Errorf("%w: send: %w", domain.ErrTransport, io.ErrShortWrite)
	}
	s.metrics.sent.Add(1)
	return nil
}

package app

import (
	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/wire"
)

// CommandFrameHandler classifies command-channel datagrams. Binary frames are
// decoded and queued for the dispatcher; text frames are logged and dropped.
// Every frame takes exactly one of the two paths.
type CommandFrameHandler struct {
	codec   wire.Codec
	queue   *CommandQueue
	logger  log.Logger
	metrics *Metrics
}

// NewCommandFrameHandler creates a handler feeding queue.
func NewCommandFrameHandler(codec wire.Codec, queue *CommandQueue, logger log.Logger, metrics *Metrics) *CommandFrameHandler {
	return &CommandFrameHandler{
		codec:   codec,
		queue:   queue,
		logger:  logger,
		metrics: metrics,
	}
}

// Handle implements ports.FrameHandler.
func (h *CommandFrameHandler) Handle(frame []byte) {
	if len(frame) == 0 {
		h.logger.Debug("empty datagram")
		return
	}
	if wire.IsBinary(frame) {
		h.handleBinary(frame[1:])
		return
	}
	h.handleText(frame)
}

func (h *CommandFrameHandler) handleBinary(body []byte) {
	cmd, err := h.codec.Decode(body)
	if err != nil {
		h.metrics.decodeErrors.Add(1)
		h.logger.Warn("dropping malformed command frame",
			log.Err(err),
			log.Int("bytes", len(body)+1),
		)
		return
	}

	h.logger.Debug("command received",
		log.Stringer("id", cmd.ID),
		log.Uint16("seq", cmd.Sequence),
		log.Int("payload", len(cmd.Payload)),
	)
	if h.queue.Push(cmd) {
		h.metrics.enqueued.Add(1)
	}
}

func (h *CommandFrameHandler) handleText(frame []byte) {
	h.metrics.textFrames.Add(1)
	h.logger.Debug("text frame received", log.String("text", wire.DecodeText(frame)))
}

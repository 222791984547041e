package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/dronelink/internal/domain"
	"github.com/bft-labs/dronelink/internal/ports"
	"github.com/bft-labs/dronelink/pkg/log"
)

// Replay feeds recorded command-channel datagrams through frame classification
// and dispatch on the calling goroutine. Events reach the runtime's
// subscribers exactly as they would on a live session. Replay does not touch
// the sockets or the send path. It fails with domain.ErrAlreadyRunning while
// the sockets are open, and Open fails while a replay runs, so subscribers
// only ever see one dispatcher.
func (r *Runtime) Replay(ctx context.Context, src ports.FrameSource) error {
	r.mu.Lock()
	if r.cmdConn != nil || r.replaying {
		r.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	r.replaying = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.replaying = false
		r.mu.Unlock()
	}()

	queue := NewCommandQueue()
	defer queue.Close()

	frames := NewCommandFrameHandler(r.codec, queue, r.logger, r.metrics)
	dispatcher := NewDispatcher(queue, r.registry, r.hub, r.logger, r.metrics)
	count, size := r.metrics.channelCounters(false)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			r.logger.Debug("replay finished", log.Uint64("frames", count.Load()))
			return nil
		}
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}

		count.Add(1)
		size.Add(uint64(len(frame)))
		frames.Handle(frame)
		for queue.Len() > 0 {
			cmd, ok := queue.Pop()
			if !ok {
				break
			}
			dispatcher.Dispatch(cmd)
		}
	}
}

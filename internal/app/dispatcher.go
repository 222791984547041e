package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/telemetry"
	"github.com/bft-labs/dronelink/pkg/wire"
)

// Subscriber receives published telemetry events. OnEvent runs on the
// dispatcher goroutine and must return quickly: a slow subscriber delays all
// later events.
type Subscriber interface {
	OnEvent(ev telemetry.Event)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ev telemetry.Event)

// OnEvent implements Subscriber.
func (f SubscriberFunc) OnEvent(ev telemetry.Event) { f(ev) }

// Hub fans events out to subscribers. Subscribe and Unsubscribe are safe to
// call while a publish is in flight; a publish delivers to the subscribers
// registered when it started.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]Subscriber
	order   []string
	logger  log.Logger
	metrics *Metrics
}

// NewHub creates an empty hub.
func NewHub(logger log.Logger, metrics *Metrics) *Hub {
	return &Hub{
		subs:    make(map[string]Subscriber),
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe registers s and returns its id.
func (h *Hub) Subscribe(s Subscriber) string {
	id := uuid.NewString()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[id] = s
	h.order = append(h.order, id)
	return id
}

// Unsubscribe removes the subscriber with id. It reports whether it existed.
func (h *Hub) Unsubscribe(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[id]; !ok {
		return false
	}
	delete(h.subs, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i:i], h.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber in registration order.
func (h *Hub) Publish(ev telemetry.Event) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.order))
	for _, id := range h.order {
		subs = append(subs, h.subs[id])
	}
	h.mu.RUnlock()

	for _, s := range subs {
		h.deliver(s, ev)
	}
}

func (h *Hub) deliver(s Subscriber, ev telemetry.Event) {
	defer func() {
		if r := recover(); r != nil {
			h.metrics.subscriberPanics.Add(1)
			h.logger.Error("subscriber panicked",
				log.String("kind", ev.Kind()),
				log.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	s.OnEvent(ev)
}

// Dispatcher drains the command queue, resolves each command to an event and
// publishes it.
type Dispatcher struct {
	queue    *CommandQueue
	registry *telemetry.Registry
	hub      *Hub
	logger   log.Logger
	metrics  *Metrics
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(queue *CommandQueue, registry *telemetry.Registry, hub *Hub, logger log.Logger, metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		queue:    queue,
		registry: registry,
		hub:      hub,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run dispatches commands in queue order until ctx is done. Cancelling ctx
// closes the queue; commands still queued are discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, d.queue.Close)
	defer stop()

	for {
		cmd, ok := d.queue.Pop()
		if !ok || ctx.Err() != nil {
			d.logger.Debug("dispatcher stopped")
			return nil
		}
		d.Dispatch(cmd)
	}
}

// Dispatch resolves and publishes a single command. Unrecognized commands are
// dropped silently.
func (d *Dispatcher) Dispatch(cmd wire.Command) {
	ev, ok := d.registry.Read(cmd)
	if !ok {
		d.metrics.unrecognized.Add(1)
		d.logger.Debug("no event for command",
			log.Stringer("id", cmd.ID),
			log.Uint16("seq", cmd.Sequence),
		)
		return
	}
	d.metrics.events.Add(1)
	d.hub.Publish(ev)
}

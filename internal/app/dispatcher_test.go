package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/dronelink/pkg/log"
	"github.com/bft-labs/dronelink/pkg/telemetry"
	"github.com/bft-labs/dronelink/pkg/wire"
)

// recorder collects events and signals each delivery.
type recorder struct {
	mu     sync.Mutex
	events []telemetry.Event
	got    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{got: make(chan struct{}, 64)}
}

func (r *recorder) OnEvent(ev telemetry.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.got <- struct{}{}
}

func (r *recorder) wait(t *testing.T, n int) []telemetry.Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]telemetry.Event(nil), r.events...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	h := NewHub(log.NewNoopLogger(), &Metrics{})
	a, b := newRecorder(), newRecorder()

	idA := h.Subscribe(a)
	idB := h.Subscribe(b)
	require.NotEqual(t, idA, idB)
	assert.Equal(t, 2, h.Len())

	h.Publish(telemetry.WifiStatus{Strength: 1})
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())

	assert.True(t, h.Unsubscribe(idA))
	assert.False(t, h.Unsubscribe(idA))
	h.Publish(telemetry.WifiStatus{Strength: 2})
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 2, b.count())
}

func TestHub_PublishOrder(t *testing.T) {
	h := NewHub(log.NewNoopLogger(), &Metrics{})
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		h.Subscribe(SubscriberFunc(func(telemetry.Event) { order = append(order, i) }))
	}

	h.Publish(telemetry.LightStrength{Strength: 3})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestHub_RecoversSubscriberPanic(t *testing.T) {
	m := &Metrics{}
	h := NewHub(log.NewNoopLogger(), m)
	after := newRecorder()
	h.Subscribe(SubscriberFunc(func(telemetry.Event) { panic("boom") }))
	h.Subscribe(after)

	h.Publish(telemetry.WifiStatus{})

	assert.Equal(t, 1, after.count())
	assert.Equal(t, uint64(1), m.Snapshot().SubscriberPanics)
}

func TestHub_UnsubscribeDuringPublish(t *testing.T) {
	h := NewHub(log.NewNoopLogger(), &Metrics{})
	var id string
	id = h.Subscribe(SubscriberFunc(func(telemetry.Event) { h.Unsubscribe(id) }))

	h.Publish(telemetry.WifiStatus{})

	assert.Zero(t, h.Len())
}

func TestDispatcher_Run(t *testing.T) {
	m := &Metrics{}
	q := NewCommandQueue()
	hub := NewHub(log.NewNoopLogger(), m)
	rec := newRecorder()
	hub.Subscribe(rec)
	d := NewDispatcher(q, telemetry.DefaultRegistry(), hub, log.NewNoopLogger(), m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	q.Push(wire.Command{ID: wire.CmdWifiStatus, Payload: []byte{70, 2}})
	q.Push(wire.Command{ID: wire.CmdTakeOff})
	q.Push(wire.Command{ID: wire.CmdWifiStatus, Payload: []byte{1}})
	q.Push(wire.Command{ID: wire.CmdLightStrength, Payload: []byte{9}})

	events := rec.wait(t, 2)
	assert.Equal(t, []telemetry.Event{
		telemetry.WifiStatus{Strength: 70, Interference: 2},
		telemetry.LightStrength{Strength: 9},
	}, events)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	stats := m.Snapshot()
	assert.Equal(t, uint64(2), stats.Events)
	assert.Equal(t, uint64(2), stats.Unrecognized)
}

func TestDispatcher_StopsWhileIdle(t *testing.T) {
	q := NewCommandQueue()
	d := NewDispatcher(q, telemetry.DefaultRegistry(), NewHub(log.NewNoopLogger(), &Metrics{}), log.NewNoopLogger(), &Metrics{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	assert.False(t, q.Push(wire.Command{}), "queue should be closed")
}

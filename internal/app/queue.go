package app

import (
	"sync"

	"github.com/bft-labs/dronelink/pkg/wire"
)

// CommandQueue is an unbounded FIFO handing decoded commands from the command
// receive loop to the dispatcher. Push never blocks; Pop blocks while empty.
type CommandQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []wire.Command
	head   int
	closed bool
}

// NewCommandQueue creates an empty queue.
func NewCommandQueue() *CommandQueue {
	q := &CommandQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends cmd. It reports false if the queue is closed.
func (q *CommandQueue) Push(cmd wire.Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, cmd)
	q.cond.Signal()
	return true
}

// Pop removes the oldest command, blocking until one is available. It returns
// false once the queue is closed; commands still queued at that point are
// discarded.
func (q *CommandQueue) Pop() (wire.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.closed && q.head == len(q.items) {
		q.cond.Wait()
	}
	if q.closed {
		return wire.Command{}, false
	}

	cmd := q.items[q.head]
	q.items[q.head] = wire.Command{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return cmd, true
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Close wakes all blocked consumers and rejects further pushes.
// It is safe to call more than once.
func (q *CommandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	q.head = 0
	q.cond.Broadcast()
}

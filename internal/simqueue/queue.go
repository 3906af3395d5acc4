// Package simqueue implements the bounded FIFO packet queue attached
// to every point-to-point net device.
package simqueue

import (
	"errors"

	"github.com/go-netsim/netsimd/internal/packet"
)

// ErrFull is returned by Enqueue when the queue has reached its
// configured capacity. This is a resource-exhaustion condition, not a
// contract violation: the caller reports failure and the packet is
// dropped.
var ErrFull = errors.New("simqueue: queue full")

// ErrEmpty is returned by Dequeue when the queue has no packets.
var ErrEmpty = errors.New("simqueue: queue empty")

// Observer receives queue lifecycle events. All methods are optional
// no-ops on the zero value; Queue calls through a nil-safe wrapper so
// callers that don't care about metrics can omit an Observer entirely.
type Observer interface {
	OnEnqueue(depth int)
	OnDequeue(depth int)
	OnDrop()
}

// noopObserver is the default Observer; every method is a no-op.
type noopObserver struct{}

func (noopObserver) OnEnqueue(int) {}
func (noopObserver) OnDequeue(int) {}
func (noopObserver) OnDrop()       {}

// Option configures a Queue at construction time.
type Option func(*Queue)

// WithObserver attaches an Observer for enqueue/dequeue/drop events.
func WithObserver(obs Observer) Option {
	return func(q *Queue) {
		if obs != nil {
			q.obs = obs
		}
	}
}

// Queue is a bounded FIFO of packets with drop-tail overflow: once
// full, Enqueue fails and reports ErrFull rather than evicting an
// older packet.
type Queue struct {
	capacity int
	items    []packet.Packet
	obs      Observer
}

// New creates a Queue with the given capacity. Capacity <= 0 means
// unbounded.
func New(capacity int, opts ...Option) *Queue {
	q := &Queue{capacity: capacity, obs: noopObserver{}}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Len returns the number of packets currently queued.
func (q *Queue) Len() int { return len(q.items) }

// Capacity returns the configured capacity, or 0 for unbounded.
func (q *Queue) Capacity() int { return q.capacity }

// Enqueue appends p to the back of the queue. Returns false and
// ErrFull if the queue is at capacity; the packet is not stored.
func (q *Queue) Enqueue(p packet.Packet) (bool, error) {
	if q.capacity > 0 && len(q.items) >= q.capacity {
		q.obs.OnDrop()
		return false, ErrFull
	}

	q.items = append(q.items, p)
	q.obs.OnEnqueue(len(q.items))

	return true, nil
}

// Dequeue removes and returns the front packet. Returns ErrEmpty if
// the queue has no packets.
func (q *Queue) Dequeue() (packet.Packet, error) {
	if len(q.items) == 0 {
		return packet.Packet{}, ErrEmpty
	}

	p := q.items[0]
	q.items = q.items[1:]
	q.obs.OnDequeue(len(q.items))

	return p, nil
}

// Empty reports whether the queue has no packets.
func (q *Queue) Empty() bool { return len(q.items) == 0 }

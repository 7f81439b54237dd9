// Package pktbuf implements a byte-capacity-bounded FIFO packet buffer
// used for store-carry-forward and DCC per-category queuing alike (§4.3,
// §4.7). Entries carry their own lifetime and an opaque caller-supplied
// metadata value; expired entries are dropped on the next sweep rather
// than proactively, and a caller-supplied predicate selects which
// entries are eligible for out-of-order flush (§4.4: "mark_flush
// (predicate)", "flush_one(emit_fn)").
package pktbuf

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/veloce-go/geonet/coreerr"
)

// Entry is one buffered packet, parameterised over M, the caller's
// metadata type (e.g. a destination and access category for
// store-carry-forward; struct{} where no metadata is needed).
type Entry[M any] struct {
	Payload  []byte
	Meta     M
	Queued   time.Time
	Deadline time.Time
	flush    bool // marked for immediate transmission once reachable again
}

// Buffer is a byte-capacity-bounded FIFO. Oldest entries are evicted from
// the head when an enqueue would exceed capacity (§4.3: "head eviction on
// overflow").
type Buffer[M any] struct {
	capacity int
	used     int
	entries  []Entry[M]
	clock    clock.Clock
}

// New builds a Buffer bounded to capacityBytes.
func New[M any](capacityBytes int, clk clock.Clock) *Buffer[M] {
	if clk == nil {
		clk = clock.New()
	}
	return &Buffer[M]{capacity: capacityBytes, clock: clk}
}

// Enqueue appends payload (with its associated meta and lifetime),
// evicting the oldest entries if necessary to make room. A single
// packet larger than the buffer's total capacity can never fit and is
// rejected outright.
func (b *Buffer[M]) Enqueue(payload []byte, meta M, lifetime time.Duration) error {
	if len(payload) > b.capacity {
		return coreerr.New(coreerr.CapacityExhausted, "packet buffer: packet too big for buffer capacity")
	}

	now := b.clock.Now()
	for b.used+len(payload) > b.capacity && len(b.entries) > 0 {
		b.dropHead()
	}

	b.entries = append(b.entries, Entry[M]{
		Payload:  payload,
		Meta:     meta,
		Queued:   now,
		Deadline: now.Add(lifetime),
	})
	b.used += len(payload)
	return nil
}

func (b *Buffer[M]) dropHead() {
	if len(b.entries) == 0 {
		return
	}
	b.used -= len(b.entries[0].Payload)
	b.entries = b.entries[1:]
}

// DropExpired removes every entry whose deadline has passed, returning
// how many were dropped.
func (b *Buffer[M]) DropExpired() int {
	now := b.clock.Now()
	var dropped int

	kept := b.entries[:0]
	for _, e := range b.entries {
		if now.After(e.Deadline) {
			b.used -= len(e.Payload)
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	b.entries = kept

	return dropped
}

// MarkFlush flags every currently-buffered entry whose metadata
// satisfies predicate for immediate out-of-order dequeue, used when a
// neighbour that can carry them becomes reachable again (§4.3:
// store-carry-forward resumption; §4.4 "mark_flush(predicate)").
func (b *Buffer[M]) MarkFlush(predicate func(M) bool) {
	for i := range b.entries {
		if predicate(b.entries[i].Meta) {
			b.entries[i].flush = true
		}
	}
}

// FlushOne pops and returns the oldest entry marked for flush, if any
// (§4.4 "flush_one(emit_fn)").
func (b *Buffer[M]) FlushOne() (payload []byte, meta M, deadline time.Time, ok bool) {
	for i, e := range b.entries {
		if e.flush {
			b.remove(i)
			return e.Payload, e.Meta, e.Deadline, true
		}
	}
	return nil, meta, time.Time{}, false
}

// DequeueOne pops and returns the oldest entry, regardless of flush
// state.
func (b *Buffer[M]) DequeueOne() (payload []byte, ok bool) {
	if len(b.entries) == 0 {
		return nil, false
	}
	e := b.entries[0]
	b.remove(0)
	return e.Payload, true
}

func (b *Buffer[M]) remove(i int) {
	b.used -= len(b.entries[i].Payload)
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
}

// Len returns the number of buffered entries.
func (b *Buffer[M]) Len() int { return len(b.entries) }

// Used returns the total bytes currently buffered.
func (b *Buffer[M]) Used() int { return b.used }

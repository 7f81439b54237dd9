// Package cbf implements Contention-Based Forwarding: a per-(source,
// sequence) timer that lets a single best-placed neighbour re-broadcast a
// packet while the rest of the neighbourhood cancels its own pending
// rebroadcast on overhearing it (§4.8.2).
package cbf

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/veloce-go/geonet/wire"
)

// MaxCBFTime is the upper bound of the contention timer.
const MaxCBFTime = 100 * time.Millisecond

// DistMax is the distance, in meters, beyond which a candidate forwarder
// is considered maximally well-placed (timer floor).
const DistMax = 500.0

// Timer computes the contention timer for a candidate forwarder at
// distanceM meters of progress toward the destination: the closer a
// candidate is to DistMax of progress, the shorter its timer, so the
// best-placed neighbour fires first (§4.8.2).
func Timer(distanceM float64) time.Duration {
	if distanceM < 0 {
		distanceM = 0
	}
	if distanceM > DistMax {
		distanceM = DistMax
	}

	frac := 1 - distanceM/DistMax
	return time.Duration(float64(MaxCBFTime) * frac)
}

type key struct {
	source   wire.LLAddr
	sequence wire.SequenceNumber
}

type pending struct {
	timer   *clock.Timer
	payload []byte
}

// Buffer holds packets awaiting their contention timer, keyed by
// (source, sequence) so that overhearing the same packet cancels the
// locally pending rebroadcast (§4.8.2: "duplicate cancels pending").
type Buffer struct {
	clock    clock.Clock
	capacity int
	entries  map[key]*pending
	order    []key // insertion order, for overflow eviction
	fire     func(payload []byte)
}

// New builds a Buffer bounded to capacity concurrently pending entries.
// fire is invoked (from the buffer's own goroutine-less timer callback)
// when an entry's contention timer elapses without being cancelled.
func New(capacity int, clk clock.Clock, fire func(payload []byte)) *Buffer {
	if clk == nil {
		clk = clock.New()
	}
	return &Buffer{clock: clk, capacity: capacity, entries: map[key]*pending{}, fire: fire}
}

// Hold schedules payload for rebroadcast after Timer(distanceM), unless
// cancelled first by Cancel with the same source/sequence.
func (b *Buffer) Hold(source wire.LLAddr, seq wire.SequenceNumber, distanceM float64, payload []byte) {
	k := key{source, seq}

	if existing, ok := b.entries[k]; ok {
		existing.timer.Stop()
		delete(b.entries, k)
	} else if len(b.entries) >= b.capacity {
		b.evictOldest()
	}

	d := Timer(distanceM)
	p := &pending{payload: payload}
	p.timer = b.clock.AfterFunc(d, func() {
		delete(b.entries, k)
		if b.fire != nil {
			b.fire(payload)
		}
	})

	b.entries[k] = p
	b.order = append(b.order, k)
}

// Cancel stops and removes a pending rebroadcast, called when the same
// packet is overheard from another forwarder first.
func (b *Buffer) Cancel(source wire.LLAddr, seq wire.SequenceNumber) bool {
	k := key{source, seq}
	p, ok := b.entries[k]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(b.entries, k)
	return true
}

func (b *Buffer) evictOldest() {
	for len(b.order) > 0 {
		k := b.order[0]
		b.order = b.order[1:]
		if p, ok := b.entries[k]; ok {
			p.timer.Stop()
			delete(b.entries, k)
			return
		}
	}
}

// Len returns the number of packets currently awaiting their timer.
func (b *Buffer) Len() int { return len(b.entries) }

package forwarding

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/veloce-go/geonet/pktbuf"
	"github.com/veloce-go/geonet/wire"
)

// scfMeta is the per-entry bookkeeping store-carry-forward needs beyond
// pktbuf.Buffer's own payload/deadline tracking: which destination the
// packet is waiting for, and which DCC category to re-dispatch it under
// once released (§4.3, §4.8.1).
type scfMeta struct {
	Dest     wire.LLAddr
	Category wire.AccessCategory
}

// scfEntry is one packet released from store-carry-forward, paired back
// up with its destination, category and remaining deadline for the
// caller to re-dispatch.
type scfEntry struct {
	Dest     wire.LLAddr
	Payload  []byte
	Category wire.AccessCategory
	Deadline time.Time
}

// storeCarryQueue is store-carry-forward's buffer: a pktbuf.Buffer
// carrying a destination/category per entry, so flushReachable can
// selectively release only the entries whose destination has become
// reachable (§4.3: "buffer is scanned and flushed to DCC for
// now-reachable destinations"), via pktbuf's mark_flush/flush_one
// predicate (§4.4), unlike a plain FIFO where every entry dequeues in
// order.
type storeCarryQueue struct {
	buf *pktbuf.Buffer[scfMeta]
}

func newStoreCarryQueue(capacityBytes int, clk clock.Clock) *storeCarryQueue {
	return &storeCarryQueue{buf: pktbuf.New[scfMeta](capacityBytes, clk)}
}

// enqueue buffers payload for dest, evicting from the head if necessary
// to make room. A payload larger than the queue's entire capacity can
// never fit and is dropped outright.
func (q *storeCarryQueue) enqueue(dest wire.LLAddr, payload []byte, category wire.AccessCategory, lifetime time.Duration) {
	_ = q.buf.Enqueue(payload, scfMeta{Dest: dest, Category: category}, lifetime)
}

// dropExpired removes every entry past its deadline, returning how many
// were dropped.
func (q *storeCarryQueue) dropExpired() int {
	return q.buf.DropExpired()
}

// flushReachable marks every entry whose destination now satisfies
// ready and releases them in enqueue order, called after every location
// table update.
func (q *storeCarryQueue) flushReachable(ready func(wire.LLAddr) bool) []scfEntry {
	q.buf.MarkFlush(func(m scfMeta) bool { return ready(m.Dest) })

	var flushed []scfEntry
	for {
		payload, meta, deadline, ok := q.buf.FlushOne()
		if !ok {
			break
		}
		flushed = append(flushed, scfEntry{Dest: meta.Dest, Payload: payload, Category: meta.Category, Deadline: deadline})
	}
	return flushed
}

// Len returns the number of buffered entries.
func (q *storeCarryQueue) Len() int { return q.buf.Len() }

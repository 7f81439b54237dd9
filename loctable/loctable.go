// Package loctable implements the Location Table: the per-station record
// of every neighbour and forwarding hop a GeoNetworking router has heard
// from, keyed by link-layer address and bounded by an LRU eviction policy.
package loctable

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/veloce-go/geonet/coreerr"
	"github.com/veloce-go/geonet/wire"
)

// duplicateWindow is the number of most-recently-seen sequence numbers
// retained per entry for duplicate-packet detection.
const duplicateWindow = 32

// Entry is everything the table knows about one station.
type Entry struct {
	Position     wire.LongPositionVector
	IsNeighbour  bool
	LastUpdated  time.Time
	GreatestSeen wire.SequenceNumber
	seen         [duplicateWindow]wire.SequenceNumber
	seenCount    int
	seenCursor   int
}

// recordSeen appends seq to the sliding duplicate-detection window and
// advances the greatest-seen sequence number, returning whether seq is
// rejected as either a duplicate (already in the window) or stale (older
// than GreatestSeen by more than duplicateWindow, §4.2).
func (e *Entry) recordSeen(seq wire.SequenceNumber) bool {
	for i := 0; i < e.seenCount; i++ {
		if e.seen[i] == seq {
			return true
		}
	}

	if e.seenCount > 0 && !seq.NewerThan(e.GreatestSeen) {
		if e.GreatestSeen.Distance(seq) > duplicateWindow {
			return true
		}
	}

	e.seen[e.seenCursor] = seq
	e.seenCursor = (e.seenCursor + 1) % duplicateWindow
	if e.seenCount < duplicateWindow {
		e.seenCount++
	}

	if seq.NewerThan(e.GreatestSeen) || e.seenCount == 1 {
		e.GreatestSeen = seq
	}

	return false
}

// Table is the Location Table (§3, §4.2). It is safe for concurrent use.
type Table struct {
	mutex sync.Mutex
	cache *lru.Cache[wire.LLAddr, *Entry]
	clock clock.Clock
}

// New builds a Table bounded to capacity entries, evicting the least
// recently updated entry once that bound is reached.
func New(capacity int, clk clock.Clock) (*Table, error) {
	if clk == nil {
		clk = clock.New()
	}

	cache, err := lru.New[wire.LLAddr, *Entry](capacity)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.ResourceError, "location table: allocate cache", err)
	}

	return &Table{cache: cache, clock: clk}, nil
}

// Find returns the entry for addr, if present.
func (t *Table) Find(addr wire.LLAddr) (Entry, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	e, ok := t.cache.Peek(addr)
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Update merges a freshly-observed position vector into the table,
// marking the station a direct neighbour when isNeighbour is true (a
// single-hop reception, e.g. a beacon or SHB). Stale updates — an
// observation older than what is already on file — are rejected.
func (t *Table) Update(pos wire.LongPositionVector, isNeighbour bool) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	now := t.clock.Now()

	e, ok := t.cache.Get(pos.Address.LLAddr)
	if !ok {
		e = &Entry{}
		t.cache.Add(pos.Address.LLAddr, e)
	} else if e.LastUpdated.After(now) {
		return coreerr.New(coreerr.Stale, "location table: update older than stored entry")
	}

	e.Position = pos
	e.LastUpdated = now
	if isNeighbour {
		e.IsNeighbour = true
	}

	return nil
}

// IsDuplicate reports whether seq must be rejected as either a repeat
// already in addr's duplicate window or a stale sequence number too far
// behind GreatestSeen to trust, recording it in the entry's duplicate
// window as a side effect. An unknown station is never a duplicate of
// anything.
func (t *Table) IsDuplicate(addr wire.LLAddr, seq wire.SequenceNumber) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	e, ok := t.cache.Peek(addr)
	if !ok {
		return false
	}

	return e.recordSeen(seq)
}

// Neighbours returns the link-layer addresses of every entry currently
// marked as a direct neighbour.
func (t *Table) Neighbours() []wire.LLAddr {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var out []wire.LLAddr
	for _, addr := range t.cache.Keys() {
		if e, ok := t.cache.Peek(addr); ok && e.IsNeighbour {
			out = append(out, addr)
		}
	}
	return out
}

// Sweep removes every entry whose last update is older than maxAge.
func (t *Table) Sweep(maxAge time.Duration) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	now := t.clock.Now()
	var expired []wire.LLAddr

	for _, addr := range t.cache.Keys() {
		e, ok := t.cache.Peek(addr)
		if !ok {
			continue
		}
		if now.Sub(e.LastUpdated) > maxAge {
			expired = append(expired, addr)
		}
	}

	for _, addr := range expired {
		t.cache.Remove(addr)
	}

	return len(expired)
}

// Len returns the number of entries currently held.
func (t *Table) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.cache.Len()
}

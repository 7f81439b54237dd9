package forwarding

import (
	"time"

	"github.com/veloce-go/geonet/coreerr"
	"github.com/veloce-go/geonet/dcc"
	"github.com/veloce-go/geonet/wire"
)

// handleGUC applies greedy unicast forwarding (§4.8.1): deliver if
// self is the destination, else forward toward the best-placed
// neighbour, falling back to store-carry-forward when none offers
// progress.
func (e *Engine) handleGUC(pkt wire.Packet, raw []byte, now time.Time) error {
	guc := pkt.Body.GeoUnicast
	dest := guc.Destination.Address.LLAddr

	if dest == e.cfg.Self.LLAddr {
		e.deliver(pkt.Payload)
		return nil
	}

	if pkt.Basic.RemainingHopLimit <= 1 {
		return nil
	}

	category := pkt.Common.TrafficClass.AccessCategory()
	e.forwardTowards(dest, guc.Destination, decrementedCopy(raw), category, pkt.Basic.Lifetime, now)
	return nil
}

// forwardTowards dispatches a packet already addressed to dest
// immediately if a direct neighbour or a progress-making neighbour is
// known, else buffers it for store-carry-forward (§4.8.1, §4.3).
func (e *Engine) forwardTowards(dest wire.LLAddr, destPos wire.LongPositionVector, payload []byte, category wire.AccessCategory, lifetime time.Duration, now time.Time) {
	entry, known := e.loctable.Find(dest)
	if known {
		destPos = entry.Position
		if entry.IsNeighbour {
			e.transmitForwarded(category, payload, lifetime)
			return
		}
	}

	if _, ok := e.bestNextHop(destPos); ok {
		e.transmitForwarded(category, payload, lifetime)
		return
	}

	e.scf.enqueue(dest, payload, category, e.cfg.StoreCarryLifetime)
}

// transmitForwarded hands payload to the DCC gate; a gate that is
// currently open transmits immediately, since Dispatch itself only
// updates the gate's bookkeeping for that case and leaves the actual
// send to the caller.
func (e *Engine) transmitForwarded(category wire.AccessCategory, payload []byte, lifetime time.Duration) {
	switch e.dcc.Dispatch(category, payload, lifetime) {
	case dcc.ImmediateTx:
		e.transmitRaw(payload)
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.PacketsForwarded.Inc()
		}
	case dcc.Dropped:
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.DropKind(coreerr.CapacityExhausted)
		}
		// Enqueued: counted as forwarded once Poll actually releases it.
	}
}

// bestNextHop selects a neighbour offering strictly more progress
// toward destPos than self has, the progress condition required
// before a hop is considered a legitimate forwarder (§4.8.1:
// "d(N*,dest) < d(self,dest)").
func (e *Engine) bestNextHop(destPos wire.LongPositionVector) (wire.LLAddr, bool) {
	self := e.cfg.Position()
	selfDist := distanceM(self.LatitudeDegrees(), self.LongitudeDegrees(), destPos.LatitudeDegrees(), destPos.LongitudeDegrees())

	var best wire.LLAddr
	bestDist := selfDist
	found := false

	for _, addr := range e.loctable.Neighbours() {
		entry, ok := e.loctable.Find(addr)
		if !ok {
			continue
		}
		d := distanceM(entry.Position.LatitudeDegrees(), entry.Position.LongitudeDegrees(), destPos.LatitudeDegrees(), destPos.LongitudeDegrees())
		if d < bestDist {
			bestDist = d
			best = addr
			found = true
		}
	}

	return best, found
}

// onLocationUpdate flushes every store-carry-forward entry whose
// destination has become reachable, called after every location
// table update (§4.3: "buffer is scanned and flushed to DCC for
// now-reachable destinations").
func (e *Engine) onLocationUpdate(now time.Time) {
	e.scf.dropExpired()

	flushed := e.scf.flushReachable(e.reachable)
	for _, entry := range flushed {
		e.transmitForwarded(entry.Category, entry.Payload, entry.Deadline.Sub(now))
	}
}

func (e *Engine) reachable(dest wire.LLAddr) bool {
	entry, known := e.loctable.Find(dest)
	if !known {
		return false
	}
	if entry.IsNeighbour {
		return true
	}
	_, ok := e.bestNextHop(entry.Position)
	return ok
}

// handleGBC applies contention-based or simple-flood forwarding for
// geographically scoped broadcast/anycast (§4.8.2). A duplicate
// cancels this node's own pending rebroadcast rather than being
// silently dropped, so the best-placed neighbour's retransmission
// suppresses everyone else's.
func (e *Engine) handleGBC(pkt wire.Packet, raw []byte, duplicate bool, now time.Time) error {
	gbc := pkt.Body.GeoBroadcast

	if duplicate {
		e.cbf.Cancel(gbc.Source.Address.LLAddr, gbc.Sequence)
		return e.drop("duplicate GBC/GAC", coreerr.New(coreerr.Stale, "forwarding: duplicate (source, sequence)"))
	}

	self := e.cfg.Position()
	inside := gbc.Area.Inside(self.LatitudeDegrees(), self.LongitudeDegrees())
	anycast := isAnycastType(pkt.Body.Type)

	if inside {
		e.deliver(pkt.Payload)
		if anycast {
			return nil // anycast: delivered to one station inside the area, done
		}
	}

	if pkt.Basic.RemainingHopLimit <= 1 {
		return nil
	}

	payload := decrementedCopy(raw)
	category := pkt.Common.TrafficClass.AccessCategory()

	switch e.cfg.GBCMode {
	case GBCSimpleFlood:
		e.transmitForwarded(category, payload, pkt.Basic.Lifetime)

	default:
		// Approximates "distance to the previous forwarder" as distance
		// to the embedded source position, since this profile's GBC
		// extended header carries only the original source vector.
		distance := distanceM(self.LatitudeDegrees(), self.LongitudeDegrees(), gbc.Source.LatitudeDegrees(), gbc.Source.LongitudeDegrees())
		e.cbf.Hold(gbc.Source.Address.LLAddr, gbc.Sequence, distance, payload)
	}

	return nil
}

func isAnycastType(t wire.PacketType) bool {
	switch t {
	case wire.PacketGeoAnycastCircle, wire.PacketGeoAnycastRect, wire.PacketGeoAnycastEllipse:
		return true
	}
	return false
}

// onContentionFire re-transmits a packet whose contention timer
// elapsed without being cancelled (§4.8.2).
func (e *Engine) onContentionFire(payload []byte) {
	basic, err := wire.ParseBasicHeader(payload)
	if err != nil {
		return
	}
	if basic.NextHeader == wire.NextHeaderCommon {
		if common, err := wire.ParseCommonHeader(payload[wire.BasicHeaderLen:]); err == nil {
			e.transmitForwarded(common.TrafficClass.AccessCategory(), payload, basic.Lifetime)
			return
		}
	}
	e.transmitForwarded(wire.AccessBestEffort, payload, basic.Lifetime)
}

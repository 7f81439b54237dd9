package forwarding

import (
	"time"

	"github.com/veloce-go/geonet/coreerr"
	"github.com/veloce-go/geonet/wire"
)

// applyPolicy dispatches a packet that has passed the common ingress
// steps to its per-type delivery/forwarding policy (§4.8). raw is the
// original received frame, forwarded (when forwarding applies) by
// patching its hop limit in place rather than re-encoding pkt, so a
// secured envelope survives forwarding unchanged.
func (e *Engine) applyPolicy(pkt wire.Packet, raw []byte, duplicate bool, now time.Time) error {
	switch pkt.Body.Type {
	case wire.PacketBeacon:
		return nil // neighbour-set refresh only, already applied in ingressPacket

	case wire.PacketSingleHopBroadcast:
		e.deliver(pkt.Payload)
		return nil

	case wire.PacketGeoUnicast:
		if duplicate {
			return e.drop("duplicate GUC", coreerr.New(coreerr.Stale, "forwarding: duplicate (source, sequence)"))
		}
		return e.handleGUC(pkt, raw, now)

	case wire.PacketGeoBroadcastCircle, wire.PacketGeoBroadcastRect, wire.PacketGeoBroadcastEllipse,
		wire.PacketGeoAnycastCircle, wire.PacketGeoAnycastRect, wire.PacketGeoAnycastEllipse:
		return e.handleGBC(pkt, raw, duplicate, now)

	case wire.PacketTopoScopeBroadcastSingleHop, wire.PacketTopoScopeBroadcastMultiHop:
		if duplicate {
			return e.drop("duplicate TSB", coreerr.New(coreerr.Stale, "forwarding: duplicate (source, sequence)"))
		}
		e.deliver(pkt.Payload)
		return e.floodForward(pkt, raw)

	case wire.PacketLocationServiceRequest:
		if duplicate {
			return e.drop("duplicate LS request", coreerr.New(coreerr.Stale, "forwarding: duplicate (source, sequence)"))
		}
		return e.handleLSRequest(pkt, raw, now)

	case wire.PacketLocationServiceReply:
		if duplicate {
			return e.drop("duplicate LS reply", coreerr.New(coreerr.Stale, "forwarding: duplicate (source, sequence)"))
		}
		return e.handleLSReply(pkt, raw, now)
	}

	return nil
}

// handleLSRequest answers a request targeting self with an LS Reply,
// and otherwise forwards it like a TSB flood up to its hop limit
// (§4.8: "LS Req/Rep ... flood-limited").
func (e *Engine) handleLSRequest(pkt wire.Packet, raw []byte, now time.Time) error {
	req := pkt.Body.LSRequest

	if req.Requested.LLAddr == e.cfg.Self.LLAddr {
		return e.replyToLocationRequest(now)
	}

	return e.floodForward(pkt, raw)
}

// handleLSReply records the resolved target's own position (carried in
// the reply itself, not just its relayer's) into the location table,
// releases anything buffered in the Location Service awaiting it, and
// otherwise forwards the reply on like a TSB flood (§4.5, §4.8).
func (e *Engine) handleLSReply(pkt wire.Packet, raw []byte, now time.Time) error {
	reply := pkt.Body.LSReply
	target := reply.Target.Address.LLAddr

	_ = e.loctable.Update(reply.Target, false)

	if packets, ok := e.locserv.Resolve(target); ok {
		for _, payload := range packets {
			e.originateGUC(target, payload, now)
		}
	}

	return e.floodForward(pkt, raw)
}

// floodForward re-transmits raw with its hop limit decremented, the
// shared behaviour of TSB and the two Location Service packet types
// once delivered/consumed locally. No-op once the hop limit is spent.
func (e *Engine) floodForward(pkt wire.Packet, raw []byte) error {
	if pkt.Basic.RemainingHopLimit <= 1 {
		return nil
	}

	category := pkt.Common.TrafficClass.AccessCategory()
	e.transmitForwarded(category, decrementedCopy(raw), pkt.Basic.Lifetime)
	return nil
}

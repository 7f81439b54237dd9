package forwarding

import (
	"time"

	"github.com/veloce-go/geonet/coreerr"
	"github.com/veloce-go/geonet/security"
	"github.com/veloce-go/geonet/wire"
)

// ageOf returns how long ago a position vector's wrapped millisecond
// timestamp was taken, tolerating the ~49.7-day (2^32 ms) wraparound
// the same way wire.SequenceNumber tolerates its 2^16 wraparound.
func ageOf(ts uint32, now time.Time) time.Duration {
	nowMillis := uint32(now.UnixMilli())
	delta := int32(nowMillis - ts)
	if delta < 0 {
		delta = 0
	}
	return time.Duration(delta) * time.Millisecond
}

// tsNewerThan reports whether a is strictly newer than b, using the
// same wraparound-tolerant comparison as ageOf.
func tsNewerThan(a, b uint32) bool {
	return int32(a-b) > 0
}

// Ingress decodes and processes one received frame, applying the
// common ingress steps (§4.8: parse, security verify, location table
// update, duplicate detection) before dispatching to the per-type
// policy. raw is retained for any forwarding decision: a forwarded
// packet is re-transmitted by patching the cleartext basic header's
// hop limit in place, never by re-encoding from the parsed struct, so
// a secured packet's envelope passes through forwarding untouched.
func (e *Engine) Ingress(raw []byte, now time.Time) error {
	pkt, err := e.decode(raw, now)
	if err != nil {
		return e.drop("decode", err)
	}
	return e.ingressPacket(pkt, raw, now)
}

// decrementedCopy returns a copy of raw with the basic header's
// remaining-hop-limit byte decremented, leaving everything else —
// including an inner secured envelope — untouched.
func decrementedCopy(raw []byte) []byte {
	out := append([]byte(nil), raw...)
	if len(out) >= wire.BasicHeaderLen {
		out[3]--
	}
	return out
}

func (e *Engine) decode(raw []byte, now time.Time) (wire.Packet, error) {
	basic, err := wire.ParseBasicHeader(raw)
	if err != nil {
		return wire.Packet{}, err
	}
	if basic.NextHeader == wire.NextHeaderSecured {
		return e.decodeSecured(basic, raw[wire.BasicHeaderLen:])
	}
	return wire.ParsePacket(raw)
}

// decodeSecured unwraps a secured envelope and re-parses its payload
// as a common-header-onward packet body, by synthesizing a basic
// header with NextHeaderCommon around it. The envelope's own wire
// layout has no external specification to match (ASN.1 is out of
// scope), so this is an internal layering convention rather than a
// bit-exact reproduction of anything.
func (e *Engine) decodeSecured(basic wire.BasicHeader, rest []byte) (wire.Packet, error) {
	if e.cfg.Verifier == nil {
		return wire.Packet{}, coreerr.New(coreerr.SecurityFailure, "forwarding: secured packet received with no verifier configured")
	}

	env, err := security.UnmarshalEnvelope(rest)
	if err != nil {
		return wire.Packet{}, err
	}

	var permission security.Permission
	ageBound := security.DefaultCertInclusionInterval * 4
	if e.cfg.Security != nil {
		permission = e.cfg.Security.Permission(env.PSID)
		ageBound = e.cfg.Security.FreshnessBound(env.PSID)
	}

	payload, requestInclusion, err := e.cfg.Verifier.Verify(env, permission, ageBound)
	if err != nil {
		kind := coreerr.SecurityFailure
		if ce, ok := err.(*coreerr.Error); ok {
			kind = ce.Kind
		}
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.VerifyFailKind(kind)
		}
		if requestInclusion && e.cfg.Signer != nil {
			e.cfg.Signer.RequestCertInclusion()
		}
		return wire.Packet{}, err
	}

	inner := make([]byte, wire.BasicHeaderLen+len(payload))
	synthetic := wire.BasicHeader{
		Version:           wire.ProtocolVersion,
		NextHeader:        wire.NextHeaderCommon,
		Lifetime:          basic.Lifetime,
		RemainingHopLimit: basic.RemainingHopLimit,
	}
	synthetic.Emit(inner[:wire.BasicHeaderLen])
	copy(inner[wire.BasicHeaderLen:], payload)

	return wire.ParsePacket(inner)
}

func (e *Engine) ingressPacket(pkt wire.Packet, raw []byte, now time.Time) error {
	pos := pkt.SourcePosition()
	addr := pos.Address.LLAddr

	if addr == e.cfg.Self.LLAddr {
		return nil // our own transmission, overheard on the shared medium
	}

	isNeighbour := pkt.Body.Type == wire.PacketSingleHopBroadcast ||
		ageOf(pos.Timestamp, now) <= e.cfg.NeighbourLifetime

	seq, hasSeq := pkt.Sequence()

	if !hasSeq {
		if prev, ok := e.loctable.Find(addr); ok && !tsNewerThan(pos.Timestamp, prev.Position.Timestamp) {
			return e.drop("stale beacon timestamp", coreerr.New(coreerr.Stale, "forwarding: position vector not newer than entry on file"))
		}
	}

	if err := e.loctable.Update(pos, isNeighbour); err != nil && !coreerr.Is(err, coreerr.Stale) {
		return e.drop("location table update", err)
	}

	var duplicate bool
	if hasSeq {
		duplicate = e.loctable.IsDuplicate(addr, seq)
	}

	e.onLocationUpdate(now)

	return e.applyPolicy(pkt, raw, duplicate, now)
}

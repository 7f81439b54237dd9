package forwarding

import (
	"time"

	logpkg "github.com/veloce-go/geonet/log"
	"github.com/veloce-go/geonet/wire"
)

// defaultLifetime is used for originated traffic whose caller does
// not specify one.
const defaultLifetime = 1 * time.Second

// defaultMaxHopLimit bounds originated traffic absent an
// application-supplied hop limit.
const defaultMaxHopLimit = 15

// frame encodes pkt for transmission, wrapping it in a secured
// envelope when the configured security policy requires one for this
// packet type (§4.6). Forwarded packets never pass through here —
// only locally originated ones — so an existing envelope is never
// double-wrapped.
func (e *Engine) frame(pkt wire.Packet) []byte {
	plain := make([]byte, pkt.Len())
	pkt.Emit(plain)

	if e.cfg.Security == nil || e.cfg.Signer == nil || !e.cfg.Security.Required(pkt.Body.Type) {
		return plain
	}

	psid := e.cfg.Security.PSIDFor(pkt.Body.Type)
	env, err := e.cfg.Signer.Sign(plain[wire.BasicHeaderLen:], psid)
	if err != nil {
		e.log.ERROR("forwarding", "sign failed", logpkg.KV{"error": err.Error()})
		return plain
	}
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.SignOperations.Inc()
	}

	envBytes, err := env.MarshalBinary()
	if err != nil {
		e.log.ERROR("forwarding", "envelope encode failed", logpkg.KV{"error": err.Error()})
		return plain
	}

	secured := make([]byte, wire.BasicHeaderLen+len(envBytes))
	basic := pkt.Basic
	basic.NextHeader = wire.NextHeaderSecured
	basic.Emit(secured[:wire.BasicHeaderLen])
	copy(secured[wire.BasicHeaderLen:], envBytes)
	return secured
}

// OriginateGUC sends payload to dest. If dest's position is already
// known, it is addressed and forwarded immediately (§4.8.1); otherwise
// a Location Service query is submitted and payload is buffered
// awaiting the reply (§4.5). The result is true when payload was handed
// to forwarding at once and false when it was buffered.
func (e *Engine) OriginateGUC(dest wire.LLAddr, payload []byte, lifetime time.Duration, now time.Time) (bool, error) {
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}

	entry, known := e.loctable.Find(dest)
	if !known {
		_, err := e.submitLocationQuery(dest, payload, lifetime)
		return false, err
	}

	e.originateGUCTo(dest, entry.Position, payload, lifetime, now)
	return true, nil
}

// originateGUC replays a payload once its target's position has
// become known, called from handleLSReply.
func (e *Engine) originateGUC(dest wire.LLAddr, payload []byte, now time.Time) {
	entry, known := e.loctable.Find(dest)
	if !known {
		return
	}
	e.originateGUCTo(dest, entry.Position, payload, defaultLifetime, now)
}

func (e *Engine) originateGUCTo(dest wire.LLAddr, destPos wire.LongPositionVector, payload []byte, lifetime time.Duration, now time.Time) {
	seq := e.nextSequence()
	self := e.cfg.Position()

	pkt := wire.Packet{
		Basic: wire.BasicHeader{
			Version:           wire.ProtocolVersion,
			NextHeader:        wire.NextHeaderCommon,
			Lifetime:          lifetime,
			RemainingHopLimit: defaultMaxHopLimit,
		},
		Common: wire.CommonHeader{
			NextHeader:    wire.UpperBTPB,
			Type:          wire.PacketGeoUnicast,
			TrafficClass:  wire.TrafficClass{DCCProfile: uint8(wire.AccessBestEffort)},
			PayloadLength: uint16(len(payload)),
			MaxHopLimit:   defaultMaxHopLimit,
		},
		Body: wire.Body{
			Type: wire.PacketGeoUnicast,
			GeoUnicast: &wire.GeoUnicast{
				Sequence:    seq,
				Source:      self,
				Destination: destPos,
			},
		},
		Payload: payload,
	}

	framed := e.frame(pkt)
	e.forwardTowards(dest, destPos, framed, wire.AccessBestEffort, lifetime, now)
}

// OriginateSHB broadcasts payload to directly-reachable neighbours
// only; never forwarded further (§4.8).
func (e *Engine) OriginateSHB(payload []byte, lifetime time.Duration) {
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	self := e.cfg.Position()

	pkt := wire.Packet{
		Basic: wire.BasicHeader{
			Version:           wire.ProtocolVersion,
			NextHeader:        wire.NextHeaderCommon,
			Lifetime:          lifetime,
			RemainingHopLimit: 1,
		},
		Common: wire.CommonHeader{
			NextHeader:    wire.UpperBTPB,
			Type:          wire.PacketSingleHopBroadcast,
			TrafficClass:  wire.TrafficClass{DCCProfile: uint8(wire.AccessVideo)},
			PayloadLength: uint16(len(payload)),
			MaxHopLimit:   1,
		},
		Body: wire.Body{
			Type:      wire.PacketSingleHopBroadcast,
			SingleHop: &wire.SingleHopBroadcast{Source: self},
		},
		Payload: payload,
	}

	e.transmitForwarded(wire.AccessVideo, e.frame(pkt), lifetime)
}

// OriginateGBC floods payload to every station inside area, as
// contention-based or simple broadcast (GBC) or anycast (GAC)
// depending on anycast (§4.8.2).
func (e *Engine) OriginateGBC(area wire.GeoArea, anycast bool, payload []byte, lifetime time.Duration) {
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	seq := e.nextSequence()
	self := e.cfg.Position()

	t := gbcTypeFor(area.Shape, anycast)

	pkt := wire.Packet{
		Basic: wire.BasicHeader{
			Version:           wire.ProtocolVersion,
			NextHeader:        wire.NextHeaderCommon,
			Lifetime:          lifetime,
			RemainingHopLimit: defaultMaxHopLimit,
		},
		Common: wire.CommonHeader{
			NextHeader:    wire.UpperBTPB,
			Type:          t,
			TrafficClass:  wire.TrafficClass{DCCProfile: uint8(wire.AccessVideo)},
			PayloadLength: uint16(len(payload)),
			MaxHopLimit:   defaultMaxHopLimit,
		},
		Body: wire.Body{
			Type:         t,
			GeoBroadcast: &wire.GeoBroadcast{Sequence: seq, Source: self, Area: area},
		},
		Payload: payload,
	}

	e.transmitForwarded(wire.AccessVideo, e.frame(pkt), lifetime)
}

func gbcTypeFor(shape wire.Shape, anycast bool) wire.PacketType {
	switch shape {
	case wire.ShapeRectangle:
		if anycast {
			return wire.PacketGeoAnycastRect
		}
		return wire.PacketGeoBroadcastRect
	case wire.ShapeEllipse:
		if anycast {
			return wire.PacketGeoAnycastEllipse
		}
		return wire.PacketGeoBroadcastEllipse
	default:
		if anycast {
			return wire.PacketGeoAnycastCircle
		}
		return wire.PacketGeoBroadcastCircle
	}
}

// submitLocationQuery hands payload to the Location Service and, when
// this is the first outstanding request for dest, broadcasts a fresh
// Location Service Request (§4.5).
func (e *Engine) submitLocationQuery(dest wire.LLAddr, payload []byte, lifetime time.Duration) (broadcast bool, err error) {
	broadcast, err = e.locserv.Submit(dest, payload, lifetime)
	if err != nil {
		return false, err
	}
	if broadcast {
		e.broadcastLocationServiceRequest(dest)
	}
	return broadcast, nil
}

// broadcastLocationServiceRequest originates a fresh Location Service
// Request for target, flooded like a TSB (§4.8, Location Service).
func (e *Engine) broadcastLocationServiceRequest(target wire.LLAddr) {
	seq := e.nextSequence()
	self := e.cfg.Position()

	pkt := wire.Packet{
		Basic: wire.BasicHeader{
			Version:           wire.ProtocolVersion,
			NextHeader:        wire.NextHeaderCommon,
			Lifetime:          defaultLifetime,
			RemainingHopLimit: defaultMaxHopLimit,
		},
		Common: wire.CommonHeader{
			NextHeader:   wire.UpperAny,
			Type:         wire.PacketLocationServiceRequest,
			TrafficClass: wire.TrafficClass{DCCProfile: uint8(wire.AccessVoice)},
			MaxHopLimit:  defaultMaxHopLimit,
		},
		Body: wire.Body{
			Type: wire.PacketLocationServiceRequest,
			LSRequest: &wire.LocationServiceRequest{
				Sequence: seq,
				Source:   self,
				Requested: wire.Address{
					StationType: e.cfg.Self.StationType,
					LLAddr:      target,
				},
			},
		},
	}

	e.transmitForwarded(wire.AccessVoice, e.frame(pkt), defaultLifetime)
}

// replyToLocationRequest answers a Location Service Request addressed
// to self with a Location Service Reply, flooded like a TSB (§4.5).
func (e *Engine) replyToLocationRequest(now time.Time) error {
	seq := e.nextSequence()
	self := e.cfg.Position()

	reply := wire.Packet{
		Basic: wire.BasicHeader{
			Version:           wire.ProtocolVersion,
			NextHeader:        wire.NextHeaderCommon,
			Lifetime:          defaultLifetime,
			RemainingHopLimit: defaultMaxHopLimit,
		},
		Common: wire.CommonHeader{
			NextHeader:   wire.UpperAny,
			Type:         wire.PacketLocationServiceReply,
			TrafficClass: wire.TrafficClass{DCCProfile: uint8(wire.AccessVoice)},
			MaxHopLimit:  defaultMaxHopLimit,
		},
		Body: wire.Body{
			Type:    wire.PacketLocationServiceReply,
			LSReply: &wire.LocationServiceReply{Sequence: seq, Source: self, Target: self},
		},
	}

	e.transmitForwarded(wire.AccessVoice, e.frame(reply), defaultLifetime)
	return nil
}

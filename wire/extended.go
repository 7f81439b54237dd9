package wire

// Extended headers follow the common header and carry the per-packet-type
// fields (§3, §4.8). Each type's Parse/Emit pair works on the extended
// header's own bytes only — the caller slices the common header off first.

// BeaconLen is the wire size of a beacon extended header: just the
// sender's long position vector.
const BeaconLen = LongPositionVectorLen

// Beacon carries the sender's position, used purely for location table
// maintenance (§4.8).
type Beacon struct {
	Source LongPositionVector
}

func ParseBeacon(b []byte) (Beacon, error) {
	lpv, err := ParseLongPositionVector(b)
	if err != nil {
		return Beacon{}, err
	}
	return Beacon{Source: lpv}, nil
}

func (h Beacon) Emit(b []byte) { h.Source.Emit(b) }

// guUnicastFixedLen is the fixed portion ahead of the destination's long
// position vector: sequence(2) + reserved(2) + source LPV.
const guUnicastFixedLen = 2 + 2 + LongPositionVectorLen

// GeoUnicastLen is the wire size of a GUC extended header.
const GeoUnicastLen = guUnicastFixedLen + LongPositionVectorLen

// GeoUnicast addresses a single known station by its last-reported
// position vector (§4.8).
type GeoUnicast struct {
	Sequence    SequenceNumber
	Source      LongPositionVector
	Destination LongPositionVector
}

func ParseGeoUnicast(b []byte) (GeoUnicast, error) {
	if len(b) < GeoUnicastLen {
		return GeoUnicast{}, NewMalformed("geo unicast: short buffer", 0)
	}

	seq := SequenceNumber(ntohs(b[0:2]))
	src, err := ParseLongPositionVector(b[4:guUnicastFixedLen])
	if err != nil {
		return GeoUnicast{}, err
	}
	dst, err := ParseLongPositionVector(b[guUnicastFixedLen:GeoUnicastLen])
	if err != nil {
		return GeoUnicast{}, err
	}

	return GeoUnicast{Sequence: seq, Source: src, Destination: dst}, nil
}

func (h GeoUnicast) Emit(b []byte) {
	seq := htons(uint16(h.Sequence))
	copy(b[0:2], seq[:])
	b[2], b[3] = 0, 0
	h.Source.Emit(b[4:guUnicastFixedLen])
	h.Destination.Emit(b[guUnicastFixedLen:GeoUnicastLen])
}

// gbcFixedLen is sequence(2) + reserved(2) + source LPV, ahead of the
// GeoArea fragment shared by GBC and GAC.
const gbcFixedLen = 2 + 2 + LongPositionVectorLen

// GeoBroadcastLen is the wire size of a GBC/GAC extended header.
const GeoBroadcastLen = gbcFixedLen + GeoAreaLen

// GeoBroadcast is shared by geographically-scoped broadcast (GBC) and
// anycast (GAC): flood (or deliver-once, for GAC) to every station inside
// Area (§4.8).
type GeoBroadcast struct {
	Sequence SequenceNumber
	Source   LongPositionVector
	Area     GeoArea
}

func ParseGeoBroadcast(b []byte, shape Shape) (GeoBroadcast, error) {
	if len(b) < GeoBroadcastLen {
		return GeoBroadcast{}, NewMalformed("geo broadcast: short buffer", 0)
	}

	seq := SequenceNumber(ntohs(b[0:2]))
	src, err := ParseLongPositionVector(b[4:gbcFixedLen])
	if err != nil {
		return GeoBroadcast{}, err
	}
	area, err := ParseGeoArea(b[gbcFixedLen:GeoBroadcastLen], shape)
	if err != nil {
		return GeoBroadcast{}, err
	}

	return GeoBroadcast{Sequence: seq, Source: src, Area: area}, nil
}

func (h GeoBroadcast) Emit(b []byte) {
	seq := htons(uint16(h.Sequence))
	copy(b[0:2], seq[:])
	b[2], b[3] = 0, 0
	h.Source.Emit(b[4:gbcFixedLen])
	h.Area.Emit(b[gbcFixedLen:GeoBroadcastLen])
}

// TopoBroadcastLen is the wire size of a TSB extended header: sequence(2)
// + reserved(2) + source LPV.
const TopoBroadcastLen = 2 + 2 + LongPositionVectorLen

// TopoBroadcast floods within a fixed hop count regardless of geography
// (§4.8), used for both single-hop and multi-hop variants.
type TopoBroadcast struct {
	Sequence SequenceNumber
	Source   LongPositionVector
}

func ParseTopoBroadcast(b []byte) (TopoBroadcast, error) {
	if len(b) < TopoBroadcastLen {
		return TopoBroadcast{}, NewMalformed("topo broadcast: short buffer", 0)
	}

	seq := SequenceNumber(ntohs(b[0:2]))
	src, err := ParseLongPositionVector(b[4:TopoBroadcastLen])
	if err != nil {
		return TopoBroadcast{}, err
	}

	return TopoBroadcast{Sequence: seq, Source: src}, nil
}

func (h TopoBroadcast) Emit(b []byte) {
	seq := htons(uint16(h.Sequence))
	copy(b[0:2], seq[:])
	b[2], b[3] = 0, 0
	h.Source.Emit(b[4:TopoBroadcastLen])
}

// SingleHopBroadcastLen is the wire size of an SHB extended header: the
// source LPV alone, no sequence number (single-hop, never forwarded).
const SingleHopBroadcastLen = LongPositionVectorLen

// SingleHopBroadcast reaches only directly-reachable neighbours; never
// forwarded (§4.8).
type SingleHopBroadcast struct {
	Source LongPositionVector
}

func ParseSingleHopBroadcast(b []byte) (SingleHopBroadcast, error) {
	lpv, err := ParseLongPositionVector(b)
	if err != nil {
		return SingleHopBroadcast{}, err
	}
	return SingleHopBroadcast{Source: lpv}, nil
}

func (h SingleHopBroadcast) Emit(b []byte) { h.Source.Emit(b) }

// lsFixedLen is sequence(2) + reserved(2), ahead of the source LPV in
// both LS Request and LS Reply.
const lsFixedLen = 2 + 2

// LocationServiceRequestLen is sequence(2) + reserved(2) + source LPV +
// requested Address.
const LocationServiceRequestLen = lsFixedLen + LongPositionVectorLen + AddressLen

// LocationServiceRequest asks the network to resolve Requested to a
// current position vector (§4.8, Location Service).
type LocationServiceRequest struct {
	Sequence  SequenceNumber
	Source    LongPositionVector
	Requested Address
}

func ParseLocationServiceRequest(b []byte) (LocationServiceRequest, error) {
	if len(b) < LocationServiceRequestLen {
		return LocationServiceRequest{}, NewMalformed("ls request: short buffer", 0)
	}

	seq := SequenceNumber(ntohs(b[0:2]))
	src, err := ParseLongPositionVector(b[4 : 4+LongPositionVectorLen])
	if err != nil {
		return LocationServiceRequest{}, err
	}
	req, err := ParseAddress(b[4+LongPositionVectorLen : LocationServiceRequestLen])
	if err != nil {
		return LocationServiceRequest{}, err
	}

	return LocationServiceRequest{Sequence: seq, Source: src, Requested: req}, nil
}

func (h LocationServiceRequest) Emit(b []byte) {
	seq := htons(uint16(h.Sequence))
	copy(b[0:2], seq[:])
	b[2], b[3] = 0, 0
	h.Source.Emit(b[4 : 4+LongPositionVectorLen])
	h.Requested.Emit(b[4+LongPositionVectorLen : LocationServiceRequestLen])
}

// LocationServiceReplyLen is sequence(2) + reserved(2) + source LPV +
// target LPV.
const LocationServiceReplyLen = lsFixedLen + LongPositionVectorLen + LongPositionVectorLen

// LocationServiceReply answers a LocationServiceRequest with the
// responder's own current position vector (§4.8, Location Service).
type LocationServiceReply struct {
	Sequence SequenceNumber
	Source   LongPositionVector
	Target   LongPositionVector
}

func ParseLocationServiceReply(b []byte) (LocationServiceReply, error) {
	if len(b) < LocationServiceReplyLen {
		return LocationServiceReply{}, NewMalformed("ls reply: short buffer", 0)
	}

	seq := SequenceNumber(ntohs(b[0:2]))
	src, err := ParseLongPositionVector(b[4 : 4+LongPositionVectorLen])
	if err != nil {
		return LocationServiceReply{}, err
	}
	tgt, err := ParseLongPositionVector(b[4+LongPositionVectorLen : LocationServiceReplyLen])
	if err != nil {
		return LocationServiceReply{}, err
	}

	return LocationServiceReply{Sequence: seq, Source: src, Target: tgt}, nil
}

func (h LocationServiceReply) Emit(b []byte) {
	seq := htons(uint16(h.Sequence))
	copy(b[0:2], seq[:])
	b[2], b[3] = 0, 0
	h.Source.Emit(b[4 : 4+LongPositionVectorLen])
	h.Target.Emit(b[4+LongPositionVectorLen : LocationServiceReplyLen])
}

package wire

// Packet is a fully-parsed GeoNetworking packet: basic header, common
// header, the extended header selected by the common header's PacketType,
// and the upper-layer payload (§4.1, §9 design note). Exactly one of the
// Body fields is meaningful, selected by Common.Type.
type Packet struct {
	Basic  BasicHeader
	Common CommonHeader
	Body   Body
	Payload []byte
}

// Body is the sum of every extended-header shape a Packet can carry.
// Exactly one field is populated, per Type.
type Body struct {
	Type PacketType

	Beacon        *Beacon
	GeoUnicast    *GeoUnicast
	GeoBroadcast  *GeoBroadcast
	TopoBroadcast *TopoBroadcast
	SingleHop     *SingleHopBroadcast
	LSRequest     *LocationServiceRequest
	LSReply       *LocationServiceReply
}

// extendedLen returns the wire size of the extended header for t, or -1
// if t is not a recognised packet type.
func extendedLen(t PacketType) int {
	switch t {
	case PacketBeacon:
		return BeaconLen
	case PacketGeoUnicast:
		return GeoUnicastLen
	case PacketGeoBroadcastCircle, PacketGeoBroadcastRect, PacketGeoBroadcastEllipse,
		PacketGeoAnycastCircle, PacketGeoAnycastRect, PacketGeoAnycastEllipse:
		return GeoBroadcastLen
	case PacketTopoScopeBroadcastSingleHop, PacketTopoScopeBroadcastMultiHop:
		return TopoBroadcastLen
	case PacketSingleHopBroadcast:
		return SingleHopBroadcastLen
	case PacketLocationServiceRequest:
		return LocationServiceRequestLen
	case PacketLocationServiceReply:
		return LocationServiceReplyLen
	}
	return -1
}

func shapeOf(t PacketType) Shape {
	switch t {
	case PacketGeoBroadcastRect, PacketGeoAnycastRect:
		return ShapeRectangle
	case PacketGeoBroadcastEllipse, PacketGeoAnycastEllipse:
		return ShapeEllipse
	}
	return ShapeCircle
}

// ParsePacket decodes a complete packet from b: basic header, common
// header, the extended header selected by the common header's type, and
// whatever payload bytes follow (per Common.PayloadLength). Any structural
// inconsistency yields a Malformed error and the packet must be dropped,
// never partially processed (§4.1, §7).
func ParsePacket(b []byte) (Packet, error) {
	basic, err := ParseBasicHeader(b)
	if err != nil {
		return Packet{}, err
	}
	if basic.Version != ProtocolVersion {
		return Packet{}, NewMalformed("basic header: unsupported protocol version", 0)
	}
	if basic.NextHeader != NextHeaderCommon {
		return Packet{}, NewMalformed("basic header: unsupported next header for this profile", 0)
	}

	rest := b[BasicHeaderLen:]
	common, err := ParseCommonHeader(rest)
	if err != nil {
		return Packet{}, err
	}

	extLen := extendedLen(common.Type)
	if extLen < 0 {
		return Packet{}, NewMalformed("common header: unhandled packet type", BasicHeaderLen)
	}

	extBytes := rest[CommonHeaderLen:]
	if len(extBytes) < extLen {
		return Packet{}, NewMalformed("extended header: short buffer", BasicHeaderLen+CommonHeaderLen)
	}

	body, err := parseBody(common.Type, extBytes[:extLen])
	if err != nil {
		return Packet{}, err
	}

	payloadStart := BasicHeaderLen + CommonHeaderLen + extLen
	payloadEnd := payloadStart + int(common.PayloadLength)
	if payloadEnd > len(b) {
		return Packet{}, NewMalformed("payload: declared length exceeds buffer", payloadStart)
	}

	return Packet{
		Basic:   basic,
		Common:  common,
		Body:    body,
		Payload: b[payloadStart:payloadEnd],
	}, nil
}

func parseBody(t PacketType, b []byte) (Body, error) {
	switch t {
	case PacketBeacon:
		h, err := ParseBeacon(b)
		if err != nil {
			return Body{}, err
		}
		return Body{Type: t, Beacon: &h}, nil

	case PacketGeoUnicast:
		h, err := ParseGeoUnicast(b)
		if err != nil {
			return Body{}, err
		}
		return Body{Type: t, GeoUnicast: &h}, nil

	case PacketGeoBroadcastCircle, PacketGeoBroadcastRect, PacketGeoBroadcastEllipse,
		PacketGeoAnycastCircle, PacketGeoAnycastRect, PacketGeoAnycastEllipse:
		h, err := ParseGeoBroadcast(b, shapeOf(t))
		if err != nil {
			return Body{}, err
		}
		return Body{Type: t, GeoBroadcast: &h}, nil

	case PacketTopoScopeBroadcastSingleHop, PacketTopoScopeBroadcastMultiHop:
		h, err := ParseTopoBroadcast(b)
		if err != nil {
			return Body{}, err
		}
		return Body{Type: t, TopoBroadcast: &h}, nil

	case PacketSingleHopBroadcast:
		h, err := ParseSingleHopBroadcast(b)
		if err != nil {
			return Body{}, err
		}
		return Body{Type: t, SingleHop: &h}, nil

	case PacketLocationServiceRequest:
		h, err := ParseLocationServiceRequest(b)
		if err != nil {
			return Body{}, err
		}
		return Body{Type: t, LSRequest: &h}, nil

	case PacketLocationServiceReply:
		h, err := ParseLocationServiceReply(b)
		if err != nil {
			return Body{}, err
		}
		return Body{Type: t, LSReply: &h}, nil
	}

	return Body{}, NewMalformed("unhandled packet type", 0)
}

// Len returns the total wire size of p, basic+common+extended+payload.
func (p Packet) Len() int {
	return BasicHeaderLen + CommonHeaderLen + extendedLen(p.Body.Type) + len(p.Payload)
}

// Emit encodes p into b, which must be at least p.Len() bytes.
func (p Packet) Emit(b []byte) {
	p.Basic.Emit(b[0:BasicHeaderLen])
	p.Common.Emit(b[BasicHeaderLen : BasicHeaderLen+CommonHeaderLen])

	extStart := BasicHeaderLen + CommonHeaderLen
	extLen := extendedLen(p.Body.Type)
	ext := b[extStart : extStart+extLen]

	switch p.Body.Type {
	case PacketBeacon:
		p.Body.Beacon.Emit(ext)
	case PacketGeoUnicast:
		p.Body.GeoUnicast.Emit(ext)
	case PacketGeoBroadcastCircle, PacketGeoBroadcastRect, PacketGeoBroadcastEllipse,
		PacketGeoAnycastCircle, PacketGeoAnycastRect, PacketGeoAnycastEllipse:
		p.Body.GeoBroadcast.Emit(ext)
	case PacketTopoScopeBroadcastSingleHop, PacketTopoScopeBroadcastMultiHop:
		p.Body.TopoBroadcast.Emit(ext)
	case PacketSingleHopBroadcast:
		p.Body.SingleHop.Emit(ext)
	case PacketLocationServiceRequest:
		p.Body.LSRequest.Emit(ext)
	case PacketLocationServiceReply:
		p.Body.LSReply.Emit(ext)
	}

	copy(b[extStart+extLen:], p.Payload)
}

// SourcePosition returns the originating station's long position vector,
// present on every packet type this profile handles.
func (p Packet) SourcePosition() LongPositionVector {
	switch p.Body.Type {
	case PacketBeacon:
		return p.Body.Beacon.Source
	case PacketGeoUnicast:
		return p.Body.GeoUnicast.Source
	case PacketGeoBroadcastCircle, PacketGeoBroadcastRect, PacketGeoBroadcastEllipse,
		PacketGeoAnycastCircle, PacketGeoAnycastRect, PacketGeoAnycastEllipse:
		return p.Body.GeoBroadcast.Source
	case PacketTopoScopeBroadcastSingleHop, PacketTopoScopeBroadcastMultiHop:
		return p.Body.TopoBroadcast.Source
	case PacketSingleHopBroadcast:
		return p.Body.SingleHop.Source
	case PacketLocationServiceRequest:
		return p.Body.LSRequest.Source
	case PacketLocationServiceReply:
		return p.Body.LSReply.Source
	}
	return LongPositionVector{}
}

// Sequence returns the packet's sequence number, for types that carry one
// (everything except Beacon and SingleHopBroadcast, which are never
// forwarded and so need no duplicate-detection key). ok is false for
// types without one.
func (p Packet) Sequence() (seq SequenceNumber, ok bool) {
	switch p.Body.Type {
	case PacketGeoUnicast:
		return p.Body.GeoUnicast.Sequence, true
	case PacketGeoBroadcastCircle, PacketGeoBroadcastRect, PacketGeoBroadcastEllipse,
		PacketGeoAnycastCircle, PacketGeoAnycastRect, PacketGeoAnycastEllipse:
		return p.Body.GeoBroadcast.Sequence, true
	case PacketTopoScopeBroadcastSingleHop, PacketTopoScopeBroadcastMultiHop:
		return p.Body.TopoBroadcast.Sequence, true
	case PacketLocationServiceRequest:
		return p.Body.LSRequest.Sequence, true
	case PacketLocationServiceReply:
		return p.Body.LSReply.Sequence, true
	}
	return 0, false
}

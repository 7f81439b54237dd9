package wire

import "time"

// ProtocolVersion is the GeoNetworking protocol version this codec speaks.
const ProtocolVersion = 1

// NextHeader discriminates the basic header's payload (§6).
type NextHeader uint8

const (
	NextHeaderAny NextHeader = iota
	NextHeaderCommon
	NextHeaderSecured
)

// BasicHeaderLen is the wire size of the basic header (§6).
const BasicHeaderLen = 4

// BasicHeader is the outermost header on every packet: protocol version,
// next-header discriminator, lifetime, and remaining hop limit (§3, §6).
type BasicHeader struct {
	Version            uint8
	NextHeader         NextHeader
	Lifetime           time.Duration
	RemainingHopLimit  uint8
}

// lifetimeBases are the four multiplier bases the GN_LT field encodes
// (§6: "Lifetime encodes a multiplier×base value giving 0-630s"). Only
// the first three are used in this profile; base index 3 is reserved so
// that the documented 0-630s range is not exceeded.
var lifetimeBases = [4]time.Duration{
	50 * time.Millisecond,
	1 * time.Second,
	10 * time.Second,
	100 * time.Second,
}

// EncodeLifetime encodes d as value×base using the coarsest of the
// three usable bases for which the value is at least 1, rounding down,
// so the decoded lifetime never exceeds d and falls short of it by less
// than one unit of the chosen base. Lifetimes above 630s saturate at
// 630s.
func EncodeLifetime(d time.Duration) byte {
	if d <= 0 {
		return 0
	}

	var bestMult, bestVal int
	for mult := len(lifetimeBases) - 2; mult >= 0; mult-- { // index 3 is reserved
		base := lifetimeBases[mult]
		val := int(d / base)
		if val < 1 {
			continue
		}
		if val > 63 {
			val = 63
		}
		bestMult, bestVal = mult, val
		break
	}

	return byte(bestMult<<6) | byte(bestVal&0x3F)
}

// DecodeLifetime reverses EncodeLifetime.
func DecodeLifetime(b byte) time.Duration {
	mult := (b >> 6) & 0x03
	val := b & 0x3F
	return lifetimeBases[mult] * time.Duration(val)
}

// ParseBasicHeader decodes a BasicHeader from the first BasicHeaderLen
// bytes of b.
func ParseBasicHeader(b []byte) (BasicHeader, error) {
	if len(b) < BasicHeaderLen {
		return BasicHeader{}, NewMalformed("basic header: short buffer", 0)
	}

	version := b[0] >> 4
	nh := NextHeader(b[0] & 0x0F)
	if nh > NextHeaderSecured {
		return BasicHeader{}, NewMalformed("basic header: unrecognised next header", 0)
	}

	return BasicHeader{
		Version:           version,
		NextHeader:        nh,
		Lifetime:          DecodeLifetime(b[2]),
		RemainingHopLimit: b[3],
	}, nil
}

// Emit encodes h into the first BasicHeaderLen bytes of b.
func (h BasicHeader) Emit(b []byte) {
	b[0] = h.Version<<4 | byte(h.NextHeader)&0x0F
	b[1] = 0
	b[2] = EncodeLifetime(h.Lifetime)
	b[3] = h.RemainingHopLimit
}

// PacketType is the common header's header_type:header_sub_type pair,
// identifying the packet's extended-header variant (§4.8).
type PacketType uint8

const (
	PacketBeacon PacketType = iota
	PacketGeoUnicast
	PacketGeoBroadcastCircle
	PacketGeoBroadcastRect
	PacketGeoBroadcastEllipse
	PacketGeoAnycastCircle
	PacketGeoAnycastRect
	PacketGeoAnycastEllipse
	PacketTopoScopeBroadcastSingleHop
	PacketTopoScopeBroadcastMultiHop
	PacketLocationServiceRequest
	PacketLocationServiceReply
	PacketSingleHopBroadcast
)

// headerType/headerSubType split PacketType into the common header's two
// 4-bit fields, matching the ETSI header_type/header_sub_type split.
func (t PacketType) headerType() uint8 {
	switch t {
	case PacketBeacon:
		return 0
	case PacketGeoUnicast:
		return 1
	case PacketGeoAnycastCircle, PacketGeoAnycastRect, PacketGeoAnycastEllipse:
		return 2
	case PacketGeoBroadcastCircle, PacketGeoBroadcastRect, PacketGeoBroadcastEllipse:
		return 3
	case PacketTopoScopeBroadcastSingleHop, PacketTopoScopeBroadcastMultiHop:
		return 4
	case PacketLocationServiceRequest, PacketLocationServiceReply:
		return 5
	case PacketSingleHopBroadcast:
		return 6
	}
	return 0xF
}

func (t PacketType) headerSubType() uint8 {
	switch t {
	case PacketGeoAnycastCircle, PacketGeoBroadcastCircle:
		return 0
	case PacketGeoAnycastRect, PacketGeoBroadcastRect:
		return 1
	case PacketGeoAnycastEllipse, PacketGeoBroadcastEllipse:
		return 2
	case PacketTopoScopeBroadcastSingleHop:
		return 0
	case PacketTopoScopeBroadcastMultiHop:
		return 1
	case PacketLocationServiceRequest:
		return 0
	case PacketLocationServiceReply:
		return 1
	}
	return 0
}

func packetTypeFrom(headerType, headerSubType uint8) (PacketType, error) {
	switch headerType {
	case 0:
		return PacketBeacon, nil
	case 1:
		return PacketGeoUnicast, nil
	case 2:
		switch headerSubType {
		case 0:
			return PacketGeoAnycastCircle, nil
		case 1:
			return PacketGeoAnycastRect, nil
		case 2:
			return PacketGeoAnycastEllipse, nil
		}
	case 3:
		switch headerSubType {
		case 0:
			return PacketGeoBroadcastCircle, nil
		case 1:
			return PacketGeoBroadcastRect, nil
		case 2:
			return PacketGeoBroadcastEllipse, nil
		}
	case 4:
		switch headerSubType {
		case 0:
			return PacketTopoScopeBroadcastSingleHop, nil
		case 1:
			return PacketTopoScopeBroadcastMultiHop, nil
		}
	case 5:
		switch headerSubType {
		case 0:
			return PacketLocationServiceRequest, nil
		case 1:
			return PacketLocationServiceReply, nil
		}
	case 6:
		return PacketSingleHopBroadcast, nil
	}
	return 0, NewMalformed("common header: unrecognised header type/sub-type", 1)
}

// UpperProtocol discriminates the common header's upper-layer payload.
type UpperProtocol uint8

const (
	UpperAny UpperProtocol = iota
	UpperBTPA
	UpperBTPB
	UpperIPv6
)

// CommonHeaderLen is the wire size of the common header (§6).
const CommonHeaderLen = 8

// CommonHeader carries the upper-protocol discriminator, packet type,
// traffic class, mobility flag, payload length, and max hop limit (§3, §6).
type CommonHeader struct {
	NextHeader    UpperProtocol
	Type          PacketType
	TrafficClass  TrafficClass
	Mobile        bool
	PayloadLength uint16
	MaxHopLimit   uint8
}

// ParseCommonHeader decodes a CommonHeader from the first CommonHeaderLen
// bytes of b.
func ParseCommonHeader(b []byte) (CommonHeader, error) {
	if len(b) < CommonHeaderLen {
		return CommonHeader{}, NewMalformed("common header: short buffer", 0)
	}

	nh := UpperProtocol(b[0] >> 4)
	if b[0]&0x0F != 0 {
		return CommonHeader{}, NewMalformed("common header: reserved nibble set", 0)
	}

	pt, err := packetTypeFrom(b[1]>>4, b[1]&0x0F)
	if err != nil {
		return CommonHeader{}, err
	}

	if b[3]&0x7F != 0 {
		return CommonHeader{}, NewMalformed("common header: reserved flag bits set", 3)
	}

	return CommonHeader{
		NextHeader:    nh,
		Type:          pt,
		TrafficClass:  ParseTrafficClass(b[2]),
		Mobile:        b[3]&0x80 != 0,
		PayloadLength: ntohs(b[4:6]),
		MaxHopLimit:   b[6],
		// b[7] reserved
	}, nil
}

// Emit encodes h into the first CommonHeaderLen bytes of b.
func (h CommonHeader) Emit(b []byte) {
	b[0] = byte(h.NextHeader) << 4
	b[1] = h.Type.headerType()<<4 | h.Type.headerSubType()&0x0F
	b[2] = h.TrafficClass.Byte()
	b[3] = 0
	if h.Mobile {
		b[3] |= 0x80
	}
	payloadLen := htons(h.PayloadLength)
	copy(b[4:6], payloadLen[:])
	b[6] = h.MaxHopLimit
	b[7] = 0
}

package wire

import "math"

// LongPositionVectorLen is the wire size of a long position vector:
// Address(8) + Timestamp(4) + Latitude(4) + Longitude(4) + Speed(2) + Heading(2).
const LongPositionVectorLen = AddressLen + 4 + 4 + 4 + 2 + 2

// ShortPositionVectorLen is the wire size of a short position vector:
// Address(8) + Timestamp(4) + Latitude(4) + Longitude(4) + flags(1), no
// speed or heading.
const ShortPositionVectorLen = AddressLen + 4 + 4 + 4 + 1

// headingAccuracyBit is the top bit of the 16-bit heading field, used to
// carry the positional-accuracy flag alongside heading in a long position
// vector (the heading value itself never exceeds 3599, i.e. 12 bits).
const headingAccuracyBit = 1 << 15

// LongPositionVector is the fundamental addressing primitive (§3): station
// identity, a protocol-epoch timestamp, latitude/longitude in tenths of a
// microdegree, a positional-accuracy flag, speed (0.01 m/s) and heading
// (0.1 degree).
type LongPositionVector struct {
	Address   Address
	Timestamp uint32 // ms since protocol epoch, mod 2^32
	Latitude  int32  // 1/10 microdegree
	Longitude int32  // 1/10 microdegree
	Accurate  bool
	Speed     int16  // 0.01 m/s
	Heading   uint16 // 0.1 degree
}

// Short returns the short position vector derived from v (omits speed and
// heading).
func (v LongPositionVector) Short() ShortPositionVector {
	return ShortPositionVector{
		Address:   v.Address,
		Timestamp: v.Timestamp,
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		Accurate:  v.Accurate,
	}
}

// ParseLongPositionVector decodes a LongPositionVector from b.
func ParseLongPositionVector(b []byte) (LongPositionVector, error) {
	if len(b) < LongPositionVectorLen {
		return LongPositionVector{}, NewMalformed("long position vector: short buffer", 0)
	}

	addr, err := ParseAddress(b[0:AddressLen])
	if err != nil {
		return LongPositionVector{}, err
	}

	o := AddressLen
	ts := ntohl(b[o : o+4])
	lat := int32(ntohl(b[o+4 : o+8]))
	lon := int32(ntohl(b[o+8 : o+12]))
	raw := ntohs(b[o+12 : o+14])
	speed := int16(raw)
	rawHeading := ntohs(b[o+14 : o+16])

	return LongPositionVector{
		Address:   addr,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		Accurate:  rawHeading&headingAccuracyBit != 0,
		Speed:     speed,
		Heading:   rawHeading &^ headingAccuracyBit,
	}, nil
}

// Emit encodes v into the first LongPositionVectorLen bytes of b.
func (v LongPositionVector) Emit(b []byte) {
	v.Address.Emit(b[0:AddressLen])

	o := AddressLen
	ts, lat, lon := htonl(v.Timestamp), htonl(uint32(v.Latitude)), htonl(uint32(v.Longitude))
	speed := htons(uint16(v.Speed))
	copy(b[o:o+4], ts[:])
	copy(b[o+4:o+8], lat[:])
	copy(b[o+8:o+12], lon[:])
	copy(b[o+12:o+14], speed[:])

	h := v.Heading &^ headingAccuracyBit
	if v.Accurate {
		h |= headingAccuracyBit
	}
	heading := htons(h)
	copy(b[o+14:o+16], heading[:])
}

// ShortPositionVector omits speed and heading relative to LongPositionVector.
type ShortPositionVector struct {
	Address   Address
	Timestamp uint32
	Latitude  int32
	Longitude int32
	Accurate  bool
}

// ParseShortPositionVector decodes a ShortPositionVector from b.
func ParseShortPositionVector(b []byte) (ShortPositionVector, error) {
	if len(b) < ShortPositionVectorLen {
		return ShortPositionVector{}, NewMalformed("short position vector: short buffer", 0)
	}

	addr, err := ParseAddress(b[0:AddressLen])
	if err != nil {
		return ShortPositionVector{}, err
	}

	o := AddressLen
	ts := ntohl(b[o : o+4])
	lat := int32(ntohl(b[o+4 : o+8]))
	lon := int32(ntohl(b[o+8 : o+12]))
	flags := b[o+12]

	return ShortPositionVector{
		Address:   addr,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		Accurate:  flags&0x01 != 0,
	}, nil
}

// Emit encodes v into the first ShortPositionVectorLen bytes of b.
func (v ShortPositionVector) Emit(b []byte) {
	v.Address.Emit(b[0:AddressLen])

	o := AddressLen
	ts, lat, lon := htonl(v.Timestamp), htonl(uint32(v.Latitude)), htonl(uint32(v.Longitude))
	copy(b[o:o+4], ts[:])
	copy(b[o+4:o+8], lat[:])
	copy(b[o+8:o+12], lon[:])

	var flags byte
	if v.Accurate {
		flags |= 0x01
	}
	b[o+12] = flags
}

// LatitudeDegrees returns the latitude in degrees.
func (v LongPositionVector) LatitudeDegrees() float64 { return float64(v.Latitude) * 1e-7 }

// LongitudeDegrees returns the longitude in degrees.
func (v LongPositionVector) LongitudeDegrees() float64 { return float64(v.Longitude) * 1e-7 }

// TenthMicrodegree converts a value in degrees to the wire's 1/10
// microdegree signed integer units.
func TenthMicrodegree(degrees float64) int32 {
	return int32(math.Round(degrees * 1e7))
}

package wire

import "math"

// Shape is the GeoArea's geometry discriminator (§3).
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeRectangle
	ShapeEllipse
)

// GeoAreaLen is the wire size of a GeoArea extended-header fragment:
// center latitude(4) + longitude(4) + distance A(2) + distance B(2) +
// angle(2) + reserved(2).
const GeoAreaLen = 16

// GeoArea is a shape, a center position, and an orientation angle (§3).
// DistanceA is the circle radius, or the rectangle/ellipse semi-major
// axis; DistanceB is the rectangle/ellipse semi-minor axis (unused for
// circles).
type GeoArea struct {
	Shape      Shape
	Latitude   int32 // center, 1/10 microdegree
	Longitude  int32
	DistanceA  uint16 // meters
	DistanceB  uint16 // meters
	AngleTenth uint16 // 0.1 degree, orientation of the major axis from north
}

// ParseGeoArea decodes a GeoArea from b. The shape must be supplied by the
// caller since it is carried in the common header's header_sub_type, not
// inside the GeoArea fragment itself.
func ParseGeoArea(b []byte, shape Shape) (GeoArea, error) {
	if len(b) < GeoAreaLen {
		return GeoArea{}, NewMalformed("geoarea: short buffer", 0)
	}

	return GeoArea{
		Shape:      shape,
		Latitude:   int32(ntohl(b[0:4])),
		Longitude:  int32(ntohl(b[4:8])),
		DistanceA:  ntohs(b[8:10]),
		DistanceB:  ntohs(b[10:12]),
		AngleTenth: ntohs(b[12:14]),
		// b[14:16] reserved
	}, nil
}

// Emit encodes a into the first GeoAreaLen bytes of b.
func (a GeoArea) Emit(b []byte) {
	lat, lon := htonl(uint32(a.Latitude)), htonl(uint32(a.Longitude))
	distA, distB, angle := htons(a.DistanceA), htons(a.DistanceB), htons(a.AngleTenth)
	copy(b[0:4], lat[:])
	copy(b[4:8], lon[:])
	copy(b[8:10], distA[:])
	copy(b[10:12], distB[:])
	copy(b[12:14], angle[:])
	b[14] = 0
	b[15] = 0
}

// point is a lat/lon pair in degrees, local-flat-earth projected to
// meters around the area's center for the containment tests below. The
// GeoNetworking areas involved are local (tens of kilometers at most) so
// an equirectangular projection is an acceptable approximation, the same
// order of simplification the spec's forwarding algorithms make for
// distance-to-destination comparisons.
const earthRadiusM = 6371000.0

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// metersFromCenter returns the local-tangent-plane (x east, y north)
// offset in meters of point (latDeg, lonDeg) from the area's center.
func (a GeoArea) metersFromCenter(latDeg, lonDeg float64) (x, y float64) {
	centerLat := float64(a.Latitude) * 1e-7
	centerLon := float64(a.Longitude) * 1e-7

	dLat := degToRad(latDeg - centerLat)
	dLon := degToRad(lonDeg - centerLon)

	y = dLat * earthRadiusM
	x = dLon * earthRadiusM * math.Cos(degToRad(centerLat))
	return
}

// Inside reports whether the point (latDeg, lonDeg) lies within the
// shape's closed boundary (§3).
func (a GeoArea) Inside(latDeg, lonDeg float64) bool {
	return a.signedMargin(latDeg, lonDeg) <= 0
}

// AtBorder reports whether the point lies within hysteresisM of the
// shape's boundary (§3).
func (a GeoArea) AtBorder(latDeg, lonDeg float64, hysteresisM float64) bool {
	return math.Abs(a.signedMargin(latDeg, lonDeg)) <= hysteresisM
}

// signedMargin returns a signed distance-like quantity: negative or zero
// when the point is inside the shape, positive when outside, and whose
// magnitude is (approximately, for ellipses) the distance in meters to
// the boundary. This lets Inside and AtBorder share one computation.
func (a GeoArea) signedMargin(latDeg, lonDeg float64) float64 {
	x, y := a.metersFromCenter(latDeg, lonDeg)

	// Rotate into the area's own frame so DistanceA/DistanceB align with
	// the rotated major/minor axes; the major axis points north at angle
	// 0 and turns clockwise (toward east) as the angle grows.
	theta := degToRad(float64(a.AngleTenth) / 10)
	rx := x*math.Sin(theta) + y*math.Cos(theta)
	ry := x*math.Cos(theta) - y*math.Sin(theta)

	switch a.Shape {
	case ShapeCircle:
		r := float64(a.DistanceA)
		return math.Hypot(rx, ry) - r

	case ShapeRectangle:
		halfA := float64(a.DistanceA)
		halfB := float64(a.DistanceB)
		dx := math.Abs(rx) - halfA
		dy := math.Abs(ry) - halfB
		if dx <= 0 && dy <= 0 {
			return math.Max(dx, dy)
		}
		outX := math.Max(dx, 0)
		outY := math.Max(dy, 0)
		return math.Hypot(outX, outY)

	case ShapeEllipse:
		a1 := float64(a.DistanceA)
		b1 := float64(a.DistanceB)
		if a1 == 0 || b1 == 0 {
			return math.Inf(1)
		}
		// normalized radius: <=1 inside, >1 outside; scaled back to an
		// approximate meter margin via the mean semi-axis.
		norm := math.Hypot(rx/a1, ry/b1)
		return (norm - 1) * (a1 + b1) / 2
	}

	return math.Inf(1)
}

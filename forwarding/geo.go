package forwarding

import "math"

// earthRadiusM mirrors wire.GeoArea's local-tangent-plane projection
// constant; forwarding's greedy-progress distance comparisons use the
// same equirectangular approximation the wire package uses for
// geofence containment, appropriate at the same local (tens-of-km)
// scale.
const earthRadiusM = 6371000.0

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// distanceM returns the approximate great-circle distance, in meters,
// between two lat/lon points given in degrees.
func distanceM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lon2 - lon1)
	y := dLat * earthRadiusM
	x := dLon * earthRadiusM * math.Cos(degToRad((lat1+lat2)/2))
	return math.Hypot(x, y)
}

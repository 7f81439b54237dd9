package wire

import "testing"

func TestGeoAreaRoundTrip(t *testing.T) {
	a := GeoArea{
		Shape:      ShapeRectangle,
		Latitude:   TenthMicrodegree(48.8566),
		Longitude:  TenthMicrodegree(2.3522),
		DistanceA:  1000,
		DistanceB:  500,
		AngleTenth: 450,
	}

	b := make([]byte, GeoAreaLen)
	a.Emit(b)

	got, err := ParseGeoArea(b, ShapeRectangle)
	if err != nil {
		t.Fatalf("ParseGeoArea() error = %v", err)
	}
	if got != a {
		t.Errorf("ParseGeoArea() = %+v, want %+v", got, a)
	}
}

func TestCircleInside(t *testing.T) {
	a := GeoArea{
		Shape:     ShapeCircle,
		Latitude:  TenthMicrodegree(48.0),
		Longitude: TenthMicrodegree(2.0),
		DistanceA: 1000,
	}

	if !a.Inside(48.0, 2.0) {
		t.Error("center point should be inside")
	}
	if a.Inside(49.0, 2.0) {
		t.Error("point ~111km north should be outside a 1km-radius circle")
	}
}

func TestRectangleInside(t *testing.T) {
	a := GeoArea{
		Shape:     ShapeRectangle,
		Latitude:  TenthMicrodegree(48.0),
		Longitude: TenthMicrodegree(2.0),
		DistanceA: 1000,
		DistanceB: 500,
	}

	if !a.Inside(48.0, 2.0) {
		t.Error("center point should be inside rectangle")
	}
	if a.Inside(48.02, 2.0) {
		t.Error("point ~2.2km north should be outside a 1km half-extent rectangle")
	}
}

func TestEllipseInside(t *testing.T) {
	a := GeoArea{
		Shape:     ShapeEllipse,
		Latitude:  TenthMicrodegree(48.0),
		Longitude: TenthMicrodegree(2.0),
		DistanceA: 1000,
		DistanceB: 500,
	}

	if !a.Inside(48.0, 2.0) {
		t.Error("center point should be inside ellipse")
	}
	if a.Inside(49.0, 2.0) {
		t.Error("far point should be outside ellipse")
	}
}

func TestAtBorderHysteresis(t *testing.T) {
	a := GeoArea{
		Shape:     ShapeCircle,
		Latitude:  TenthMicrodegree(48.0),
		Longitude: TenthMicrodegree(2.0),
		DistanceA: 1000,
	}

	// A point noticeably inside the radius should not register as
	// near the border even with a modest hysteresis band.
	if a.AtBorder(48.0, 2.0, 50) {
		t.Error("center point should not be near the border")
	}
}

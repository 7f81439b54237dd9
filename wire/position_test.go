package wire

import (
	"math"
	"testing"
)

func testAddress() Address {
	return Address{
		StationType: StationPassengerCar,
		LLAddr:      LLAddr{1, 2, 3, 4, 5, 6},
	}
}

func TestLongPositionVectorRoundTrip(t *testing.T) {
	v := LongPositionVector{
		Address:   testAddress(),
		Timestamp: 123456789,
		Latitude:  TenthMicrodegree(48.8566),
		Longitude: TenthMicrodegree(2.3522),
		Accurate:  true,
		Speed:     -250,
		Heading:   1800,
	}

	b := make([]byte, LongPositionVectorLen)
	v.Emit(b)

	got, err := ParseLongPositionVector(b)
	if err != nil {
		t.Fatalf("ParseLongPositionVector() error = %v", err)
	}
	if got != v {
		t.Errorf("ParseLongPositionVector() = %+v, want %+v", got, v)
	}
}

func TestLongPositionVectorHeadingAccuracyBitDoesNotClobberHeading(t *testing.T) {
	v := LongPositionVector{Address: testAddress(), Heading: 3599, Accurate: true}
	b := make([]byte, LongPositionVectorLen)
	v.Emit(b)

	got, err := ParseLongPositionVector(b)
	if err != nil {
		t.Fatalf("ParseLongPositionVector() error = %v", err)
	}
	if got.Heading != 3599 || !got.Accurate {
		t.Errorf("got heading=%d accurate=%v, want heading=3599 accurate=true", got.Heading, got.Accurate)
	}
}

func TestShortPositionVectorRoundTrip(t *testing.T) {
	v := ShortPositionVector{
		Address:   testAddress(),
		Timestamp: 42,
		Latitude:  TenthMicrodegree(-33.8688),
		Longitude: TenthMicrodegree(151.2093),
		Accurate:  false,
	}

	b := make([]byte, ShortPositionVectorLen)
	v.Emit(b)

	got, err := ParseShortPositionVector(b)
	if err != nil {
		t.Fatalf("ParseShortPositionVector() error = %v", err)
	}
	if got != v {
		t.Errorf("ParseShortPositionVector() = %+v, want %+v", got, v)
	}
}

func TestLongPositionVectorShort(t *testing.T) {
	v := LongPositionVector{
		Address:   testAddress(),
		Timestamp: 1,
		Latitude:  10,
		Longitude: 20,
		Accurate:  true,
		Speed:     500,
		Heading:   900,
	}

	short := v.Short()
	want := ShortPositionVector{
		Address:   v.Address,
		Timestamp: v.Timestamp,
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
		Accurate:  v.Accurate,
	}
	if short != want {
		t.Errorf("Short() = %+v, want %+v", short, want)
	}
}

func TestDegreesConversionRoundTrip(t *testing.T) {
	cases := []float64{0, 48.8566, -33.8688, 151.2093, -179.9999999}
	for _, deg := range cases {
		v := LongPositionVector{Latitude: TenthMicrodegree(deg), Longitude: TenthMicrodegree(deg)}
		if math.Abs(v.LatitudeDegrees()-deg) > 1e-6 {
			t.Errorf("LatitudeDegrees() = %v, want ~%v", v.LatitudeDegrees(), deg)
		}
	}
}

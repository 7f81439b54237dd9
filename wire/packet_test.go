package wire

import (
	"bytes"
	"testing"
	"time"
)

func buildPacket(t *testing.T, bodyType PacketType, body Body, payload []byte) []byte {
	t.Helper()

	pkt := Packet{
		Basic: BasicHeader{
			Version:           ProtocolVersion,
			NextHeader:        NextHeaderCommon,
			Lifetime:          1 * time.Second,
			RemainingHopLimit: 10,
		},
		Common: CommonHeader{
			NextHeader:    UpperBTPB,
			Type:          bodyType,
			TrafficClass:  TrafficClass{DCCProfile: 1},
			PayloadLength: uint16(len(payload)),
			MaxHopLimit:   10,
		},
		Body:    body,
		Payload: payload,
	}

	b := make([]byte, pkt.Len())
	pkt.Emit(b)
	return b
}

func TestPacketRoundTripGeoUnicast(t *testing.T) {
	src := LongPositionVector{Address: testAddress(), Timestamp: 1}
	dst := LongPositionVector{Address: testAddress(), Timestamp: 2}
	body := Body{Type: PacketGeoUnicast, GeoUnicast: &GeoUnicast{Sequence: 5, Source: src, Destination: dst}}
	payload := []byte("hello")

	raw := buildPacket(t, PacketGeoUnicast, body, payload)

	got, err := ParsePacket(raw)
	if err != nil {
		t.Fatalf("ParsePacket() error = %v", err)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Errorf("Payload = %q, want %q", got.Payload, payload)
	}
	if got.Body.GeoUnicast == nil || *got.Body.GeoUnicast != *body.GeoUnicast {
		t.Errorf("GeoUnicast body mismatch: %+v", got.Body.GeoUnicast)
	}
	seq, ok := got.Sequence()
	if !ok || seq != 5 {
		t.Errorf("Sequence() = %v, %v, want 5, true", seq, ok)
	}
}

func TestPacketRoundTripBeaconHasNoSequence(t *testing.T) {
	body := Body{Type: PacketBeacon, Beacon: &Beacon{Source: LongPositionVector{Address: testAddress()}}}
	raw := buildPacket(t, PacketBeacon, body, nil)

	got, err := ParsePacket(raw)
	if err != nil {
		t.Fatalf("ParsePacket() error = %v", err)
	}
	if _, ok := got.Sequence(); ok {
		t.Error("beacon should not carry a sequence number")
	}
}

func TestPacketRejectsBadVersion(t *testing.T) {
	body := Body{Type: PacketBeacon, Beacon: &Beacon{Source: LongPositionVector{Address: testAddress()}}}
	raw := buildPacket(t, PacketBeacon, body, nil)
	raw[0] = (raw[0] &^ 0xF0) | (2 << 4) // version 2

	if _, err := ParsePacket(raw); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestPacketRejectsTruncatedPayload(t *testing.T) {
	body := Body{Type: PacketBeacon, Beacon: &Beacon{Source: LongPositionVector{Address: testAddress()}}}
	raw := buildPacket(t, PacketBeacon, body, []byte("payload"))

	if _, err := ParsePacket(raw[:len(raw)-2]); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestPacketSourcePositionGeoBroadcast(t *testing.T) {
	src := LongPositionVector{Address: testAddress(), Timestamp: 77}
	body := Body{Type: PacketGeoBroadcastCircle, GeoBroadcast: &GeoBroadcast{
		Sequence: 1,
		Source:   src,
		Area:     GeoArea{Shape: ShapeCircle, DistanceA: 100},
	}}
	raw := buildPacket(t, PacketGeoBroadcastCircle, body, nil)

	got, err := ParsePacket(raw)
	if err != nil {
		t.Fatalf("ParsePacket() error = %v", err)
	}
	if got.SourcePosition() != src {
		t.Errorf("SourcePosition() = %+v, want %+v", got.SourcePosition(), src)
	}
}

package forwarding

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/veloce-go/geonet/cbf"
	"github.com/veloce-go/geonet/wire"
)

func ucastPacket(seq wire.SequenceNumber, src, dst wire.LongPositionVector, payload []byte, hopLimit uint8) wire.Packet {
	return wire.Packet{
		Basic: wire.BasicHeader{
			Version:           wire.ProtocolVersion,
			NextHeader:        wire.NextHeaderCommon,
			Lifetime:          time.Second,
			RemainingHopLimit: hopLimit,
		},
		Common: wire.CommonHeader{
			NextHeader:    wire.UpperBTPB,
			Type:          wire.PacketGeoUnicast,
			TrafficClass:  wire.TrafficClass{DCCProfile: uint8(wire.AccessBestEffort)},
			PayloadLength: uint16(len(payload)),
			MaxHopLimit:   hopLimit,
		},
		Body:    wire.Body{Type: wire.PacketGeoUnicast, GeoUnicast: &wire.GeoUnicast{Sequence: seq, Source: src, Destination: dst}},
		Payload: payload,
	}
}

func TestHandleGUCDeliversToSelf(t *testing.T) {
	mock := clock.NewMock()
	self := testPosition(1, 48.0, 11.0, 0)
	e, h := newTestEngine(t, mock, 1, self)

	remote := testPosition(9, 47.0, 10.0, uint32(mock.Now().UnixMilli()))
	pkt := ucastPacket(1, remote, self, []byte("payload"), 5)
	raw := buildRaw(t, pkt)

	require.NoError(t, e.Ingress(raw, mock.Now()))
	require.Equal(t, [][]byte{[]byte("payload")}, h.delivered)
	require.Empty(t, h.sent, "delivered locally, never forwarded")
}

func TestHandleGUCForwardsTowardCloserNeighbour(t *testing.T) {
	mock := clock.NewMock()
	self := testPosition(1, 48.0, 11.0, 0)
	e, h := newTestEngine(t, mock, 1, self)

	now := mock.Now()
	// A neighbour strictly closer to dest than self offers progress.
	neighbour := testPosition(2, 48.0005, 11.0, uint32(now.UnixMilli()))
	neighbourBeacon := buildRaw(t, wire.Packet{
		Basic:  wire.BasicHeader{Version: wire.ProtocolVersion, NextHeader: wire.NextHeaderCommon, RemainingHopLimit: 1},
		Common: wire.CommonHeader{NextHeader: wire.UpperBTPB, Type: wire.PacketSingleHopBroadcast, MaxHopLimit: 1},
		Body:   wire.Body{Type: wire.PacketSingleHopBroadcast, SingleHop: &wire.SingleHopBroadcast{Source: neighbour}},
	})
	require.NoError(t, e.Ingress(neighbourBeacon, now))
	h.sent, h.delivered = nil, nil // discard the neighbour SHB's local delivery and any echo bookkeeping

	dest := testPosition(3, 48.001, 11.0, uint32(now.UnixMilli()))
	remote := testPosition(9, 47.0, 10.0, uint32(now.UnixMilli()))
	pkt := ucastPacket(1, remote, dest, []byte("forward me"), 5)
	raw := buildRaw(t, pkt)

	require.NoError(t, e.Ingress(raw, now))
	require.Empty(t, h.delivered, "not addressed to self")
	require.Len(t, h.sent, 1)
	require.Equal(t, raw[3]-1, h.sent[0][3], "hop limit decremented by one")
}

func TestHandleGUCBuffersForStoreCarryWhenNoProgress(t *testing.T) {
	mock := clock.NewMock()
	self := testPosition(1, 48.0, 11.0, 0)
	e, h := newTestEngine(t, mock, 1, self)

	now := mock.Now()
	dest := testPosition(3, 60.0, 30.0, uint32(now.UnixMilli())) // far away, no known neighbour offers progress
	remote := testPosition(9, 47.0, 10.0, uint32(now.UnixMilli()))
	pkt := ucastPacket(1, remote, dest, []byte("buffer me"), 5)
	raw := buildRaw(t, pkt)

	require.NoError(t, e.Ingress(raw, now))
	require.Empty(t, h.sent)
	require.Equal(t, 1, e.scf.Len())

	// Dest becomes a direct neighbour: the next location update must flush it.
	destAsNeighbour := testPosition(3, 60.0, 30.0, uint32(now.UnixMilli()))
	becomeNeighbour := buildRaw(t, wire.Packet{
		Basic:  wire.BasicHeader{Version: wire.ProtocolVersion, NextHeader: wire.NextHeaderCommon, RemainingHopLimit: 1},
		Common: wire.CommonHeader{NextHeader: wire.UpperBTPB, Type: wire.PacketSingleHopBroadcast, MaxHopLimit: 1},
		Body:   wire.Body{Type: wire.PacketSingleHopBroadcast, SingleHop: &wire.SingleHopBroadcast{Source: destAsNeighbour}},
	})
	require.NoError(t, e.Ingress(becomeNeighbour, now))

	require.Equal(t, 0, e.scf.Len())
	require.NotEmpty(t, h.sent, "buffered payload flushed once destination became reachable")
}

func gbcPacket(seq wire.SequenceNumber, src wire.LongPositionVector, area wire.GeoArea, anycast bool, payload []byte, hopLimit uint8) wire.Packet {
	t := wire.PacketGeoBroadcastCircle
	if anycast {
		t = wire.PacketGeoAnycastCircle
	}
	return wire.Packet{
		Basic: wire.BasicHeader{
			Version:           wire.ProtocolVersion,
			NextHeader:        wire.NextHeaderCommon,
			Lifetime:          time.Second,
			RemainingHopLimit: hopLimit,
		},
		Common: wire.CommonHeader{
			NextHeader:    wire.UpperBTPB,
			Type:          t,
			TrafficClass:  wire.TrafficClass{DCCProfile: uint8(wire.AccessVideo)},
			PayloadLength: uint16(len(payload)),
			MaxHopLimit:   hopLimit,
		},
		Body:    wire.Body{Type: t, GeoBroadcast: &wire.GeoBroadcast{Sequence: seq, Source: src, Area: area}},
		Payload: payload,
	}
}

func TestHandleGBCDeliversInsideAreaAndFloods(t *testing.T) {
	mock := clock.NewMock()
	self := testPosition(1, 48.0, 11.0, 0)
	e, h := newTestEngine(t, mock, 1, self)
	e.cfg.GBCMode = GBCSimpleFlood

	area := wire.GeoArea{Shape: wire.ShapeCircle, Latitude: wire.TenthMicrodegree(48.0), Longitude: wire.TenthMicrodegree(11.0), DistanceA: 1000}
	remote := testPosition(9, 47.0, 10.0, uint32(mock.Now().UnixMilli()))
	raw := buildRaw(t, gbcPacket(1, remote, area, false, []byte("area message"), 5))

	require.NoError(t, e.Ingress(raw, mock.Now()))
	require.Equal(t, [][]byte{[]byte("area message")}, h.delivered)
	require.Len(t, h.sent, 1, "GBC keeps flooding after local delivery")
}

func TestHandleGACStopsPropagatingAfterDelivery(t *testing.T) {
	mock := clock.NewMock()
	self := testPosition(1, 48.0, 11.0, 0)
	e, h := newTestEngine(t, mock, 1, self)

	area := wire.GeoArea{Shape: wire.ShapeCircle, Latitude: wire.TenthMicrodegree(48.0), Longitude: wire.TenthMicrodegree(11.0), DistanceA: 1000}
	remote := testPosition(9, 47.0, 10.0, uint32(mock.Now().UnixMilli()))
	raw := buildRaw(t, gbcPacket(1, remote, area, true, []byte("anycast message"), 5))

	require.NoError(t, e.Ingress(raw, mock.Now()))
	require.Equal(t, [][]byte{[]byte("anycast message")}, h.delivered)
	require.Empty(t, h.sent, "anycast stops once delivered to one station inside the area")
}

func TestHandleGBCContentionHoldsThenFires(t *testing.T) {
	mock := clock.NewMock()
	self := testPosition(1, 48.0, 11.0, 0)
	e, h := newTestEngine(t, mock, 1, self)

	// Outside the area so it isn't delivered here, only forwarded.
	area := wire.GeoArea{Shape: wire.ShapeCircle, Latitude: wire.TenthMicrodegree(10.0), Longitude: wire.TenthMicrodegree(10.0), DistanceA: 100}
	remote := testPosition(9, 47.0, 10.0, uint32(mock.Now().UnixMilli()))
	raw := buildRaw(t, gbcPacket(1, remote, area, false, []byte("far area"), 5))

	require.NoError(t, e.Ingress(raw, mock.Now()))
	require.Empty(t, h.sent, "held for contention, not fired yet")
	require.Equal(t, 1, e.cbf.Len())

	mock.Add(cbf.MaxCBFTime + time.Millisecond)
	require.Len(t, h.sent, 1, "contention timer elapsed, rebroadcast fired")
}

func TestHandleGBCDuplicateCancelsContention(t *testing.T) {
	mock := clock.NewMock()
	self := testPosition(1, 48.0, 11.0, 0)
	e, h := newTestEngine(t, mock, 1, self)

	area := wire.GeoArea{Shape: wire.ShapeCircle, Latitude: wire.TenthMicrodegree(10.0), Longitude: wire.TenthMicrodegree(10.0), DistanceA: 100}
	remote := testPosition(9, 47.0, 10.0, uint32(mock.Now().UnixMilli()))
	pkt := gbcPacket(1, remote, area, false, []byte("far area"), 5)
	raw := buildRaw(t, pkt)

	require.NoError(t, e.Ingress(raw, mock.Now()))
	require.Equal(t, 1, e.cbf.Len())

	// Overhear the same (source, sequence) again: cancels the pending timer
	// and reports the duplicate as a drop.
	require.Error(t, e.Ingress(raw, mock.Now()))
	require.Equal(t, 0, e.cbf.Len())

	mock.Add(cbf.MaxCBFTime + time.Millisecond)
	require.Empty(t, h.sent, "cancelled entry never fires")
}

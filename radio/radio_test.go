package radio

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEthernetFrameRoundTrip(t *testing.T) {
	dst := net.HardwareAddr{1, 2, 3, 4, 5, 6}
	src := net.HardwareAddr{6, 5, 4, 3, 2, 1}
	payload := []byte("geonetworking payload")

	frame, err := EthernetFrame(dst, src, payload)
	require.NoError(t, err)

	gotDst, gotSrc, gotPayload, err := ParseEthernetFrame(frame)
	require.NoError(t, err)
	require.Equal(t, dst, gotDst)
	require.Equal(t, src, gotSrc)
	require.Equal(t, payload, gotPayload)
}

func TestParseEthernetFrameRejectsWrongEthertype(t *testing.T) {
	frame := make([]byte, 20)
	frame[12] = 0x08
	frame[13] = 0x00 // IPv4, not GeoNetworking

	_, _, _, err := ParseEthernetFrame(frame)
	require.Error(t, err)
}

func TestDot11pFrameRoundTrip(t *testing.T) {
	payload := []byte("over the air")
	frame := Dot11pFrame(payload)

	got, err := ParseDot11pFrame(frame)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestParseDot11pFrameRejectsWrongHeader(t *testing.T) {
	_, err := ParseDot11pFrame([]byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3})
	require.Error(t, err)
}

func TestMockReceiveAndTransmit(t *testing.T) {
	dev := NewMock(Capabilities{Medium: MediumEthernet, MTU: 1500})

	rx, _, ok := dev.Receive(0)
	require.False(t, ok, "nothing injected yet")
	require.Nil(t, rx)

	dev.Inject([]byte("hello"))
	rx, tx, ok := dev.Receive(0)
	require.True(t, ok)

	frame, err := rx.Consume()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), frame)

	_, err = rx.Consume()
	require.Error(t, err, "a token may only be consumed once")

	require.NoError(t, tx.Consume([]byte("reply")))
	require.Equal(t, [][]byte{[]byte("reply")}, dev.Sent())
}

func TestMockTransmitDeniedWhenMediumBusy(t *testing.T) {
	dev := NewMock(Capabilities{Medium: Medium80211p, MTU: 1500})
	dev.SetCanTx(false)

	_, ok := dev.Transmit(0)
	require.False(t, ok)
}

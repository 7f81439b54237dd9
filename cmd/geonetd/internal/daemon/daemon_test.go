package daemon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veloce-go/geonet/config"
	"github.com/veloce-go/geonet/dcc"
)

func TestStationAddressRejectsMalformedID(t *testing.T) {
	_, err := stationAddress("not-hex")
	require.Error(t, err)

	addr, err := stationAddress("aabbccddeeff")
	require.NoError(t, err)
	require.Equal(t, [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, [6]byte(addr.LLAddr))
}

func TestGBCModeForDefaultsToContentionBased(t *testing.T) {
	require.Equal(t, 0, int(gbcModeFor("")))
	require.Equal(t, 1, int(gbcModeFor("simple")))
}

func TestMetricsPortFallsBackWhenUnset(t *testing.T) {
	cfg := &config.Config{}
	require.Equal(t, 9100, metricsPort(cfg))

	cfg.IPCPublisherPort = 4801
	require.Equal(t, 4801, metricsPort(cfg))
}

func TestCongestionControlForMapsEverySelection(t *testing.T) {
	require.Equal(t, dcc.ModeNone, congestionControlFor(config.CongestionControlNone))
	require.Equal(t, dcc.ModeLimeric, congestionControlFor(config.CongestionControlLimeric))
	require.Equal(t, dcc.ModeLimericDualAlpha, congestionControlFor(config.CongestionControlLimericDualAlpha))
	require.Equal(t, dcc.ModeLimericDualAlpha, congestionControlFor(""), "unrecognised values fall back to the historical default")
}

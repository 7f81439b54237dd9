package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "geonetd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
station_id: aabbccddeeff
interface:
  kind: ethernet
  address: eth0
security:
  storage_path: /var/lib/geonet/certs
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, GNSSFixed, cfg.GNSSSource)
	require.Equal(t, CongestionControlLimericDualAlpha, cfg.CongestionControl)
	require.Equal(t, PrivacyStrategyNone, cfg.Privacy.Strategy)
	require.Equal(t, "ethernet", cfg.Interface.Kind)
}

func TestLoadRejectsMissingStoragePath(t *testing.T) {
	path := writeConfig(t, `
station_id: aabbccddeeff
interface:
  kind: ethernet
  address: eth0
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnrecognisedCongestionControl(t *testing.T) {
	path := writeConfig(t, `
station_id: aabbccddeeff
interface:
  kind: ethernet
  address: eth0
security:
  storage_path: /var/lib/geonet/certs
congestion_control: made_up
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRequiresPositiveThresholdForThresholdStrategy(t *testing.T) {
	cfg := &Config{
		StationID:         "aabbccddeeff",
		Interface:         Interface{Kind: "ethernet"},
		GNSSSource:        GNSSFixed,
		CongestionControl: CongestionControlLimeric,
		Security:          SecurityConfig{StoragePath: "/tmp"},
		Privacy:           PrivacyConfig{Strategy: PrivacyStrategyThreshold, Threshold: 0},
	}
	require.Error(t, cfg.Validate())

	cfg.Privacy.Threshold = 5
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsMalformedStationID(t *testing.T) {
	cfg := &Config{
		StationID:         "not-hex-not-12",
		Interface:         Interface{Kind: "ethernet"},
		GNSSSource:        GNSSFixed,
		CongestionControl: CongestionControlLimeric,
		Security:          SecurityConfig{StoragePath: "/tmp"},
		Privacy:           PrivacyConfig{Strategy: PrivacyStrategyNone},
	}
	require.Error(t, cfg.Validate())

	cfg.StationID = "aabbccddeeff"
	require.NoError(t, cfg.Validate())
}

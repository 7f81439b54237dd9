// Package config loads and validates the core's configuration surface
// (§6): everything the forwarding engine itself consumes. The PKI
// enrolment client, GNSS source, IPC bus, and radio peripheral named in
// the configuration surface remain external collaborators — this
// package only parses and validates their selection, never owns them.
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/veloce-go/geonet/forwarding"
)

// Stage identifies which major setup step a fatal startup error
// occurred in, used to pick the process exit code (§6: "non-zero
// categorises failures at each major setup stage").
type Stage int

const (
	StageConfigLoad Stage = iota + 1
	StageDeviceOpen
	StageSecurityInit
	StageForwardingStart
)

// ExitCode returns the process exit code for a fatal failure at stage.
func (s Stage) ExitCode() int { return int(s) }

// CongestionControl selects the DCC rate-control algorithm (§4.7).
type CongestionControl string

const (
	CongestionControlNone             CongestionControl = "none"
	CongestionControlLimeric          CongestionControl = "limeric"
	CongestionControlLimericDualAlpha CongestionControl = "limeric_dual_alpha"
)

// GNSSSource selects where position fixes come from. The source
// itself is an external collaborator; this only names the selection.
type GNSSSource string

const (
	GNSSFixed          GNSSSource = "fixed"
	GNSSServer         GNSSSource = "server"
	GNSSRecordedReplay GNSSSource = "recorded-replay"
)

// PrivacyStrategyKind selects an AT rotation strategy (§4.6.1).
type PrivacyStrategyKind string

const (
	PrivacyStrategyNone      PrivacyStrategyKind = "none"
	PrivacyStrategyThreshold PrivacyStrategyKind = "threshold"
	PrivacyStrategyCar2Car   PrivacyStrategyKind = "car2car"
)

// Interface names the radio kind and address the core binds to (§6:
// "interface: radio kind and its address").
type Interface struct {
	Kind    string `mapstructure:"kind"`
	Address string `mapstructure:"address"`
}

// FixedPosition is the static position reported when gnss_source is
// "fixed" — a bench/demo stand-in for a live GNSS receiver, which
// remains an external collaborator for every other source kind.
type FixedPosition struct {
	LatitudeDegrees  float64 `mapstructure:"latitude_degrees"`
	LongitudeDegrees float64 `mapstructure:"longitude_degrees"`
}

// SecurityConfig holds the certificate store location and the
// passphrase protecting private keys at rest (§6).
type SecurityConfig struct {
	StoragePath string `mapstructure:"storage_path"`
	Secret      string `mapstructure:"secret"`
}

// PrivacyConfig selects and parameterises the AT rotation strategy.
type PrivacyConfig struct {
	Strategy  PrivacyStrategyKind `mapstructure:"strategy"`
	Threshold int                 `mapstructure:"threshold"`
	Seed      int64               `mapstructure:"seed"`
}

// Config is the core's entire configuration surface (§6).
type Config struct {
	StationID         string            `mapstructure:"station_id"`
	Interface         Interface         `mapstructure:"interface"`
	GNSSSource        GNSSSource        `mapstructure:"gnss_source"`
	FixedPosition     FixedPosition     `mapstructure:"fixed_position"`
	CongestionControl CongestionControl `mapstructure:"congestion_control"`
	Privacy           PrivacyConfig     `mapstructure:"privacy"`
	Security          SecurityConfig    `mapstructure:"security"`
	IPCPublisherPort  int               `mapstructure:"ipc_publisher_port"`
	IPCReplierPort    int               `mapstructure:"ipc_replier_port"`
	PIDFilePath       string            `mapstructure:"pid_file_path"`

	NeighbourLifetime     time.Duration `mapstructure:"neighbour_lifetime"`
	StoreCarryLifetime    time.Duration `mapstructure:"store_carry_lifetime"`
	LocationTableLifetime time.Duration `mapstructure:"location_table_lifetime"`
	LocationTableCapacity int           `mapstructure:"location_table_capacity"`
	GBCMode               string        `mapstructure:"gbc_mode"`
}

// setDefaults installs defaults before a file/env layer is applied,
// taking the neighbour, store-carry and location-table values from
// forwarding.Default*, so an unset key never zero-values a tunable the
// engine treats specially.
func setDefaults(v *viper.Viper) {
	v.SetDefault("gnss_source", string(GNSSFixed))
	v.SetDefault("congestion_control", string(CongestionControlLimericDualAlpha))
	v.SetDefault("privacy.strategy", string(PrivacyStrategyNone))
	v.SetDefault("ipc_publisher_port", 0)
	v.SetDefault("ipc_replier_port", 0)
	v.SetDefault("neighbour_lifetime", forwarding.DefaultNeighbourLifetime)
	v.SetDefault("store_carry_lifetime", forwarding.DefaultStoreCarryLifetime)
	v.SetDefault("location_table_lifetime", forwarding.DefaultLocationTableLifetime)
	v.SetDefault("location_table_capacity", forwarding.DefaultLocationTableCapacity)
	v.SetDefault("gbc_mode", "contention")
	v.SetDefault("fixed_position.latitude_degrees", 0.0)
	v.SetDefault("fixed_position.longitude_degrees", 0.0)
}

// Load reads configuration from path (any format viper recognises —
// YAML, JSON, TOML) layered over environment variables prefixed
// GEONET_, and the package defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("geonet")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects a configuration the engine cannot safely start
// with. It does not reach into external collaborators (radio open,
// GNSS connect, PKI enrolment) — those failures surface later, at
// their own setup stage.
func (c *Config) Validate() error {
	switch c.GNSSSource {
	case GNSSFixed, GNSSServer, GNSSRecordedReplay:
	default:
		return fmt.Errorf("config: unrecognised gnss_source %q", c.GNSSSource)
	}

	switch c.CongestionControl {
	case CongestionControlNone, CongestionControlLimeric, CongestionControlLimericDualAlpha:
	default:
		return fmt.Errorf("config: unrecognised congestion_control %q", c.CongestionControl)
	}

	switch c.Privacy.Strategy {
	case PrivacyStrategyNone:
	case PrivacyStrategyThreshold:
		if c.Privacy.Threshold <= 0 {
			return fmt.Errorf("config: privacy.threshold must be positive for the threshold strategy")
		}
	case PrivacyStrategyCar2Car:
	default:
		return fmt.Errorf("config: unrecognised privacy.strategy %q", c.Privacy.Strategy)
	}

	if c.Security.StoragePath == "" {
		return fmt.Errorf("config: security.storage_path is required")
	}

	if c.Interface.Kind == "" {
		return fmt.Errorf("config: interface.kind is required")
	}

	if len(c.StationID) != 12 {
		return fmt.Errorf("config: station_id must be 12 hex characters (a 6-byte link-layer address)")
	}
	if _, err := hex.DecodeString(c.StationID); err != nil {
		return fmt.Errorf("config: station_id is not valid hex: %w", err)
	}

	return nil
}

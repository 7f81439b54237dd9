package daemon

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/veloce-go/geonet/config"
	"github.com/veloce-go/geonet/dcc"
	"github.com/veloce-go/geonet/forwarding"
	"github.com/veloce-go/geonet/log/zaplog"
	"github.com/veloce-go/geonet/metrics"
	"github.com/veloce-go/geonet/radio"
	"github.com/veloce-go/geonet/wire"
)

// pollInterval drives the cooperative loop's tick rate: frequent enough
// that the DCC gate and the location service's retry schedule (both on
// the order of tens of milliseconds to seconds, §4.7/§4.8) are never
// left waiting much past their due time.
const pollInterval = 10 * time.Millisecond

// serve builds the engine's collaborators from cfg, wires a radio.Mock
// standing in for a live peripheral, and runs the cooperative
// Ingress/PollAt/Poll/Sweep loop until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, demo bool) error {
	if !demo {
		return stageError{config.StageDeviceOpen, fmt.Errorf("daemon: no live radio.Device wiring is built in; an embedder must supply one")}
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		return stageError{config.StageConfigLoad, fmt.Errorf("daemon: build logger: %w", err)}
	}
	defer zlog.Sync() //nolint:errcheck
	logger := zaplog.New(zlog)

	self, err := stationAddress(cfg.StationID)
	if err != nil {
		return stageError{config.StageConfigLoad, err}
	}

	dev := radio.NewMock(radio.Capabilities{Medium: mediumFor(cfg.Interface.Kind), MTU: 1500})

	registry := prometheus.NewRegistry()
	met := metrics.New(registry)

	engineCfg := forwarding.Config{
		Self:     self,
		Position: fixedPositionFunc(self, cfg.FixedPosition),

		NeighbourLifetime:     cfg.NeighbourLifetime,
		StoreCarryLifetime:    cfg.StoreCarryLifetime,
		LocationTableCapacity: cfg.LocationTableCapacity,
		LocationTableLifetime: cfg.LocationTableLifetime,
		GBCMode:               gbcModeFor(cfg.GBCMode),
		CongestionControl:     congestionControlFor(cfg.CongestionControl),

		Deliver: func(payload []byte) {
			logger.DEBUG("daemon", "packet delivered", map[string]any{"bytes": len(payload)})
		},
		Transmit: func(frame []byte) error {
			tok, ok := dev.Transmit(time.Now().UnixNano())
			if !ok {
				return fmt.Errorf("daemon: medium busy")
			}
			return tok.Consume(frame)
		},

		Log:     logger,
		Metrics: met,
	}

	engine, err := forwarding.New(engineCfg)
	if err != nil {
		return stageError{config.StageForwardingStart, err}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", metricsPort(cfg)), Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WARNING("daemon", "metrics server stopped", map[string]any{"error": err.Error()})
		}
	}()
	defer httpServer.Close() //nolint:errcheck

	logger.NOTICE("daemon", "started", map[string]any{
		"station_id": cfg.StationID,
		"demo":       demo,
	})

	runLoop(ctx, engine, dev, logger)

	logger.NOTICE("daemon", "stopped", nil)
	return nil
}

// runLoop is the process's single cooperative scheduling loop (§5): no
// goroutine inside forwarding.Engine ever touches its state directly,
// everything is driven from here.
func runLoop(ctx context.Context, engine *forwarding.Engine, dev *radio.Mock, logger *zaplog.Logger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	sweepEvery := 20
	ticks := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()

			if rx, _, ok := dev.Receive(now.UnixNano()); ok {
				frame, err := rx.Consume()
				if err != nil {
					logger.WARNING("daemon", "rx token consume failed", map[string]any{"error": err.Error()})
				} else if err := engine.Ingress(frame, now); err != nil {
					logger.DEBUG("daemon", "ingress dropped frame", map[string]any{"error": err.Error()})
				}
			}

			engine.Poll(now)

			ticks++
			if ticks%sweepEvery == 0 {
				engine.Sweep()
			}
		}
	}
}

func stationAddress(id string) (wire.Address, error) {
	raw, err := hex.DecodeString(id)
	if err != nil || len(raw) != 6 {
		return wire.Address{}, fmt.Errorf("daemon: station_id must be a 12-character hex MAC address")
	}
	var ll wire.LLAddr
	copy(ll[:], raw)
	return wire.Address{
		StationType:         wire.StationPassengerCar,
		InitiallyConfigured: true,
		LLAddr:              ll,
	}, nil
}

// fixedPositionFunc returns the static position the engine reports as
// its own: real GNSS acquisition is an external collaborator's job
// (§6 Non-goals), so this binary only supports the "fixed" source.
func fixedPositionFunc(self wire.Address, pos config.FixedPosition) func() wire.LongPositionVector {
	return func() wire.LongPositionVector {
		return wire.LongPositionVector{
			Address:   self,
			Timestamp: uint32(time.Now().UnixMilli()),
			Latitude:  wire.TenthMicrodegree(pos.LatitudeDegrees),
			Longitude: wire.TenthMicrodegree(pos.LongitudeDegrees),
			Accurate:  true,
		}
	}
}

func gbcModeFor(mode string) forwarding.GBCMode {
	if mode == "simple" {
		return forwarding.GBCSimpleFlood
	}
	return forwarding.GBCContentionBased
}

func congestionControlFor(cc config.CongestionControl) dcc.Mode {
	switch cc {
	case config.CongestionControlNone:
		return dcc.ModeNone
	case config.CongestionControlLimeric:
		return dcc.ModeLimeric
	default:
		return dcc.ModeLimericDualAlpha
	}
}

func mediumFor(kind string) radio.Medium {
	switch kind {
	case "802.11p":
		return radio.Medium80211p
	case "pc5":
		return radio.MediumPC5
	default:
		return radio.MediumEthernet
	}
}

func metricsPort(cfg *config.Config) int {
	if cfg.IPCPublisherPort > 0 {
		return cfg.IPCPublisherPort
	}
	return 9100
}

// Package forwarding implements the GeoNetworking forwarding engine:
// the packet-type state machine that classifies every ingress packet,
// applies its per-type delivery/forwarding policy, and composes
// outgoing packets for egress through DCC (§4.8).
package forwarding

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/veloce-go/geonet/cbf"
	"github.com/veloce-go/geonet/coreerr"
	"github.com/veloce-go/geonet/dcc"
	"github.com/veloce-go/geonet/loctable"
	"github.com/veloce-go/geonet/locserv"
	logpkg "github.com/veloce-go/geonet/log"
	"github.com/veloce-go/geonet/metrics"
	"github.com/veloce-go/geonet/security"
	"github.com/veloce-go/geonet/wire"
)

// GBCMode selects the forwarding algorithm used for geographically
// scoped broadcast/anycast (§4.8.2: "contention-based or simple;
// selectable").
type GBCMode uint8

const (
	GBCContentionBased GBCMode = iota
	GBCSimpleFlood
)

// Defaults used when a Config leaves a duration unset. The
// specification names these thresholds without fixing a number for
// every deployment (§3, §4.8); these follow the C2C-CC-typical single-
// digit-second range used elsewhere in the corpus's beaconing cadence.
const (
	DefaultNeighbourLifetime   = 1100 * time.Millisecond
	DefaultStoreCarryLifetime  = 10 * time.Second
	DefaultLocationTableLifetime = 20 * time.Second
	DefaultLocationTableCapacity = 4096
	DefaultContentionCapacity    = 256
	DefaultStoreCarryCapacityB   = 512 * 1024
	DefaultDCCPacketDuration     = 1 * time.Millisecond
)

// SecurityPolicy decides whether a packet type requires a secured
// envelope and, if so, which permission and freshness bound apply
// (§4.6: "the age bound varies by application").
type SecurityPolicy interface {
	Required(t wire.PacketType) bool
	Permission(psid uint32) security.Permission
	FreshnessBound(psid uint32) time.Duration
	PSIDFor(t wire.PacketType) uint32
}

// Deliver hands a payload up to a local application socket. Upper-layer
// protocol demultiplexing (BTP-A/B/IPv6, or PSID for a secured packet)
// is the caller's responsibility; the engine only decides whether a
// packet is deliverable, never to whom.
type Deliver func(payload []byte)

// Transmit hands a framed packet down to the radio device.
type Transmit func(frame []byte) error

// Config wires an Engine's collaborators and tunables.
type Config struct {
	Self     wire.Address
	Position func() wire.LongPositionVector

	NeighbourLifetime  time.Duration
	StoreCarryLifetime time.Duration
	GBCMode            GBCMode
	CongestionControl  dcc.Mode

	LocationTableCapacity int
	LocationTableLifetime time.Duration
	ContentionCapacity    int
	StoreCarryCapacityB   int
	DCCPacketDuration     time.Duration

	LocServRetryInterval time.Duration
	LocServMaxRetries    int
	LocServBufferBytes   int

	Security SecurityPolicy // nil disables the secured envelope entirely
	Signer   *security.Signer
	Verifier *security.Verifier

	Deliver  Deliver
	Transmit Transmit

	Clock clock.Clock
	Log   logpkg.Log
	Metrics *metrics.Metrics
}

// Engine is the forwarding engine: the single owner of the location
// table, contention buffer, store-carry-forward buffer, location
// service, and DCC controller, driven by one cooperative event loop
// (§5).
type Engine struct {
	cfg Config

	loctable *loctable.Table
	cbf      *cbf.Buffer
	scf      *storeCarryQueue
	locserv  *locserv.Service
	dcc      *dcc.Controller

	seq   wire.SequenceNumber
	clock clock.Clock
	log   logpkg.Log
}

// New builds an Engine. Zero-valued Config fields fall back to the
// package defaults.
func New(cfg Config) (*Engine, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.NeighbourLifetime <= 0 {
		cfg.NeighbourLifetime = DefaultNeighbourLifetime
	}
	if cfg.StoreCarryLifetime <= 0 {
		cfg.StoreCarryLifetime = DefaultStoreCarryLifetime
	}
	if cfg.LocationTableCapacity <= 0 {
		cfg.LocationTableCapacity = DefaultLocationTableCapacity
	}
	if cfg.LocationTableLifetime <= 0 {
		cfg.LocationTableLifetime = DefaultLocationTableLifetime
	}
	if cfg.ContentionCapacity <= 0 {
		cfg.ContentionCapacity = DefaultContentionCapacity
	}
	if cfg.StoreCarryCapacityB <= 0 {
		cfg.StoreCarryCapacityB = DefaultStoreCarryCapacityB
	}
	if cfg.DCCPacketDuration <= 0 {
		cfg.DCCPacketDuration = DefaultDCCPacketDuration
	}
	if cfg.LocServRetryInterval <= 0 {
		cfg.LocServRetryInterval = locserv.DefaultRetryInterval
	}
	if cfg.LocServMaxRetries <= 0 {
		cfg.LocServMaxRetries = locserv.DefaultMaxRetries
	}
	if cfg.LocServBufferBytes <= 0 {
		cfg.LocServBufferBytes = DefaultStoreCarryCapacityB
	}

	lt, err := loctable.New(cfg.LocationTableCapacity, cfg.Clock)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		loctable: lt,
		scf:      newStoreCarryQueue(cfg.StoreCarryCapacityB, cfg.Clock),
		locserv:  locserv.New(cfg.LocServRetryInterval, cfg.LocServMaxRetries, cfg.LocServBufferBytes, cfg.Clock),
		dcc:      dcc.New(cfg.DCCPacketDuration, cfg.Clock, cfg.CongestionControl),
		clock:    cfg.Clock,
		log:      logpkg.Of(cfg.Log),
	}
	e.cbf = cbf.New(cfg.ContentionCapacity, cfg.Clock, e.onContentionFire)

	return e, nil
}

// nextSequence returns the next local origin sequence number,
// monotonic within this boot session (§3).
func (e *Engine) nextSequence() wire.SequenceNumber {
	e.seq = e.seq.Next()
	return e.seq
}

func (e *Engine) deliver(payload []byte) {
	if e.cfg.Deliver != nil {
		e.cfg.Deliver(payload)
	}
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.PacketsDelivered.Inc()
	}
}

func (e *Engine) transmitRaw(frame []byte) {
	if e.cfg.Transmit == nil {
		return
	}
	if err := e.cfg.Transmit(frame); err != nil {
		e.log.WARNING("forwarding", "transmit failed", logpkg.KV{"error": err.Error()})
	}
}

func (e *Engine) drop(reason string, err error) error {
	kind := coreerr.Malformed
	if ce, ok := err.(*coreerr.Error); ok {
		kind = ce.Kind
	}
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.DropKind(kind)
	}
	e.log.DEBUG("forwarding", "packet dropped", logpkg.KV{"reason": reason, "error": err.Error()})
	return err
}

// PollAt returns the earliest time the engine needs another look:
// store-carry-forward has nothing time-driven of its own (it is
// scanned on location updates), so this is the minimum of the DCC
// controller's and the location service's schedules.
func (e *Engine) PollAt() time.Time {
	dccAt := e.dcc.PollAt()
	lsAt := e.locserv.PollAt()

	if dccAt.IsZero() {
		return lsAt
	}
	if lsAt.IsZero() {
		return dccAt
	}
	if dccAt.Before(lsAt) {
		return dccAt
	}
	return lsAt
}

// Poll drains whatever the DCC gate and the location service have due
// at now: released queued packets are transmitted, and due location
// service targets get a fresh Location Service Request broadcast.
func (e *Engine) Poll(now time.Time) {
	for {
		payload, ok := e.dcc.Poll()
		if !ok {
			break
		}
		e.transmitRaw(payload)
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.PacketsForwarded.Inc()
		}
	}

	for _, target := range e.locserv.Poll(now) {
		e.broadcastLocationServiceRequest(target)
	}
}

// Sweep expires stale location table entries, called periodically by
// the event loop.
func (e *Engine) Sweep() int {
	n := e.loctable.Sweep(e.cfg.LocationTableLifetime)
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.LocationTableSize.Set(float64(e.loctable.Len()))
	}
	return n
}

// Package dcc implements Decentralized Congestion Control: a Limeric
// channel-busy-ratio rate controller gating four priority-ordered
// transmission queues, one per access category (§4.7).
package dcc

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/veloce-go/geonet/pktbuf"
	"github.com/veloce-go/geonet/wire"
)

// Limeric tuning constants (§4.7): δ_new = (1−α)·δ_prev + α·β·(CBR_target
// − CBR_measured), clipped to [δ_min, δ_max]; T_on = packet_duration / δ.
const (
	alpha       = 0.016
	dualAlpha   = 0.1 // larger gain applied when the error's sign flips
	beta        = 0.0012
	cbrTarget   = 0.68
	deltaMin    = 0.0006
	deltaMax    = 0.03
)

// Limeric is the reactive duty-cycle controller: it observes a measured
// channel busy ratio (CBR) each control period and adjusts the on-time
// interval toward cbrTarget.
type Limeric struct {
	Ton            time.Duration
	PacketDuration time.Duration
	dualAlpha      bool
	delta          float64
	lastSign       float64
}

// NewLimeric builds a controller for packets of the given nominal
// transmission duration, starting at the midpoint of the delta range.
// dualAlpha selects the "limeric_dual_alpha" variant (§4.7, §6); when
// false it runs the plain single-gain "limeric" algorithm.
func NewLimeric(packetDuration time.Duration, dualAlpha bool) *Limeric {
	delta := (deltaMin + deltaMax) / 2
	return &Limeric{
		PacketDuration: packetDuration,
		dualAlpha:      dualAlpha,
		delta:          delta,
		Ton:            time.Duration(float64(packetDuration) / delta),
	}
}

// Update feeds a freshly measured channel busy ratio into the controller
// and returns the new Ton. The dual-alpha variant uses a larger gain the
// round after the error changes sign, reacting faster to a reversal
// instead of creeping back symmetrically (§4.7).
func (l *Limeric) Update(cbr float64) time.Duration {
	err := cbrTarget - cbr

	a := alpha
	sign := sign(err)
	if l.dualAlpha && l.lastSign != 0 && sign != l.lastSign {
		a = dualAlpha
	}
	l.lastSign = sign

	delta := (1-a)*l.delta + a*beta*err
	if delta > deltaMax {
		delta = deltaMax
	}
	if delta < deltaMin {
		delta = deltaMin
	}
	l.delta = delta

	l.Ton = time.Duration(float64(l.PacketDuration) / delta)
	return l.Ton
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// Outcome classifies what Dispatch did with a packet.
type Outcome uint8

const (
	ImmediateTx Outcome = iota
	Enqueued
	Dropped
)

// queueCapacityBytes bounds each access-category queue.
const queueCapacityBytes = 256 * 1024

// categoryScale shortens the gating interval for higher-priority
// categories relative to the Limeric-derived T_on, so that — per §4.7
// ("higher-priority categories have shorter gating") — voice traffic is
// allowed through noticeably more often than background traffic even
// though all four share one rate controller.
var categoryScale = [4]float64{0.25, 0.5, 1.0, 2.0}

// Mode selects which DCC rate-control algorithm a Controller runs
// (§4.7, §6: "congestion_control: none | limeric | limeric_dual_alpha").
type Mode uint8

const (
	// ModeLimericDualAlpha runs Limeric with the faster-reacting
	// dual-gain variant (§4.7); the historical default.
	ModeLimericDualAlpha Mode = iota
	// ModeLimeric runs Limeric with a single fixed gain, no reversal
	// boost.
	ModeLimeric
	// ModeNone disables gating entirely: every category's gate is
	// always open, matching the original source's NoControl rate
	// controller (can_tx always true).
	ModeNone
)

// Controller owns one Limeric rate controller and four per-category
// transmission queues, gating egress so that no category exceeds its
// Limeric-derived duty cycle (§4.7). Under ModeNone there is no rate
// controller at all; every gate is permanently open.
type Controller struct {
	mode    Mode
	limeric *Limeric
	queues  [4]*pktbuf.Buffer[struct{}]
	clock   clock.Clock
	lastTx  [4]time.Time
}

// New builds a Controller running mode, whose rate controller (if any)
// assumes packets of packetDuration nominal airtime.
func New(packetDuration time.Duration, clk clock.Clock, mode Mode) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	c := &Controller{mode: mode, clock: clk}
	if mode != ModeNone {
		c.limeric = NewLimeric(packetDuration, mode == ModeLimericDualAlpha)
	}
	for i := range c.queues {
		c.queues[i] = pktbuf.New[struct{}](queueCapacityBytes, clk)
	}
	return c
}

// UpdateCBR feeds a new channel-busy-ratio sample into the underlying
// Limeric controller. A no-op under ModeNone, which has none.
func (c *Controller) UpdateCBR(cbr float64) time.Duration {
	if c.limeric == nil {
		return 0
	}
	return c.limeric.Update(cbr)
}

// CanTx reports whether category may transmit right now, i.e. whether
// enough of the rate controller's on-time interval has elapsed since its
// last transmission (§4.7: "can_tx(now) returns true when now ≥
// last_tx_at + T_on"). Under ModeNone it is always true.
func (c *Controller) CanTx(category wire.AccessCategory) bool {
	if c.mode == ModeNone {
		return true
	}
	last := c.lastTx[category]
	if last.IsZero() {
		return true
	}
	return c.clock.Now().Sub(last) >= c.gap(category)
}

func (c *Controller) gap(category wire.AccessCategory) time.Duration {
	return time.Duration(float64(c.limeric.Ton) * categoryScale[category])
}

// TxAt returns when category will next be permitted to transmit.
func (c *Controller) TxAt(category wire.AccessCategory) time.Time {
	if c.CanTx(category) {
		return c.clock.Now()
	}
	return c.lastTx[category].Add(c.gap(category))
}

// Dispatch attempts to transmit payload at category immediately;
// ImmediateTx is only granted when the gate is open AND no packet is
// already waiting in category's own queue or any higher-or-equal-
// priority queue (§4.7 enqueue policy) — otherwise a freshly dispatched
// packet would jump ahead of work still sitting from an earlier gated
// period, violating the within-queue enqueue-order guarantee (§5). If
// the gate denies it, the packet is enqueued for later flush; a full
// queue evicts its oldest entries to make room, and the packet is
// dropped only when it alone exceeds the queue's byte capacity.
func (c *Controller) Dispatch(category wire.AccessCategory, payload []byte, lifetime time.Duration) Outcome {
	if c.CanTx(category) && !c.hasPriorWork(category) {
		c.lastTx[category] = c.clock.Now()
		return ImmediateTx
	}

	if err := c.queues[category].Enqueue(payload, struct{}{}, lifetime); err != nil {
		return Dropped
	}
	return Enqueued
}

// hasPriorWork reports whether category's own queue, or any queue of
// equal or higher priority, already holds buffered packets.
func (c *Controller) hasPriorWork(category wire.AccessCategory) bool {
	for _, cat := range wire.AllAccessCategories {
		if c.queues[cat].Len() > 0 {
			return true
		}
		if cat == category {
			break
		}
	}
	return false
}

// PollAt returns the earliest time at which any queued packet across all
// categories may be released, highest-priority category first.
func (c *Controller) PollAt() time.Time {
	best := time.Time{}
	for _, cat := range wire.AllAccessCategories {
		if c.queues[cat].Len() == 0 {
			continue
		}
		t := c.TxAt(cat)
		if best.IsZero() || t.Before(best) {
			best = t
		}
	}
	return best
}

// Poll dequeues and returns the next releasable packet in priority order
// (voice before video before best-effort before background), or ok=false
// if nothing is both queued and currently permitted to transmit.
func (c *Controller) Poll() (payload []byte, ok bool) {
	for _, cat := range wire.AllAccessCategories {
		if c.queues[cat].Len() == 0 {
			continue
		}
		if !c.CanTx(cat) {
			continue
		}
		p, found := c.queues[cat].DequeueOne()
		if !found {
			continue
		}
		c.lastTx[cat] = c.clock.Now()
		return p, true
	}
	return nil, false
}

// QueueDepth returns the number of packets buffered for category.
func (c *Controller) QueueDepth(category wire.AccessCategory) int {
	return c.queues[category].Len()
}

// Ton returns the controller's current global on-time, or zero under
// ModeNone.
func (c *Controller) Ton() time.Duration {
	if c.limeric == nil {
		return 0
	}
	return c.limeric.Ton
}

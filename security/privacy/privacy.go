// Package privacy implements the Authorization Ticket rotation
// strategies of §4.6.1: None, Threshold(N), and Car2Car.
package privacy

import (
	"time"

	"github.com/veloce-go/geonet/wire"
)

// Strategy decides when the active Authorization Ticket should
// rotate.
type Strategy interface {
	// Run reports whether rotation should occur now.
	Run(now time.Time) bool
	// NotifyPosition feeds the station's current position, used by
	// strategies that rotate on distance travelled.
	NotifyPosition(pos wire.LongPositionVector, now time.Time)
	// NotifySignature is called once per signature produced, used by
	// strategies that rotate after a fixed number of signatures.
	NotifySignature()
	// Reset clears accumulated state immediately after a rotation.
	Reset(now time.Time)
}

// None fixes one AT for the station's lifetime: Run never reports
// true.
type None struct{}

func (None) Run(time.Time) bool                                { return false }
func (None) NotifyPosition(wire.LongPositionVector, time.Time) {}
func (None) NotifySignature()                                  {}
func (None) Reset(time.Time)                                   {}

// Threshold rotates to the next AT in round-robin order after every N
// signatures.
type Threshold struct {
	N     int
	count int
}

// NewThreshold builds a Threshold strategy rotating every n signatures.
// n <= 0 is treated as 1 (rotate on every signature).
func NewThreshold(n int) *Threshold {
	if n <= 0 {
		n = 1
	}
	return &Threshold{N: n}
}

func (t *Threshold) Run(time.Time) bool { return t.count >= t.N }

func (t *Threshold) NotifyPosition(wire.LongPositionVector, time.Time) {}

func (t *Threshold) NotifySignature() { t.count++ }

func (t *Threshold) Reset(time.Time) { t.count = 0 }

package privacy

import (
	"math"
	"math/rand"
	"time"

	"github.com/veloce-go/geonet/wire"
)

// C2C-CC profile RS_BSP_520..525 defaults: rotate once at least
// minDistance has been travelled AND at least minElapsed has passed
// since the last change, with both bounds randomised per-rotation
// within [min, max] using a seeded PRNG so test runs are reproducible.
const (
	defaultMinDistanceM = 200.0
	defaultMaxDistanceM = 500.0
	defaultMinElapsed   = 1 * time.Second
	defaultMaxElapsed   = 10 * time.Second
)

// Car2Car rotates based on distance travelled and time elapsed since
// the last rotation, per C2C-CC profile RS_BSP_520..525 (§4.6.1). A
// seeded PRNG picks the distance/time thresholds for each rotation
// cycle so schedules are reproducible for testing.
type Car2Car struct {
	MinDistanceM float64
	MaxDistanceM float64
	MinElapsed   time.Duration
	MaxElapsed   time.Duration

	rng *rand.Rand

	hasLastPos  bool
	lastPos     wire.LongPositionVector
	distanceM   float64
	lastChange  time.Time
	haveLastChg bool

	targetDistanceM float64
	targetElapsed   time.Duration
}

// NewCar2Car builds a Car2Car strategy seeded with seed, so the
// sequence of randomised thresholds is deterministic across runs with
// the same seed.
func NewCar2Car(seed int64) *Car2Car {
	c := &Car2Car{
		MinDistanceM: defaultMinDistanceM,
		MaxDistanceM: defaultMaxDistanceM,
		MinElapsed:   defaultMinElapsed,
		MaxElapsed:   defaultMaxElapsed,
		rng:          rand.New(rand.NewSource(seed)),
	}
	c.rollTargets()
	return c
}

func (c *Car2Car) rollTargets() {
	c.targetDistanceM = c.MinDistanceM + c.rng.Float64()*(c.MaxDistanceM-c.MinDistanceM)
	span := c.MaxElapsed - c.MinElapsed
	c.targetElapsed = c.MinElapsed + time.Duration(c.rng.Float64()*float64(span))
}

// Run reports whether both the distance and elapsed-time thresholds
// for this rotation cycle have been met.
func (c *Car2Car) Run(now time.Time) bool {
	if !c.haveLastChg {
		return false
	}
	if c.distanceM < c.targetDistanceM {
		return false
	}
	return now.Sub(c.lastChange) >= c.targetElapsed
}

// NotifyPosition accumulates distance travelled since the last
// rotation using a flat-earth approximation (adequate at the scale of
// a single rotation cycle, a few hundred metres).
func (c *Car2Car) NotifyPosition(pos wire.LongPositionVector, now time.Time) {
	if !c.haveLastChg {
		c.lastChange = now
		c.haveLastChg = true
	}
	if c.hasLastPos {
		c.distanceM += planarDistanceM(c.lastPos, pos)
	}
	c.lastPos = pos
	c.hasLastPos = true
}

// NotifySignature is a no-op for Car2Car: rotation is driven by
// position and elapsed time, not signature count.
func (c *Car2Car) NotifySignature() {}

// Reset clears accumulated distance/time and re-rolls this cycle's
// randomised thresholds.
func (c *Car2Car) Reset(now time.Time) {
	c.distanceM = 0
	c.lastChange = now
	c.haveLastChg = true
	c.rollTargets()
}

const earthRadiusM = 6371000.0

// planarDistanceM approximates the ground distance between two
// positions using an equirectangular projection centred on a, valid
// for the short distances (hundreds of metres) this strategy operates
// over.
func planarDistanceM(a, b wire.LongPositionVector) float64 {
	latA := degToRad(a.LatitudeDegrees())
	lonA := degToRad(a.LongitudeDegrees())
	latB := degToRad(b.LatitudeDegrees())
	lonB := degToRad(b.LongitudeDegrees())

	x := (lonB - lonA) * math.Cos((latA+latB)/2) * earthRadiusM
	y := (latB - latA) * earthRadiusM
	return math.Hypot(x, y)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

package privacy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veloce-go/geonet/wire"
)

func posAt(latDeg, lonDeg float64) wire.LongPositionVector {
	return wire.LongPositionVector{
		Latitude:  wire.TenthMicrodegree(latDeg),
		Longitude: wire.TenthMicrodegree(lonDeg),
	}
}

func TestCar2CarDeterministicForSameSeed(t *testing.T) {
	a := NewCar2Car(42)
	b := NewCar2Car(42)
	require.Equal(t, a.targetDistanceM, b.targetDistanceM)
	require.Equal(t, a.targetElapsed, b.targetElapsed)
}

func TestCar2CarDoesNotRotateBeforeDistanceThreshold(t *testing.T) {
	c := NewCar2Car(1)
	c.MinDistanceM, c.MaxDistanceM = 1000, 1000
	c.MinElapsed, c.MaxElapsed = time.Second, time.Second

	now := time.Unix(0, 0)
	c.NotifyPosition(posAt(48.8566, 2.3522), now)
	c.NotifyPosition(posAt(48.8567, 2.3522), now.Add(time.Second))

	require.False(t, c.Run(now.Add(time.Second)))
}

func TestCar2CarRotatesAfterDistanceAndTimeThresholds(t *testing.T) {
	c := NewCar2Car(1)
	c.MinDistanceM, c.MaxDistanceM = 50, 50
	c.MinElapsed, c.MaxElapsed = time.Second, time.Second
	c.rollTargets()

	start := time.Unix(0, 0)
	c.NotifyPosition(posAt(48.8566, 2.3522), start)
	// Roughly 111m per 0.001 degree of latitude.
	c.NotifyPosition(posAt(48.8576, 2.3522), start.Add(2*time.Second))

	require.True(t, c.Run(start.Add(2*time.Second)))
}

func TestCar2CarResetClearsDistanceAndRerollsTargets(t *testing.T) {
	c := NewCar2Car(7)
	c.MinDistanceM, c.MaxDistanceM = 10, 10
	c.MinElapsed, c.MaxElapsed = 0, 0
	c.rollTargets()

	start := time.Unix(0, 0)
	c.NotifyPosition(posAt(48.8566, 2.3522), start)
	c.NotifyPosition(posAt(48.8576, 2.3522), start.Add(time.Second))
	require.True(t, c.Run(start.Add(time.Second)))

	c.Reset(start.Add(time.Second))
	require.False(t, c.Run(start.Add(time.Second)))
}

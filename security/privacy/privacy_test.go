package privacy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veloce-go/geonet/wire"
)

func TestNoneNeverRotates(t *testing.T) {
	s := None{}
	s.NotifySignature()
	s.NotifyPosition(wire.LongPositionVector{}, time.Now())
	require.False(t, s.Run(time.Now()))
}

func TestThresholdRotatesAfterNSignatures(t *testing.T) {
	s := NewThreshold(3)
	require.False(t, s.Run(time.Time{}))
	s.NotifySignature()
	s.NotifySignature()
	require.False(t, s.Run(time.Time{}))
	s.NotifySignature()
	require.True(t, s.Run(time.Time{}))
}

func TestThresholdResetClearsCount(t *testing.T) {
	s := NewThreshold(2)
	s.NotifySignature()
	s.NotifySignature()
	require.True(t, s.Run(time.Time{}))
	s.Reset(time.Time{})
	require.False(t, s.Run(time.Time{}))
}

func TestThresholdDefaultsToOne(t *testing.T) {
	s := NewThreshold(0)
	require.False(t, s.Run(time.Time{}))
	s.NotifySignature()
	require.True(t, s.Run(time.Time{}))
}

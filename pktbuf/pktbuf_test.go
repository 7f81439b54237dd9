package pktbuf

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestEnqueueDequeueFIFOOrder(t *testing.T) {
	b := New[struct{}](1024, clock.NewMock())

	require.NoError(t, b.Enqueue([]byte("one"), struct{}{}, time.Minute))
	require.NoError(t, b.Enqueue([]byte("two"), struct{}{}, time.Minute))

	p, ok := b.DequeueOne()
	require.True(t, ok)
	require.Equal(t, "one", string(p))

	p, ok = b.DequeueOne()
	require.True(t, ok)
	require.Equal(t, "two", string(p))

	_, ok = b.DequeueOne()
	require.False(t, ok)
}

func TestEnqueueRejectsOversizePacket(t *testing.T) {
	b := New[struct{}](4, clock.NewMock())
	err := b.Enqueue([]byte("too big"), struct{}{}, time.Minute)
	require.Error(t, err)
}

func TestEnqueueEvictsHeadOnOverflow(t *testing.T) {
	b := New[struct{}](6, clock.NewMock())

	require.NoError(t, b.Enqueue([]byte("abc"), struct{}{}, time.Minute))
	require.NoError(t, b.Enqueue([]byte("def"), struct{}{}, time.Minute))
	// a third 3-byte entry forces eviction of "abc"
	require.NoError(t, b.Enqueue([]byte("ghi"), struct{}{}, time.Minute))

	require.Equal(t, 2, b.Len())
	p, _ := b.DequeueOne()
	require.Equal(t, "def", string(p))
}

func TestDropExpiredRemovesPastDeadline(t *testing.T) {
	mock := clock.NewMock()
	b := New[struct{}](1024, mock)

	require.NoError(t, b.Enqueue([]byte("short-lived"), struct{}{}, time.Second))
	require.NoError(t, b.Enqueue([]byte("long-lived"), struct{}{}, time.Hour))

	mock.Add(2 * time.Second)
	dropped := b.DropExpired()

	require.Equal(t, 1, dropped)
	require.Equal(t, 1, b.Len())
}

func TestMarkFlushAndFlushOne(t *testing.T) {
	b := New[string](1024, clock.NewMock())
	require.NoError(t, b.Enqueue([]byte("a"), "ready", time.Minute))
	require.NoError(t, b.Enqueue([]byte("b"), "not-ready", time.Minute))

	_, _, _, ok := b.FlushOne()
	require.False(t, ok, "nothing marked for flush yet")

	b.MarkFlush(func(meta string) bool { return meta == "ready" })
	p, meta, _, ok := b.FlushOne()
	require.True(t, ok)
	require.Equal(t, "a", string(p))
	require.Equal(t, "ready", meta)
	require.Equal(t, 1, b.Len())

	// the still-unready entry must not have been flushed
	_, _, _, ok = b.FlushOne()
	require.False(t, ok)
}

func TestUsedTracksBufferedBytes(t *testing.T) {
	b := New[struct{}](1024, clock.NewMock())
	require.NoError(t, b.Enqueue([]byte("abcd"), struct{}{}, time.Minute))
	require.Equal(t, 4, b.Used())

	b.DequeueOne()
	require.Equal(t, 0, b.Used())
}

package collision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
}

func TestTracker_Track_FirstSeen(t *testing.T) {
	tracker := NewTracker()

	firstSeen, diverged := tracker.Track(0x40, 0x1234567890abcdef)
	require.True(t, firstSeen)
	require.False(t, diverged)
	require.Equal(t, 1, tracker.Count())
	require.False(t, tracker.HasDiverged(0x40))
}

func TestTracker_Track_IdenticalRedeclaration(t *testing.T) {
	tracker := NewTracker()

	_, _ = tracker.Track(0x40, 0x1234567890abcdef)

	firstSeen, diverged := tracker.Track(0x40, 0x1234567890abcdef)
	require.False(t, firstSeen)
	require.False(t, diverged)
	require.False(t, tracker.HasDiverged(0x40))
	require.Equal(t, 1, tracker.Count())
}

func TestTracker_Track_DivergentRedeclaration(t *testing.T) {
	tracker := NewTracker()

	_, _ = tracker.Track(0x40, 0x1234567890abcdef)

	firstSeen, diverged := tracker.Track(0x40, 0xfedcba0987654321)
	require.False(t, firstSeen)
	require.True(t, diverged)
	require.True(t, tracker.HasDiverged(0x40))
}

func TestTracker_Track_IndependentOffsets(t *testing.T) {
	tracker := NewTracker()

	_, _ = tracker.Track(0x40, 0x1111111111111111)
	_, _ = tracker.Track(0x80, 0x2222222222222222)

	require.Equal(t, 2, tracker.Count())
	require.False(t, tracker.HasDiverged(0x40))
	require.False(t, tracker.HasDiverged(0x80))
}

func TestTracker_HasDiverged_UnknownOffset(t *testing.T) {
	tracker := NewTracker()
	require.False(t, tracker.HasDiverged(0xdead))
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()

	_, _ = tracker.Track(0x40, 0x1111111111111111)
	_, _ = tracker.Track(0x40, 0x2222222222222222)
	require.Equal(t, 1, tracker.Count())
	require.True(t, tracker.HasDiverged(0x40))

	tracker.Reset()

	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasDiverged(0x40))

	firstSeen, diverged := tracker.Track(0x40, 0x3333333333333333)
	require.True(t, firstSeen)
	require.False(t, diverged)
}

func TestTracker_MultipleDivergentOffsets(t *testing.T) {
	tracker := NewTracker()

	_, _ = tracker.Track(0x10, 0x0001)
	_, _ = tracker.Track(0x20, 0x0002)

	_, diverged1 := tracker.Track(0x10, 0x0003)
	_, diverged2 := tracker.Track(0x20, 0x0004)

	require.True(t, diverged1)
	require.True(t, diverged2)
	require.True(t, tracker.HasDiverged(0x10))
	require.True(t, tracker.HasDiverged(0x20))
	require.Equal(t, 2, tracker.Count())
}

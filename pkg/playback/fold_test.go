package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	playing := NewValue().With(WithDuration(10*time.Second), WithPlaying(true))

	tests := []struct {
		name  string
		start Value
		event Event
		check func(t *testing.T, got Value)
	}{
		{
			name:  "initialized sets duration and size",
			start: NewValue(),
			event: Event{Kind: EventInitialized, Duration: 10 * time.Second, Size: Size{Width: 16, Height: 9}},
			check: func(t *testing.T, got Value) {
				assert.True(t, got.Initialized)
				assert.Equal(t, 10*time.Second, got.Duration)
				assert.InDelta(t, 16.0/9.0, got.AspectRatio(), 1e-9)
			},
		},
		{
			name:  "completed stops playback at the end",
			start: playing.With(WithPosition(9 * time.Second)),
			event: Event{Kind: EventCompleted},
			check: func(t *testing.T, got Value) {
				assert.False(t, got.IsPlaying)
				assert.Equal(t, 10*time.Second, got.Position)
			},
		},
		{
			name:  "buffering update replaces ranges wholesale",
			start: playing.With(WithBuffered([]TimeRange{{Start: 0, End: time.Second}})),
			event: Event{Kind: EventBufferingUpdate, Buffered: []TimeRange{
				{Start: 5 * time.Second, End: 8 * time.Second},
				{Start: 0, End: 2 * time.Second},
			}},
			check: func(t *testing.T, got Value) {
				// Arrival order preserved, no sorting or merging.
				assert.Equal(t, []TimeRange{
					{Start: 5 * time.Second, End: 8 * time.Second},
					{Start: 0, End: 2 * time.Second},
				}, got.Buffered)
			},
		},
		{
			name:  "buffering start",
			start: playing,
			event: Event{Kind: EventBufferingStart},
			check: func(t *testing.T, got Value) { assert.True(t, got.IsBuffering) },
		},
		{
			name:  "buffering end",
			start: playing.With(WithBuffering(true)),
			event: Event{Kind: EventBufferingEnd},
			check: func(t *testing.T, got Value) { assert.False(t, got.IsBuffering) },
		},
		{
			name:  "pip started",
			start: playing,
			event: Event{Kind: EventPIPStarted},
			check: func(t *testing.T, got Value) { assert.True(t, got.IsShowingPIP) },
		},
		{
			name:  "pip stopped",
			start: playing.With(WithPIP(true)),
			event: Event{Kind: EventPIPStopped},
			check: func(t *testing.T, got Value) { assert.False(t, got.IsShowingPIP) },
		},
		{
			name:  "pip expand clears buffering",
			start: playing.With(WithPIP(true), WithBuffering(true)),
			event: Event{Kind: EventPIPExpanded},
			check: func(t *testing.T, got Value) {
				assert.False(t, got.IsBuffering)
				assert.True(t, got.IsPlaying)
			},
		},
		{
			name:  "pip close stops playback",
			start: playing.With(WithPIP(true), WithBuffering(true)),
			event: Event{Kind: EventPIPClosed},
			check: func(t *testing.T, got Value) {
				assert.False(t, got.IsPlaying)
				assert.False(t, got.IsBuffering)
			},
		},
		{
			name:  "error tags the snapshot and clears initialization",
			start: playing,
			event: Event{Kind: EventError, Err: "network gone"},
			check: func(t *testing.T, got Value) {
				assert.True(t, got.HasError())
				assert.Equal(t, "network gone", got.ErrorDescription)
				assert.False(t, got.Initialized)
				assert.False(t, got.IsPlaying)
			},
		},
		{
			name:  "unknown event is a no-op",
			start: playing,
			event: Event{Kind: EventUnknown},
			check: func(t *testing.T, got Value) { assert.Equal(t, playing, got) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, fold(tt.start, tt.event))
		})
	}
}

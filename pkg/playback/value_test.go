package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fullValue() Value {
	return Value{
		Duration:      90 * time.Second,
		Initialized:   true,
		Position:      12 * time.Second,
		Caption:       Caption{Start: 10 * time.Second, End: 14 * time.Second, Text: "hello"},
		Buffered:      []TimeRange{{Start: 0, End: 30 * time.Second}},
		IsPlaying:     true,
		IsLooping:     true,
		IsBuffering:   true,
		IsShowingPIP:  true,
		Volume:        0.5,
		PlaybackSpeed: 1.5,
		Size:          Size{Width: 1920, Height: 1080},
	}
}

func TestNewValueDefaults(t *testing.T) {
	v := NewValue()
	assert.False(t, v.Initialized)
	assert.False(t, v.IsPlaying)
	assert.False(t, v.IsLooping)
	assert.False(t, v.IsBuffering)
	assert.False(t, v.IsShowingPIP)
	assert.Equal(t, 1.0, v.Volume)
	assert.Equal(t, 1.0, v.PlaybackSpeed)
	assert.False(t, v.HasError())
	assert.Empty(t, v.Buffered)
}

func TestWithOmittedFieldsRetainValues(t *testing.T) {
	base := fullValue()

	got := base.With(WithPosition(40 * time.Second))

	want := base
	want.Position = 40 * time.Second
	assert.Equal(t, want, got)

	// The receiver is untouched.
	assert.Equal(t, 12*time.Second, base.Position)
}

func TestWithChainedChangesAreIndependent(t *testing.T) {
	base := fullValue()

	a := base.With(WithVolume(0.1))
	b := a.With(WithPlaying(false))
	c := b.With(WithBuffering(false))

	assert.Equal(t, 0.1, c.Volume)
	assert.False(t, c.IsPlaying)
	assert.False(t, c.IsBuffering)

	// Everything not named by any change survived the whole chain.
	assert.Equal(t, base.Duration, c.Duration)
	assert.Equal(t, base.Position, c.Position)
	assert.Equal(t, base.Caption, c.Caption)
	assert.Equal(t, base.Buffered, c.Buffered)
	assert.Equal(t, base.IsLooping, c.IsLooping)
	assert.Equal(t, base.IsShowingPIP, c.IsShowingPIP)
	assert.Equal(t, base.PlaybackSpeed, c.PlaybackSpeed)
	assert.Equal(t, base.Size, c.Size)
}

func TestWithDurationMarksInitialized(t *testing.T) {
	v := NewValue().With(WithDuration(10 * time.Second))
	assert.True(t, v.Initialized)
	assert.Equal(t, 10*time.Second, v.Duration)
}

func TestWithErrorForcesDurationUnknown(t *testing.T) {
	v := fullValue().With(WithError("decoder gave up"))
	assert.True(t, v.HasError())
	assert.Equal(t, "decoder gave up", v.ErrorDescription)
	assert.False(t, v.Initialized)
	assert.Equal(t, time.Duration(0), v.Duration)
	assert.False(t, v.IsPlaying)
	assert.False(t, v.IsBuffering)
	// Unrelated fields ride along unchanged.
	assert.Equal(t, 0.5, v.Volume)
	assert.True(t, v.IsLooping)
}

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		name string
		size Size
		want float64
	}{
		{"unknown size", Size{}, 1.0},
		{"zero width", Size{Width: 0, Height: 1080}, 1.0},
		{"zero height", Size{Width: 1920, Height: 0}, 1.0},
		{"negative width", Size{Width: -1920, Height: 1080}, 1.0},
		{"negative height", Size{Width: 1920, Height: -1080}, 1.0},
		{"16:9", Size{Width: 1920, Height: 1080}, 1920.0 / 1080.0},
		{"portrait", Size{Width: 1080, Height: 1920}, 1080.0 / 1920.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Value{Size: tt.size}
			assert.InDelta(t, tt.want, v.AspectRatio(), 1e-9)
		})
	}
}

func TestCaptionAt(t *testing.T) {
	table := []Caption{
		{Start: 0, End: 2 * time.Second, Text: "A"},
		{Start: 2 * time.Second, End: 4 * time.Second, Text: "B"},
	}

	tests := []struct {
		name string
		pos  time.Duration
		want string
	}{
		{"start of first", 0, "A"},
		{"inside first", time.Second, "A"},
		{"boundary is inclusive, first match wins", 2 * time.Second, "A"},
		{"inside second", 3 * time.Second, "B"},
		{"end of second", 4 * time.Second, "B"},
		{"past the table", 5 * time.Second, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CaptionAt(table, tt.pos)
			assert.Equal(t, tt.want, got.Text)
			if tt.want == "" {
				assert.True(t, got.Empty())
			}
		})
	}

	assert.True(t, CaptionAt(nil, time.Second).Empty())
}

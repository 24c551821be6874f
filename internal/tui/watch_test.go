package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/justchokingaround/playkit/pkg/playback"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-5 * time.Second, "00:00"},
		{42 * time.Second, "00:42"},
		{3*time.Minute + 7*time.Second, "03:07"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTime(tt.in), "duration %s", tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	assert.Equal(t, "exact", truncate("exact", 5))

	got := truncate("a very long media title indeed", 10)
	assert.True(t, strings.HasSuffix(got, "…"))

	// Wide runes count double.
	got = truncate("日本語のタイトル", 8)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestStatusLine(t *testing.T) {
	base := playback.NewValue().With(playback.WithDuration(time.Minute))

	line := statusLine(base.With(playback.WithPlaying(true)), "*")
	assert.Contains(t, line, "playing")
	assert.Contains(t, line, "vol 100%")
	assert.NotContains(t, line, "loop")

	line = statusLine(base, "*")
	assert.Contains(t, line, "paused")

	line = statusLine(base.With(playback.WithBuffering(true)), "*")
	assert.Contains(t, line, "buffering")

	line = statusLine(base.With(
		playback.WithLooping(true),
		playback.WithPIP(true),
		playback.WithSpeed(1.5),
		playback.WithVolume(0.5),
	), "*")
	assert.Contains(t, line, "loop")
	assert.Contains(t, line, "pip")
	assert.Contains(t, line, "1.5x")
	assert.Contains(t, line, "vol 50%")
}

func TestHelpLine(t *testing.T) {
	line := helpLine(defaultKeyMap())
	assert.Contains(t, line, "play/pause")
	assert.Contains(t, line, "quit")
}

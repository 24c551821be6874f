package mpris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/justchokingaround/playkit/pkg/playback"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name  string
		value playback.Value
		want  string
	}{
		{
			name:  "fresh value is stopped",
			value: playback.NewValue(),
			want:  "Stopped",
		},
		{
			name: "initialized but paused",
			value: playback.NewValue().With(
				playback.WithDuration(time.Minute),
			),
			want: "Paused",
		},
		{
			name: "playing",
			value: playback.NewValue().With(
				playback.WithDuration(time.Minute),
				playback.WithPlaying(true),
			),
			want: "Playing",
		},
		{
			name: "errors override playing",
			value: playback.NewValue().With(
				playback.WithPlaying(true),
				playback.WithError("stream died"),
			),
			want: "Stopped",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.value))
		})
	}
}

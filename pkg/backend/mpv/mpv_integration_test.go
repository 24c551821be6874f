//go:build integration

package mpv

import (
	"context"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/playkit/pkg/playback"
)

// testPattern is a synthetic source mpv can play without any media
// files or network access.
const testPattern = "av://lavfi:testsrc=duration=10:size=320x240:rate=30"

func checkMPVAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("mpv"); err != nil {
		t.Skip("mpv not installed, skipping integration test")
	}
}

func newIntegrationBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Config{}, slog.Default())
	require.NoError(t, err)
	return b
}

func TestIntegrationSessionLifecycle(t *testing.T) {
	checkMPVAvailable(t)
	b := newIntegrationBackend(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handle, err := b.CreateSession(ctx, playback.NetworkSource(testPattern, playback.FormatAuto))
	require.NoError(t, err)
	defer b.DisposeSession(ctx, handle)

	events, err := b.Events(handle)
	require.NoError(t, err)

	var initialized playback.Event
	deadline := time.After(15 * time.Second)
waiting:
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed before initialization")
			if ev.Kind == playback.EventInitialized {
				initialized = ev
				break waiting
			}
		case <-deadline:
			t.Fatal("timed out waiting for initialization")
		}
	}

	assert.InDelta(t, 10.0, initialized.Duration.Seconds(), 0.5)
	assert.Equal(t, 320.0, initialized.Size.Width)
	assert.Equal(t, 240.0, initialized.Size.Height)

	require.NoError(t, b.Play(ctx, handle))
	time.Sleep(time.Second)

	pos, err := b.Position(ctx, handle)
	require.NoError(t, err)
	assert.Greater(t, pos, time.Duration(0))

	require.NoError(t, b.Pause(ctx, handle))
	require.NoError(t, b.SeekTo(ctx, handle, 5*time.Second))
	time.Sleep(300 * time.Millisecond)

	pos, err = b.Position(ctx, handle)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, pos.Seconds(), 1.0)

	require.NoError(t, b.SetVolume(ctx, handle, 0.5))
	require.NoError(t, b.SetPlaybackSpeed(ctx, handle, 1.5))
	require.NoError(t, b.SetLooping(ctx, handle, true))
}

func TestIntegrationDisposeClosesEvents(t *testing.T) {
	checkMPVAvailable(t)
	b := newIntegrationBackend(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handle, err := b.CreateSession(ctx, playback.NetworkSource(testPattern, playback.FormatAuto))
	require.NoError(t, err)

	events, err := b.Events(handle)
	require.NoError(t, err)

	require.NoError(t, b.DisposeSession(ctx, handle))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event stream not closed after dispose")
		}
	}
}

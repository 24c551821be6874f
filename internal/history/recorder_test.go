package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/playkit/pkg/playback"
)

func testRecorder(t *testing.T, interval time.Duration) (*Recorder, *Service) {
	t.Helper()
	svc := testService(t)
	src := playback.FileSource("/media/a.mkv")
	return NewRecorder(svc, src, "A", interval, nil), svc
}

func playing(pos time.Duration) playback.Value {
	return playback.NewValue().With(
		playback.WithDuration(100*time.Second),
		playback.WithPosition(pos),
		playback.WithPlaying(true),
	)
}

func TestRecorderIgnoresUninitializedSnapshots(t *testing.T) {
	r, svc := testRecorder(t, time.Hour)

	r.observe(playback.NewValue())

	entries, err := svc.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecorderThrottlesSaves(t *testing.T) {
	r, svc := testRecorder(t, time.Hour)

	r.observe(playing(10 * time.Second))
	r.observe(playing(11 * time.Second))
	r.observe(playing(12 * time.Second))

	entries, err := svc.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 10, entries[0].PositionSeconds, "throttled snapshots must not overwrite")
}

func TestRecorderWritesCompletionImmediately(t *testing.T) {
	r, svc := testRecorder(t, time.Hour)

	r.observe(playing(10 * time.Second))
	done := playback.NewValue().With(
		playback.WithDuration(100*time.Second),
		playback.WithPosition(100*time.Second),
		playback.WithPlaying(false),
	)
	r.observe(done)

	entries, err := svc.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Completed)

	// Later snapshots after completion are ignored.
	r.observe(playing(5 * time.Second))
	entries, err = svc.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Completed)
}

func TestRecorderSkipsErrorSnapshots(t *testing.T) {
	r, svc := testRecorder(t, 0)

	failed := playback.NewValue().With(playback.WithError("stream died"))
	r.observe(failed)

	entries, err := svc.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

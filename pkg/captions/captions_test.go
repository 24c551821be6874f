package captions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:00,000 --> 00:00:02,000
A

2
00:00:02,000 --> 00:00:04,000
B
second line
`

const sampleVTT = `WEBVTT

NOTE this block is ignored

intro
00:00.000 --> 00:02.000 align:start
A

00:02.000 --> 00:04.000
B
`

func TestParseSRT(t *testing.T) {
	table, err := ParseSRT([]byte(sampleSRT))
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, time.Duration(0), table[0].Start)
	assert.Equal(t, 2*time.Second, table[0].End)
	assert.Equal(t, "A", table[0].Text)

	assert.Equal(t, 2*time.Second, table[1].Start)
	assert.Equal(t, 4*time.Second, table[1].End)
	assert.Equal(t, "B\nsecond line", table[1].Text)
}

func TestParseSRTWindowsLineEndings(t *testing.T) {
	crlf := "1\r\n00:00:01,500 --> 00:00:03,250\r\nhello\r\n"
	table, err := ParseSRT([]byte(crlf))
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, 1500*time.Millisecond, table[0].Start)
	assert.Equal(t, 3250*time.Millisecond, table[0].End)
	assert.Equal(t, "hello", table[0].Text)
}

func TestParseSRTMalformedTiming(t *testing.T) {
	_, err := ParseSRT([]byte("1\nnot a timing line\ntext\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "srt:")
}

func TestParseWebVTT(t *testing.T) {
	table, err := ParseWebVTT([]byte(sampleVTT))
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, time.Duration(0), table[0].Start)
	assert.Equal(t, 2*time.Second, table[0].End)
	assert.Equal(t, "A", table[0].Text)
	assert.Equal(t, "B", table[1].Text)
}

func TestParseWebVTTRequiresHeader(t *testing.T) {
	_, err := ParseWebVTT([]byte("00:00.000 --> 00:02.000\nA\n"))
	require.Error(t, err)
}

func TestParseSniffsFormat(t *testing.T) {
	vtt, err := Parse([]byte(sampleVTT))
	require.NoError(t, err)
	assert.Len(t, vtt, 2)

	srt, err := Parse([]byte(sampleSRT))
	require.NoError(t, err)
	assert.Len(t, srt, 2)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"00:00:00,000", 0},
		{"00:00:02,500", 2500 * time.Millisecond},
		{"01:02:03.400", time.Hour + 2*time.Minute + 3*time.Second + 400*time.Millisecond},
		{"02:03.400", 2*time.Minute + 3*time.Second + 400*time.Millisecond},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "abc", "1", "aa:bb:cc,dd"} {
		_, err := parseTimestamp(bad)
		assert.Error(t, err, bad)
	}
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.srt")
	require.NoError(t, os.WriteFile(path, []byte(sampleSRT), 0o644))

	table, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, table, 2)
}

func TestFileLoaderMissingFile(t *testing.T) {
	_, err := NewFileLoader("/nonexistent/captions.srt").Load(context.Background())
	require.Error(t, err)
}

func TestNetworkLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleVTT))
	}))
	defer srv.Close()

	table, err := NewNetworkLoader(srv.URL + "/captions.vtt").Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, table, 2)
}

func TestNetworkLoaderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewNetworkLoader(srv.URL + "/captions.vtt")
	loader.client.SetRetryCount(0)
	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

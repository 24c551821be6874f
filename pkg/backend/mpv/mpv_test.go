package mpv

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/playkit/pkg/playback"
)

func testBackend(cfg Config) *Backend {
	return &Backend{
		cfg:      cfg,
		platform: PlatformLinux,
		log:      slog.Default(),
		sessions: make(map[playback.SessionHandle]*session),
	}
}

func TestNewIPCConfigUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ipc, err := NewIPCConfig(PlatformLinux)
		require.NoError(t, err)
		assert.False(t, seen[ipc.Address], "address %s generated twice", ipc.Address)
		seen[ipc.Address] = true
	}
}

func TestNewIPCConfigAddresses(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		wantType IPCType
		contains string
	}{
		{"linux uses a socket", PlatformLinux, IPCUnixSocket, "playkit-mpv-"},
		{"wsl uses a socket", PlatformWSL, IPCUnixSocket, ".sock"},
		{"mac uses a socket", PlatformMac, IPCUnixSocket, ".sock"},
		{"windows uses a named pipe", PlatformWindows, IPCNamedPipe, `\\.\pipe\playkit-mpv-`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ipc, err := NewIPCConfig(tt.platform)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ipc.Type)
			assert.Contains(t, ipc.Address, tt.contains)
		})
	}
}

func TestIPCConfigServerArg(t *testing.T) {
	ipc := &IPCConfig{Type: IPCUnixSocket, Address: "/tmp/playkit-mpv-abc.sock"}
	assert.Equal(t, "--input-ipc-server=/tmp/playkit-mpv-abc.sock", ipc.serverArg())
	assert.True(t, ipc.IsSocket())

	pipe := &IPCConfig{Type: IPCNamedPipe, Address: `\\.\pipe\playkit-mpv-abc`}
	assert.False(t, pipe.IsSocket())
}

func TestResolveSource(t *testing.T) {
	b := testBackend(Config{AssetsDir: "/srv/assets"})

	tests := []struct {
		name    string
		src     playback.Source
		want    string
		wantErr bool
	}{
		{
			name: "asset joins assets dir and package",
			src:  playback.AssetSource("intro.mp4", "onboarding"),
			want: "/srv/assets/onboarding/intro.mp4",
		},
		{
			name: "file passes through",
			src:  playback.FileSource("/home/user/video.mkv"),
			want: "/home/user/video.mkv",
		},
		{
			name: "network passes through",
			src:  playback.NetworkSource("https://example.com/stream.m3u8", playback.FormatHLS),
			want: "https://example.com/stream.m3u8",
		},
		{
			name:    "empty locator fails",
			src:     playback.FileSource(""),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.resolveSource(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSourceAssetWithoutAssetsDir(t *testing.T) {
	b := testBackend(Config{})
	_, err := b.resolveSource(playback.AssetSource("intro.mp4", "onboarding"))
	assert.Error(t, err)
}

func TestBuildArgs(t *testing.T) {
	ipc := &IPCConfig{Type: IPCUnixSocket, Address: "/tmp/playkit-mpv-x.sock"}
	src := playback.FileSource("/media/a.mkv")

	t.Run("defaults", func(t *testing.T) {
		b := testBackend(Config{})
		args := b.buildArgs(ipc, src, "/media/a.mkv")

		assert.Equal(t, "--input-ipc-server=/tmp/playkit-mpv-x.sock", args[0])
		assert.Contains(t, args, "--idle=yes")
		assert.Contains(t, args, "--pause")
		assert.Contains(t, args, "--no-config")
		assert.Contains(t, args, "--msg-level=all=no")
		assert.NotContains(t, args, "--fullscreen")
		assert.Equal(t, "/media/a.mkv", args[len(args)-1], "target must come last")
	})

	t.Run("user config and debug", func(t *testing.T) {
		b := testBackend(Config{LoadUserConfig: true, Debug: true})
		args := b.buildArgs(ipc, src, "/media/a.mkv")

		assert.NotContains(t, args, "--no-config")
		assert.NotContains(t, args, "--msg-level=all=no")
	})

	t.Run("fullscreen and extra args", func(t *testing.T) {
		b := testBackend(Config{Fullscreen: true, ExtraArgs: []string{"--volume=50"}})
		args := b.buildArgs(ipc, src, "/media/a.mkv")

		assert.Contains(t, args, "--fullscreen")
		assert.Contains(t, args, "--volume=50")
	})

	t.Run("exclusive audio", func(t *testing.T) {
		b := testBackend(Config{})
		b.mixSet = true
		b.mixWithOthers = false
		args := b.buildArgs(ipc, src, "/media/a.mkv")
		assert.Contains(t, args, "--audio-exclusive=yes")

		b.mixWithOthers = true
		args = b.buildArgs(ipc, src, "/media/a.mkv")
		assert.NotContains(t, args, "--audio-exclusive=yes")
	})
}

func TestExecutableName(t *testing.T) {
	assert.Equal(t, "mpv", executableName(PlatformLinux))
	assert.Equal(t, "mpv", executableName(PlatformWSL))
	assert.Equal(t, "mpv", executableName(PlatformMac))
	assert.Equal(t, "mpv.exe", executableName(PlatformWindows))
}

func TestFindExecutableMissingOverride(t *testing.T) {
	_, err := FindExecutable(PlatformLinux, "/nonexistent/mpv-binary")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not found"))
}

func TestDisposeUnknownSessionIsNoOp(t *testing.T) {
	b := testBackend(Config{})
	err := b.DisposeSession(t.Context(), playback.SessionHandle("never-created"))
	assert.NoError(t, err)
}

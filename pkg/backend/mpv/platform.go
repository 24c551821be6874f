package mpv

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform is the operating system flavor the backend is running on.
type Platform int

const (
	PlatformLinux Platform = iota
	PlatformWindows
	PlatformWSL
	PlatformMac
)

// IPCType is the transport used to reach mpv's JSON IPC server.
type IPCType int

const (
	IPCUnixSocket IPCType = iota
	IPCNamedPipe
)

// IPCConfig describes one session's IPC endpoint.
type IPCConfig struct {
	Type    IPCType
	Address string
}

// IsSocket reports whether the endpoint is a Unix socket file that
// needs removal on teardown.
func (c *IPCConfig) IsSocket() bool { return c.Type == IPCUnixSocket }

// DetectPlatform identifies the current platform, distinguishing WSL
// from native Linux.
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMac
	case "linux":
		if isWSL() {
			return PlatformWSL
		}
		return PlatformLinux
	default:
		return PlatformLinux
	}
}

func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// executableName returns the mpv binary name for the platform. WSL
// deliberately uses the Linux mpv: Windows named pipes are not
// reachable from a WSL process.
func executableName(platform Platform) string {
	if platform == PlatformWindows {
		return "mpv.exe"
	}
	return "mpv"
}

// FindExecutable locates the mpv binary, honoring an override path
// from configuration.
func FindExecutable(platform Platform, override string) (string, error) {
	if override != "" {
		if _, err := exec.LookPath(override); err != nil {
			return "", fmt.Errorf("configured mpv executable %q not found: %w", override, err)
		}
		return override, nil
	}
	name := executableName(platform)
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH, install mpv first: %w", name, err)
	}
	return path, nil
}

// NewIPCConfig generates a fresh, unique IPC endpoint for one
// session: a Unix socket in the temp directory on Unix-likes, a named
// pipe on Windows.
func NewIPCConfig(platform Platform) (*IPCConfig, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return nil, err
	}
	if platform == PlatformWindows {
		return &IPCConfig{
			Type:    IPCNamedPipe,
			Address: fmt.Sprintf(`\\.\pipe\playkit-mpv-%s`, suffix),
		}, nil
	}
	return &IPCConfig{
		Type:    IPCUnixSocket,
		Address: filepath.Join(os.TempDir(), fmt.Sprintf("playkit-mpv-%s.sock", suffix)),
	}, nil
}

func randomSuffix() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// serverArg is the mpv command-line flag that enables the IPC server
// on this endpoint.
func (c *IPCConfig) serverArg() string {
	return fmt.Sprintf("--input-ipc-server=%s", c.Address)
}

// connString is the address gopv dials. Both socket paths and named
// pipes are dialed verbatim.
func (c *IPCConfig) connString() string {
	return c.Address
}

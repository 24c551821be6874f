//go:build !windows

package mpv

// isPipeReady only applies to Windows named pipes; Unix sockets are
// probed by checking the socket file.
func isPipeReady(string) bool { return false }

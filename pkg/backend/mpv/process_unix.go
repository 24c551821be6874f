//go:build !windows

package mpv

import "os/exec"

// setupProcessAttributes needs nothing special on Unix.
func setupProcessAttributes(*exec.Cmd) {}

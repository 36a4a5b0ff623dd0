// Package viewer shows a rendered figure in the platform's default viewer.
package viewer

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupportedPlatform is returned when no default viewer is known.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Viewer launches a file viewer without waiting for it to exit.
type Viewer struct {
	// Command overrides the platform default. It is split on whitespace
	// and the file path is appended as the last argument.
	Command string

	goos  string
	start func(*exec.Cmd) error
}

// New returns a Viewer for the current platform. An empty command uses
// xdg-open, open or cmd start.
func New(command string) *Viewer {
	return &Viewer{
		Command: command,
		goos:    runtime.GOOS,
		start:   (*exec.Cmd).Start,
	}
}

// Open opens path with the default viewer.
func Open(path string) error {
	return New("").Open(path)
}

// Open starts the viewer on path.
func (v *Viewer) Open(path string) error {
	cmd, err := v.Cmd(path)
	if err != nil {
		return err
	}
	if err := v.start(cmd); err != nil {
		return fmt.Errorf("starting %s: %w", cmd.Path, err)
	}
	return nil
}

// Cmd builds the command that would open path.
func (v *Viewer) Cmd(path string) (*exec.Cmd, error) {
	if fields := strings.Fields(v.Command); len(fields) > 0 {
		return exec.Command(fields[0], append(fields[1:], path)...), nil
	}

	switch v.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", path), nil
	case "darwin":
		return exec.Command("open", path), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	default:
		return nil, fmt.Errorf("%s: %w", v.goos, ErrUnsupportedPlatform)
	}
}

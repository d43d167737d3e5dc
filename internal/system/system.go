// Package system answers host questions and runs desktop actions: volume,
// machine info and opening the browser.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var ErrVolumeUnavailable = errors.New("volume control not available")

type Info struct {
	Hostname  string
	OS        string
	Arch      string
	CPUs      int
	GoVersion string
}

func (i Info) String() string {
	osName := i.OS
	if osName != "" {
		osName = strings.ToUpper(osName[:1]) + osName[1:]
	}
	return fmt.Sprintf("You're running %s on %s with %d CPU cores. The host name is %s.",
		osName, i.Arch, i.CPUs, i.Hostname)
}

// Mixer is the subset of mixer.Pactl used for volume commands.
type Mixer interface {
	AdjustVolume(ctx context.Context, delta int) (int, error)
	SetVolume(ctx context.Context, percent int) error
	SetMute(ctx context.Context, muted bool) error
}

// Opener launches a URL in the user's browser.
type Opener func(ctx context.Context, url string) error

type System struct {
	mixer Mixer
	open  Opener
}

// New builds a System. A nil mixer disables volume control, a nil opener
// selects the platform default browser launcher.
func New(mixer Mixer, open Opener) *System {
	if open == nil {
		open = openBrowser
	}
	return &System{mixer: mixer, open: open}
}

func (s *System) Info(context.Context) (Info, error) {
	host, err := os.Hostname()
	if err != nil {
		return Info{}, fmt.Errorf("hostname: %w", err)
	}
	return Info{
		Hostname:  host,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
	}, nil
}

func (s *System) AdjustVolume(ctx context.Context, delta int) (int, error) {
	if s.mixer == nil {
		return 0, ErrVolumeUnavailable
	}
	return s.mixer.AdjustVolume(ctx, delta)
}

func (s *System) SetVolume(ctx context.Context, percent int) error {
	if s.mixer == nil {
		return ErrVolumeUnavailable
	}
	return s.mixer.SetVolume(ctx, percent)
}

func (s *System) SetMute(ctx context.Context, muted bool) error {
	if s.mixer == nil {
		return ErrVolumeUnavailable
	}
	return s.mixer.SetMute(ctx, muted)
}

func (s *System) OpenURL(ctx context.Context, url string) error {
	return s.open(ctx, url)
}

func openBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	go cmd.Wait()
	return nil
}

// Package mixer drives PulseAudio/PipeWire through pactl: master volume
// and per-stream ducking.
package mixer

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultSink = "@DEFAULT_SINK@"
	maxPercent  = 150
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

// Runner executes pactl with the given arguments and returns stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

func execRunner(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "pactl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pactl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

type Pactl struct {
	run Runner
}

// New returns a Pactl that shells out to the pactl binary. A nil runner
// selects the real binary.
func New(run Runner) *Pactl {
	if run == nil {
		run = execRunner
	}
	return &Pactl{run: run}
}

type Stream struct {
	ID      int
	Volume  int
	AppName string
}

// Streams lists the current sink inputs.
func (p *Pactl) Streams(ctx context.Context) ([]Stream, error) {
	out, err := p.run(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, err
	}
	return parseSinkInputs(string(out)), nil
}

func parseSinkInputs(text string) []Stream {
	blocks := strings.Split(text, "Sink Input #")
	var res []Stream

	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		s := Stream{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					s.Volume, _ = strconv.Atoi(m[1])
				}
			}
			// application.name = "Firefox"
			if rest, found := strings.CutPrefix(line, "application.name ="); found && s.AppName == "" {
				s.AppName = strings.Trim(strings.TrimSpace(rest), `"`)
			}
		}

		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}
	return res
}

func clampPercent(v int) int {
	return max(0, min(v, maxPercent))
}

func (p *Pactl) SetStreamVolume(ctx context.Context, id, percent int) error {
	_, err := p.run(ctx, "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", clampPercent(percent)))
	return err
}

// Volume reads the default sink volume in percent (first channel).
func (p *Pactl) Volume(ctx context.Context) (int, error) {
	out, err := p.run(ctx, "get-sink-volume", defaultSink)
	if err != nil {
		return 0, err
	}
	m := percentRe.FindStringSubmatch(string(out))
	if m == nil {
		return 0, fmt.Errorf("unexpected pactl output: %q", strings.TrimSpace(string(out)))
	}
	return strconv.Atoi(m[1])
}

func (p *Pactl) SetVolume(ctx context.Context, percent int) error {
	_, err := p.run(ctx, "set-sink-volume", defaultSink, fmt.Sprintf("%d%%", max(0, min(percent, 100))))
	return err
}

// AdjustVolume changes the default sink volume by delta percent and
// returns the new level.
func (p *Pactl) AdjustVolume(ctx context.Context, delta int) (int, error) {
	cur, err := p.Volume(ctx)
	if err != nil {
		return 0, err
	}
	next := max(0, min(cur+delta, 100))
	if err := p.SetVolume(ctx, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (p *Pactl) SetMute(ctx context.Context, muted bool) error {
	flag := "0"
	if muted {
		flag = "1"
	}
	_, err := p.run(ctx, "set-sink-mute", defaultSink, flag)
	return err
}

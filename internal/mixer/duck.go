package mixer

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"
)

const fadeStep = 10 * time.Millisecond

type fade struct {
	id       int
	from, to int
}

// Ducker lowers every stream except our own while the assistant speaks and
// restores them afterwards.
type Ducker struct {
	pactl     *Pactl
	selfNames []string
	minVolume int

	mu       sync.Mutex
	active   bool
	original map[int]int
}

// NewDucker ignores streams whose application.name is in selfNames.
// Ducked streams never go below minVolume percent.
func NewDucker(p *Pactl, selfNames []string, minVolume int) *Ducker {
	return &Ducker{
		pactl:     p,
		selfNames: slices.Clone(selfNames),
		minVolume: clampPercent(minVolume),
		original:  make(map[int]int),
	}
}

// Duck fades foreign streams to factor of their volume over d.
func (dk *Ducker) Duck(ctx context.Context, factor float64, d time.Duration) error {
	dk.mu.Lock()
	defer dk.mu.Unlock()

	if dk.active {
		return nil
	}

	streams, err := dk.pactl.Streams(ctx)
	if err != nil {
		return fmt.Errorf("list streams: %w", err)
	}

	dk.original = make(map[int]int)
	var fades []fade
	for _, s := range streams {
		if slices.Contains(dk.selfNames, s.AppName) {
			continue
		}
		to := int(math.Round(float64(s.Volume) * factor))
		to = clampPercent(max(to, dk.minVolume))
		dk.original[s.ID] = s.Volume
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: to})
	}

	if err := dk.apply(ctx, fades, d); err != nil {
		return err
	}
	dk.active = true
	return nil
}

// Restore fades ducked streams back to their original volume. Streams that
// appeared after Duck are left alone.
func (dk *Ducker) Restore(ctx context.Context, d time.Duration) error {
	dk.mu.Lock()
	defer dk.mu.Unlock()

	if !dk.active {
		return nil
	}

	streams, err := dk.pactl.Streams(ctx)
	if err != nil {
		return fmt.Errorf("list streams: %w", err)
	}

	var fades []fade
	for _, s := range streams {
		orig, ok := dk.original[s.ID]
		if !ok || slices.Contains(dk.selfNames, s.AppName) {
			continue
		}
		fades = append(fades, fade{id: s.ID, from: s.Volume, to: orig})
	}

	if err := dk.apply(ctx, fades, d); err != nil {
		return err
	}
	dk.original = make(map[int]int)
	dk.active = false
	return nil
}

func (dk *Ducker) Active() bool {
	dk.mu.Lock()
	defer dk.mu.Unlock()
	return dk.active
}

// apply steps every stream linearly from its start to its target volume.
func (dk *Ducker) apply(ctx context.Context, fades []fade, d time.Duration) error {
	if len(fades) == 0 {
		return nil
	}

	steps := max(int(d/fadeStep), 1)
	if d <= 0 {
		steps = 0
	}

	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := 1.0
		if steps > 0 {
			frac = float64(i) / float64(steps)
		}
		for _, f := range fades {
			v := f.from + int(math.Round(float64(f.to-f.from)*frac))
			if err := dk.pactl.SetStreamVolume(ctx, f.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", f.id, err)
			}
		}

		if i < steps {
			time.Sleep(d / time.Duration(steps))
		}
	}
	return nil
}

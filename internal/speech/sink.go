package speech

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"sync"
	"time"
)

// Serialized lets several goroutines share one Sink without interleaving
// their speech. Timer notifications and the main loop both speak through it.
type Serialized struct {
	mu   sync.Mutex
	sink Sink
}

func NewSerialized(s Sink) *Serialized {
	return &Serialized{sink: s}
}

func (s *Serialized) Speak(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Speak(text)
}

type Ducker interface {
	Duck(ctx context.Context, factor float64, d time.Duration) error
	Restore(ctx context.Context, d time.Duration) error
}

type DuckOptions struct {
	Factor  float64
	FadeOut time.Duration
	FadeIn  time.Duration
}

// Ducking lowers other audio streams for the duration of each utterance.
// Mixer failures are logged and never stop the speech itself.
type Ducking struct {
	sink   Sink
	ducker Ducker
	opts   DuckOptions
}

func NewDucking(s Sink, d Ducker, opts DuckOptions) *Ducking {
	if opts.Factor <= 0 || opts.Factor >= 1 {
		opts.Factor = 0.3
	}
	if opts.FadeOut == 0 {
		opts.FadeOut = 150 * time.Millisecond
	}
	if opts.FadeIn == 0 {
		opts.FadeIn = 300 * time.Millisecond
	}
	return &Ducking{sink: s, ducker: d, opts: opts}
}

func (d *Ducking) Speak(text string) error {
	if text == "" {
		return nil
	}

	ctx := context.Background()
	if err := d.ducker.Duck(ctx, d.opts.Factor, d.opts.FadeOut); err != nil {
		log.Warn("Failed to duck other streams", "err", err)
	}
	defer func() {
		if err := d.ducker.Restore(ctx, d.opts.FadeIn); err != nil {
			log.Warn("Failed to restore other streams", "err", err)
		}
	}()

	return d.sink.Speak(text)
}

// Console prints replies prefixed with the assistant name.
type Console struct {
	w    io.Writer
	name string
}

func NewConsole(w io.Writer, name string) *Console {
	return &Console{w: w, name: name}
}

func (c *Console) Speak(text string) error {
	if text == "" {
		return nil
	}
	_, err := fmt.Fprintf(c.w, "%s: %s\n", c.name, text)
	return err
}

// Tee speaks through every sink in order and returns the first error.
type Tee []Sink

func (t Tee) Speak(text string) error {
	var first error
	for _, s := range t {
		if err := s.Speak(text); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Package notify plays the short cue sound used when listening starts and
// when a timer finishes.
package notify

import (
	"fmt"
	"os"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

type Beeper struct {
	path string

	once   sync.Once
	buffer *beep.Buffer
	err    error

	mu sync.Mutex
}

// NewBeeper returns a player for the mp3 at path. Nothing is loaded until
// the first Beep.
func NewBeeper(path string) *Beeper {
	return &Beeper{path: path}
}

func (b *Beeper) load() error {
	b.once.Do(func() {
		f, err := os.Open(b.path)
		if err != nil {
			b.err = fmt.Errorf("open %s: %w", b.path, err)
			return
		}
		defer f.Close()

		streamer, format, err := mp3.Decode(f)
		if err != nil {
			b.err = fmt.Errorf("decode %s: %w", b.path, err)
			return
		}
		defer streamer.Close()

		if err := InitSpeaker(); err != nil {
			b.err = err
			return
		}

		resampled := Resample(streamer, format.SampleRate)
		format.SampleRate = SampleRate
		buf := beep.NewBuffer(format)
		buf.Append(resampled)
		b.buffer = buf
	})
	return b.err
}

// Beep plays the cue and blocks until it finishes.
func (b *Beeper) Beep() error {
	if err := b.load(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	done := make(chan struct{})
	speaker.Play(beep.Seq(b.buffer.Streamer(0, b.buffer.Len()), beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}

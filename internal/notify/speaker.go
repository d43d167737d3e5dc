package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// SampleRate is the speaker output rate. Every sound played by the
// assistant is resampled to it, because speaker.Init resets playback.
const SampleRate beep.SampleRate = 44100

var (
	speakerOnce sync.Once
	speakerErr  error
)

// InitSpeaker opens the output device once for the whole process.
func InitSpeaker() error {
	speakerOnce.Do(func() {
		if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
			speakerErr = fmt.Errorf("init speaker: %w", err)
		}
	})
	return speakerErr
}

// Resample converts s from rate to SampleRate.
func Resample(s beep.Streamer, rate beep.SampleRate) beep.Streamer {
	if rate == SampleRate {
		return s
	}
	return beep.Resample(4, rate, SampleRate, s)
}

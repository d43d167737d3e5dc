// Package audio captures microphone input through portaudio.
package audio

import (
	"context"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

type Options struct {
	// MaxSeconds caps one recording.
	MaxSeconds int
	// SilenceRMS is the frame energy below which a frame counts as silence.
	SilenceRMS float64
	// Silence ends the recording once speech has started.
	Silence time.Duration
	// LeadIn is how long to wait for speech to start before giving up.
	LeadIn time.Duration
}

type Recorder struct {
	opts Options
}

func NewRecorder(opts Options) *Recorder {
	if opts.MaxSeconds <= 0 {
		opts.MaxSeconds = 10
	}
	if opts.SilenceRMS <= 0 {
		opts.SilenceRMS = 0.015
	}
	if opts.Silence <= 0 {
		opts.Silence = 600 * time.Millisecond
	}
	if opts.LeadIn <= 0 {
		opts.LeadIn = 5 * time.Second
	}
	return &Recorder{opts: opts}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures one utterance: it waits for speech, then records until
// a stretch of silence, the length cap or ctx cancellation. It returns no
// samples if nobody spoke.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	seg := newSegmenter(r.opts)
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		keep, done := seg.push(frameRMS(buf))
		if keep {
			out = append(out, buf...)
		}
		if done {
			return out, nil
		}
	}
}

// segmenter decides frame by frame what belongs to the utterance.
type segmenter struct {
	thresh        float64
	silenceFrames int
	leadFrames    int
	maxFrames     int

	frames   int
	speaking bool
	quiet    int
}

func newSegmenter(o Options) *segmenter {
	perSec := SampleRate / frameSize
	return &segmenter{
		thresh:        o.SilenceRMS,
		silenceFrames: max(1, int(o.Silence/(20*time.Millisecond))),
		leadFrames:    max(1, int(o.LeadIn/(20*time.Millisecond))),
		maxFrames:     o.MaxSeconds * perSec,
	}
}

func (s *segmenter) push(rms float64) (keep, done bool) {
	s.frames++

	if rms > s.thresh {
		s.speaking = true
		s.quiet = 0
		keep = true
	} else if s.speaking {
		s.quiet++
		keep = true
		if s.quiet >= s.silenceFrames {
			return keep, true
		}
	} else if s.frames >= s.leadFrames {
		return false, true
	}

	return keep, s.frames >= s.maxFrames
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}

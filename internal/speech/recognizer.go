package speech

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
)

type Recorder interface {
	Record(ctx context.Context) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// Recognizer listens on a microphone and transcribes what it hears.
type Recognizer struct {
	rec     Recorder
	tr      Transcriber
	onStart func()
}

// NewRecognizer wires a recorder to a transcriber. onStart, if set, runs
// right before recording, e.g. to play a beep.
func NewRecognizer(rec Recorder, tr Transcriber, onStart func()) *Recognizer {
	return &Recognizer{rec: rec, tr: tr, onStart: onStart}
}

// markers whisper emits for silence and noise
var nonSpeech = []string{"[BLANK_AUDIO]", "[SILENCE]", "(silence)", "[NOISE]"}

func (r *Recognizer) Listen(ctx context.Context) (string, error) {
	if r.onStart != nil {
		r.onStart()
	}

	pcm, err := r.rec.Record(ctx)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	if len(pcm) == 0 {
		return "", ErrNoSpeech
	}
	log.Debug("Recorded", "samples", len(pcm))

	text, err := r.tr.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	for _, m := range nonSpeech {
		text = strings.ReplaceAll(text, m, "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoSpeech
	}
	log.Info("Transcribed", "text", text)
	return text, nil
}

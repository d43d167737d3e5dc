// Package speech defines the assistant's input and output edges: a
// Listener produces utterances, a Sink speaks replies.
package speech

import (
	"context"
	"errors"
)

// ErrNoSpeech means a listen attempt heard nothing usable. Callers retry.
var ErrNoSpeech = errors.New("no speech recognised")

type Listener interface {
	// Listen blocks until one utterance is available. io.EOF means the
	// source is exhausted.
	Listen(ctx context.Context) (string, error)
}

type Sink interface {
	Speak(text string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(text string) error

func (f SinkFunc) Speak(text string) error { return f(text) }

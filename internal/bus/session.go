package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"sync"

	"voxassist/internal/speech"
)

// Decoder turns an encoded audio payload into 16 kHz mono PCM.
type Decoder func(data []byte) ([]float32, error)

// Session is both the Listener and the Sink of a bus-driven assistant.
// Replies go to whoever sent the last utterance.
type Session struct {
	bus    *Bus
	tr     speech.Transcriber
	decode Decoder

	mu   sync.Mutex
	peer string
}

// NewSession reads utterances from b. Audio payloads need both tr and
// decode; without them audio messages are skipped.
func NewSession(b *Bus, tr speech.Transcriber, decode Decoder) *Session {
	return &Session{bus: b, tr: tr, decode: decode}
}

func (s *Session) Listen(ctx context.Context) (string, error) {
	for {
		m, err := s.bus.Read(ctx)
		if err != nil {
			if IsClosed(err) {
				return "", io.EOF
			}
			if errors.Is(err, ErrBadMessage) {
				log.Warn("Skipping bus frame", "err", err)
				continue
			}
			return "", err
		}
		if m.Kind != KindUtterance && m.Kind != "" {
			log.Debug("Skipping bus message", "kind", m.Kind, "from", m.From)
			continue
		}

		text, err := s.utterance(ctx, m)
		if err != nil {
			log.Error("Failed to read bus utterance", "from", m.From, "err", err)
			continue
		}
		if text == "" {
			continue
		}

		s.mu.Lock()
		s.peer = m.From
		s.mu.Unlock()
		return text, nil
	}
}

func (s *Session) utterance(ctx context.Context, m *Message) (string, error) {
	if len(m.Audio) == 0 {
		return strings.TrimSpace(m.Content), nil
	}
	if s.tr == nil || s.decode == nil {
		return "", errors.New("audio payloads are not supported without a transcriber")
	}

	pcm, err := s.decode(m.Audio)
	if err != nil {
		return "", fmt.Errorf("decode audio: %w", err)
	}
	text, err := s.tr.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (s *Session) Speak(text string) error {
	if text == "" {
		return nil
	}
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()

	return s.bus.Write(&Message{To: peer, Kind: KindReply, Content: text})
}

// Package music plays mp3 and wav files from a local folder through the
// shared speaker.
package music

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "log/slog"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"voxassist/internal/notify"
)

var ErrUnsupported = errors.New("unsupported music file")

type Player struct {
	dir string

	mu     sync.Mutex
	ctrl   *beep.Ctrl
	stream beep.StreamSeekCloser
}

func New(dir string) *Player {
	return &Player{dir: dir}
}

// Tracks lists the playable files in the folder in name order. A missing
// folder has no tracks.
func (p *Player) Tracks() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read music folder: %w", err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !playable(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(p.dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func playable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav":
		return true
	}
	return false
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	default:
		err = ErrUnsupported
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, format, nil
}

// Play stops whatever is playing and starts track in the background.
func (p *Player) Play(track string) error {
	s, format, err := decode(track)
	if err != nil {
		return err
	}
	if err := notify.InitSpeaker(); err != nil {
		s.Close()
		return err
	}

	p.Stop()

	ctrl := &beep.Ctrl{Streamer: notify.Resample(s, format.SampleRate)}
	p.mu.Lock()
	p.ctrl, p.stream = ctrl, s
	p.mu.Unlock()

	speaker.Play(ctrl)
	log.Info("Playing music", "track", track)
	return nil
}

// Stop halts the current track, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return
	}

	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()

	if err := p.stream.Close(); err != nil {
		log.Warn("Failed to close track", "err", err)
	}
	p.ctrl, p.stream = nil, nil
}

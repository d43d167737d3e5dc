// Package dispatch routes a recognised utterance to exactly one handler
// through an ordered, first-match-wins rule list.
package dispatch

import (
	"context"
	log "log/slog"
	"math/rand/v2"
	"time"

	"voxassist/internal/memory"
	"voxassist/internal/news"
	"voxassist/internal/system"
	"voxassist/internal/timer"
	"voxassist/internal/weather"
)

type LanguageModel interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type WeatherService interface {
	Current(ctx context.Context, city string) (weather.Reading, error)
}

type NewsService interface {
	Headlines(ctx context.Context, topic string) ([]news.Headline, error)
}

type SystemService interface {
	Info(ctx context.Context) (system.Info, error)
	AdjustVolume(ctx context.Context, delta int) (int, error)
	SetVolume(ctx context.Context, percent int) error
	SetMute(ctx context.Context, muted bool) error
	OpenURL(ctx context.Context, url string) error
}

// MusicPlayer plays local audio files. Tracks lists what can be played,
// an empty list means the folder has nothing playable.
type MusicPlayer interface {
	Tracks() ([]string, error)
	Play(track string) error
	Stop()
}

// State is the mutable assistant state shared by the rules.
type State struct {
	Memory *memory.Memory
	Timers *timer.Manager
}

// Services are the external collaborators. A nil field disables the
// matching feature; its intents answer with a "not available" message.
type Services struct {
	LLM     LanguageModel
	Weather WeatherService
	News    NewsService
	System  SystemService
	Music   MusicPlayer
}

type Options struct {
	Name         string
	DefaultCity  string
	Canned       CannedTable
	Fallbacks    []string
	EnableSystem bool
	EnableVolume bool

	Now  func() time.Time
	Pick func(n int) int
}

// Reply is the outcome of one dispatch. Text is empty only for an empty
// utterance.
type Reply struct {
	Text   string
	Intent Intent
}

type Dispatcher struct {
	state State
	svc   Services
	opts  Options
	rules []Rule
}

func New(state State, svc Services, opts Options) *Dispatcher {
	if state.Memory == nil {
		state.Memory = memory.New(memory.DefaultMaxItems)
	}
	if state.Timers == nil {
		state.Timers = timer.NewManager(timer.Options{})
	}
	if opts.Name == "" {
		opts.Name = "Vox"
	}
	if opts.DefaultCity == "" {
		opts.DefaultCity = "London"
	}
	if opts.Canned == nil {
		opts.Canned = DefaultCanned(opts.Name)
	}
	if opts.Fallbacks == nil {
		opts.Fallbacks = DefaultFallbacks
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}

	d := &Dispatcher{state: state, svc: svc, opts: opts}
	d.rules = d.buildRules()
	return d
}

// Rules returns the rule list in evaluation order.
func (d *Dispatcher) Rules() []Rule {
	return append([]Rule(nil), d.rules...)
}

func (d *Dispatcher) State() State { return d.state }

// Dispatch answers one utterance. The second result is false only when
// the user asked to exit.
func (d *Dispatcher) Dispatch(ctx context.Context, utterance string) (Reply, bool) {
	u := Normalize(utterance)
	if u == "" {
		return Reply{}, true
	}

	for _, r := range d.rules {
		if !r.Match(u) {
			continue
		}
		text, ok := r.Handle(ctx, u)
		if !ok {
			log.Debug("Rule fell through", "intent", r.Intent)
			continue
		}
		log.Info("Dispatched", "intent", r.Intent, "utterance", u)
		return Reply{Text: text, Intent: r.Intent}, r.Intent != Exit
	}

	// Unreachable with the built-in rules: the fallback rule always answers.
	return Reply{Text: rephrase, Intent: Fallback}, true
}

func (d *Dispatcher) pick(options []string) string {
	return options[d.opts.Pick(len(options))]
}

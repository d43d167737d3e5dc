package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	log "log/slog"

	"voxassist/internal/audio"
	"voxassist/internal/bus"
	"voxassist/internal/config"
	"voxassist/internal/dispatch"
	"voxassist/internal/ipc"
	"voxassist/internal/llm"
	"voxassist/internal/mixer"
	"voxassist/internal/music"
	"voxassist/internal/news"
	"voxassist/internal/notify"
	"voxassist/internal/speech"
	"voxassist/internal/system"
	"voxassist/internal/timer"
	"voxassist/internal/tts"
	"voxassist/internal/weather"
	"voxassist/pkg/audioconv"
	"voxassist/pkg/stt"
)

// pactl application names of our own speech output, never ducked
var selfStreams = []string{"voxassist", "eSpeak", "espeak-ng"}

// services builds the online collaborators. One that cannot be built stays
// nil, which the dispatcher answers with a "not available" reply.
func services(cfg *config.Config, hc *http.Client) dispatch.Services {
	var svc dispatch.Services

	if c, err := llm.New(llm.Config{
		APIKey:            cfg.Credentials.OpenAIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Assistant:         cfg.Assistant.Name,
		MaxTokens:         cfg.LLM.MaxTokens,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		HTTPClient:        hc,
	}); err == nil {
		svc.LLM = c
	} else {
		log.Warn("Language model disabled", "err", err)
	}

	if c, err := weather.New(weather.Config{
		APIKey:  cfg.Credentials.WeatherKey,
		BaseURL: cfg.Weather.BaseURL,
		Units:   cfg.Weather.Units,
		HTTP:    hc,
	}); err == nil {
		svc.Weather = c
	} else {
		log.Warn("Weather disabled", "err", err)
	}

	if c, err := news.New(news.Config{
		APIKey:      cfg.Credentials.NewsKey,
		BaseURL:     cfg.News.BaseURL,
		Country:     cfg.News.Country,
		MaxArticles: cfg.News.MaxArticles,
		HTTP:        hc,
	}); err == nil {
		svc.News = c
	} else {
		log.Warn("News disabled", "err", err)
	}

	if cfg.System.EnableCommands {
		var mix system.Mixer
		if cfg.System.EnableVolume {
			mix = mixer.New(nil)
		}
		svc.System = system.New(mix, nil)
	}

	if cfg.Music.Folder != "" {
		svc.Music = music.New(cfg.Music.Folder)
	}
	return svc
}

// assistant owns the input and output edges picked by the input mode.
type assistant struct {
	in      speech.Listener
	out     *speech.Serialized
	beeper  *notify.Beeper
	closers []func()
}

func newAssistant(ctx context.Context, cfg *config.Config) (*assistant, error) {
	a := &assistant{beeper: notify.NewBeeper(cfg.Assistant.Beep)}
	console := speech.NewConsole(os.Stdout, cfg.Assistant.Name)

	var err error
	switch cfg.Listen.Input {
	case config.InputStdin:
		a.in = speech.NewLineListener(os.Stdin)
		a.out = speech.NewSerialized(console)

	case config.InputBus:
		err = a.wireBus(ctx, cfg, console)

	default:
		err = a.wireMic(cfg, console)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *assistant) wireMic(cfg *config.Config, console speech.Sink) error {
	rec := audio.NewRecorder(audio.Options{MaxSeconds: cfg.Listen.MaxSeconds})
	if err := rec.Init(); err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	a.closers = append(a.closers, rec.Close)
	log.Debug("Loaded recorder")

	tr, err := stt.NewTranscriber(cfg.Listen.Model, stt.Options{Language: cfg.Listen.Language})
	if err != nil {
		return fmt.Errorf("init whisper: %w", err)
	}
	a.closers = append(a.closers, func() { _ = tr.Close() })
	log.Debug("Loaded whisper", "model", cfg.Listen.Model)

	var voice speech.Sink = tts.New(cfg.Assistant.Voice, cfg.Assistant.Rate)
	if cfg.System.Duck {
		ducker := mixer.NewDucker(mixer.New(nil), selfStreams, 10)
		voice = speech.NewDucking(voice, ducker, speech.DuckOptions{})
	}
	a.out = speech.NewSerialized(speech.Tee{console, voice})

	mic := speech.NewRecognizer(rec, tr, a.beep)
	if cfg.Listen.Continuous {
		a.in = mic
		return nil
	}

	reqs := make(chan ipc.ControlMessage, 4)
	srv, err := ipc.Listen(cfg.Listen.Socket, func(m ipc.ControlMessage) {
		select {
		case reqs <- m:
		default:
			log.Warn("Control request dropped, assistant busy", "cmd", m.Cmd)
		}
	})
	if err != nil {
		return fmt.Errorf("ipc server: %w", err)
	}
	a.closers = append(a.closers, func() { _ = srv.Close() })
	log.Info("Waiting for triggers", "socket", srv.Addr())

	a.in = &triggered{reqs: reqs, mic: mic}
	return nil
}

func (a *assistant) wireBus(ctx context.Context, cfg *config.Config, console speech.Sink) error {
	b, err := bus.Dial(ctx, cfg.Bus.URL, cfg.Bus.Name)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = b.Close() })

	// audio payloads need whisper, text utterances work without it
	var (
		tr     speech.Transcriber
		decode bus.Decoder
	)
	if t, err := stt.NewTranscriber(cfg.Listen.Model, stt.Options{Language: cfg.Listen.Language}); err == nil {
		a.closers = append(a.closers, func() { _ = t.Close() })
		tr = t
		decode = func(data []byte) ([]float32, error) {
			return audioconv.Decode(data, audioconv.Options{MaxSamples: cfg.Listen.MaxSeconds * audioconv.TargetRate})
		}
	} else {
		log.Warn("Bus audio disabled", "err", err)
	}

	s := bus.NewSession(b, tr, decode)
	a.in = s
	a.out = speech.NewSerialized(speech.Tee{console, s})
	return nil
}

func (a *assistant) beep() {
	if err := a.beeper.Beep(); err != nil {
		log.Warn("Failed to beep", "err", err)
	}
}

func (a *assistant) say(text string) {
	if err := a.out.Speak(text); err != nil {
		log.Error("Failed to voice out", "err", err)
	}
}

func (a *assistant) timerDone(r timer.Record) {
	a.beep()
	a.say(fmt.Sprintf("Time's up! Your %d second timer is done.", r.Seconds))
}

func (a *assistant) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// triggered waits for voxassist-ctl: "trigger" listens once on the
// microphone, "say" injects typed text.
type triggered struct {
	reqs <-chan ipc.ControlMessage
	mic  speech.Listener
}

func (t *triggered) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case m := <-t.reqs:
		switch m.Cmd {
		case ipc.CmdTrigger:
			return t.mic.Listen(ctx)
		case ipc.CmdSay:
			if m.Text == "" {
				return "", speech.ErrNoSpeech
			}
			return m.Text, nil
		}
		log.Warn("Unknown command", "cmd", m.Cmd)
		return "", speech.ErrNoSpeech
	}
}

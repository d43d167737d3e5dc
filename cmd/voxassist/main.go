package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"
	log "log/slog"

	"voxassist/internal/config"
	"voxassist/internal/dispatch"
	"voxassist/internal/memory"
	"voxassist/internal/proxy"
	"voxassist/internal/speech"
	"voxassist/internal/timer"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	configPath := cli.StringP("config", "c", "", "YAML config file")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks5 proxy address, empty dials directly")
	input := cli.StringP("input", "i", "", "Input mode: mic, stdin or bus")
	busURL := cli.String("bus", "", "Bus websocket url")
	model := cli.StringP("model", "m", "", "Whisper model path")
	beepPath := cli.String("beep", "", "Beep sound path")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevelMap[*logLevel],
		TimeFormat: time.Kitchen,
	})))

	log.Info("Booting up")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	if err := cfg.LoadCredentials(*envFile); err != nil {
		log.Error("Failed to load credentials", "err", err)
		os.Exit(1)
	}

	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}
	if *input != "" {
		cfg.Listen.Input = *input
	}
	if *busURL != "" {
		cfg.Bus.URL = *busURL
	}
	if *model != "" {
		cfg.Listen.Model = *model
	}
	if *beepPath != "" {
		cfg.Assistant.Beep = *beepPath
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid config", "err", err)
		os.Exit(1)
	}
	log.Debug("Loaded config", "input", cfg.Listen.Input, "assistant", cfg.Assistant.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, 0)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	a, err := newAssistant(ctx, cfg)
	if err != nil {
		log.Error("Failed to start assistant", "input", cfg.Listen.Input, "err", err)
		os.Exit(1)
	}
	defer a.Close()

	timers := timer.NewManager(timer.Options{
		MaxSeconds: cfg.Timer.MaxSeconds,
		OnDone:     a.timerDone,
	})
	defer timers.Close()

	d := dispatch.New(
		dispatch.State{Memory: memory.New(cfg.Memory.MaxItems), Timers: timers},
		services(cfg, httpClient),
		dispatch.Options{
			Name:         cfg.Assistant.Name,
			DefaultCity:  cfg.Weather.DefaultCity,
			Canned:       cfg.CannedTable(),
			EnableSystem: cfg.System.EnableCommands,
			EnableVolume: cfg.System.EnableVolume,
		},
	)

	log.Info("Boot up - successful")
	a.say(fmt.Sprintf("Hello! I'm %s. How can I help you today?", cfg.Assistant.Name))

	run(ctx, d, a.in, a.say)
	log.Info("Shutting down")
}

// run is the listen, dispatch, speak loop. It returns on exit intents, an
// exhausted input or a cancelled ctx.
func run(ctx context.Context, d *dispatch.Dispatcher, in speech.Listener, say func(string)) {
	for {
		u, err := in.Listen(ctx)
		switch {
		case ctx.Err() != nil, errors.Is(err, io.EOF):
			return
		case errors.Is(err, speech.ErrNoSpeech):
			log.Debug("Nothing heard")
			continue
		case err != nil:
			log.Error("Failed to listen", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		log.Info("Heard", "utterance", u)
		reply, more := d.Dispatch(ctx, u)
		if reply.Text != "" {
			say(reply.Text)
		}
		if !more {
			return
		}
	}
}

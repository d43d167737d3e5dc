// Package config loads assistant settings: built-in defaults, then an
// optional YAML file, then credentials from .env and the environment.
// Command line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"voxassist/internal/dispatch"
)

const (
	InputMic   = "mic"
	InputStdin = "stdin"
	InputBus   = "bus"
)

type Config struct {
	Assistant AssistantConfig `yaml:"assistant"`
	Memory    MemoryConfig    `yaml:"memory"`
	Timer     TimerConfig     `yaml:"timer"`
	Weather   WeatherConfig   `yaml:"weather"`
	News      NewsConfig      `yaml:"news"`
	LLM       LLMConfig       `yaml:"llm"`
	System    SystemConfig    `yaml:"system"`
	Listen    ListenConfig    `yaml:"listen"`
	Bus       BusConfig       `yaml:"bus"`
	Music     MusicConfig     `yaml:"music"`
	Proxy     string          `yaml:"proxy"`

	// Canned entries are searched after the built-in table.
	Canned []dispatch.CannedEntry `yaml:"canned"`

	Credentials Credentials `yaml:"-"`
}

type AssistantConfig struct {
	Name  string `yaml:"name"`
	Voice string `yaml:"voice"`
	Rate  int    `yaml:"rate"`
	Beep  string `yaml:"beep"`
}

type MemoryConfig struct {
	MaxItems int `yaml:"max_items"`
}

type TimerConfig struct {
	MaxSeconds int `yaml:"max_seconds"`
}

type WeatherConfig struct {
	DefaultCity string `yaml:"default_city"`
	Units       string `yaml:"units"`
	BaseURL     string `yaml:"base_url"`
}

type NewsConfig struct {
	Country     string `yaml:"country"`
	MaxArticles int    `yaml:"max_articles"`
	BaseURL     string `yaml:"base_url"`
}

type LLMConfig struct {
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	MaxTokens         int           `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

type SystemConfig struct {
	EnableCommands bool `yaml:"enable_commands"`
	EnableVolume   bool `yaml:"enable_volume"`
	Duck           bool `yaml:"duck"`
}

type ListenConfig struct {
	Input      string `yaml:"input"`
	MaxSeconds int    `yaml:"max_seconds"`
	Language   string `yaml:"language"`
	Model      string `yaml:"model"`
	Socket     string `yaml:"socket"`
	// Continuous listens again right after each reply instead of waiting
	// for a trigger.
	Continuous bool `yaml:"continuous"`
}

type BusConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// MusicConfig points at a folder of mp3 and wav files. An empty folder
// disables music.
type MusicConfig struct {
	Folder string `yaml:"folder"`
}

type Credentials struct {
	OpenAIKey  string
	WeatherKey string
	NewsKey    string
}

func Default() *Config {
	return &Config{
		Assistant: AssistantConfig{Name: "Vox", Voice: "en", Beep: "beep.mp3"},
		Memory:    MemoryConfig{MaxItems: 50},
		Timer:     TimerConfig{MaxSeconds: 3600},
		Weather:   WeatherConfig{DefaultCity: "London", Units: "metric"},
		News:      NewsConfig{Country: "us", MaxArticles: 5},
		LLM: LLMConfig{
			Model:             "gpt-5-nano",
			MaxTokens:         150,
			Timeout:           30 * time.Second,
			RequestsPerMinute: 20,
		},
		System: SystemConfig{EnableCommands: true},
		Listen: ListenConfig{
			Input:      InputMic,
			MaxSeconds: 10,
			Language:   "auto",
			Model:      "third_party/whisper.cpp/models/ggml-base.en.bin",
		},
		Bus:   BusConfig{URL: "ws://localhost:8092/ws", Name: "vox"},
		Music: MusicConfig{Folder: "music"},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults restores defaults a file explicitly zeroed or left blank.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Assistant.Name == "" {
		cfg.Assistant.Name = def.Assistant.Name
	}
	if cfg.Assistant.Voice == "" {
		cfg.Assistant.Voice = def.Assistant.Voice
	}
	if cfg.Weather.DefaultCity == "" {
		cfg.Weather.DefaultCity = def.Weather.DefaultCity
	}
	if cfg.Weather.Units == "" {
		cfg.Weather.Units = def.Weather.Units
	}
	if cfg.News.Country == "" {
		cfg.News.Country = def.News.Country
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.Listen.Input == "" {
		cfg.Listen.Input = def.Listen.Input
	}
	if cfg.Listen.Language == "" {
		cfg.Listen.Language = def.Listen.Language
	}
	if cfg.Bus.Name == "" {
		cfg.Bus.Name = def.Bus.Name
	}
}

// LoadCredentials reads API keys from envFile, if it exists, and the
// process environment. Variables already set in the environment win.
func (c *Config) LoadCredentials(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env %s: %w", envFile, err)
		}
	}
	c.Credentials = Credentials{
		OpenAIKey:  os.Getenv("OPENAI_API_KEY"),
		WeatherKey: os.Getenv("OPENWEATHER_API_KEY"),
		NewsKey:    os.Getenv("NEWS_API_KEY"),
	}
	return nil
}

func (c *AssistantConfig) validate() error {
	if c.Rate < 0 {
		return fmt.Errorf("assistant rate must not be negative")
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Assistant.validate(); err != nil {
		return err
	}
	if c.Memory.MaxItems <= 0 {
		return fmt.Errorf("memory max_items must be positive, got %d", c.Memory.MaxItems)
	}
	if c.Timer.MaxSeconds <= 0 {
		return fmt.Errorf("timer max_seconds must be positive, got %d", c.Timer.MaxSeconds)
	}

	validUnits := map[string]bool{"metric": true, "imperial": true, "standard": true}
	if !validUnits[c.Weather.Units] {
		return fmt.Errorf("invalid weather units: %s (must be metric, imperial, or standard)", c.Weather.Units)
	}
	if c.News.MaxArticles <= 0 {
		return fmt.Errorf("news max_articles must be positive, got %d", c.News.MaxArticles)
	}

	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout must not be negative")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm requests_per_minute must not be negative")
	}

	validInputs := map[string]bool{InputMic: true, InputStdin: true, InputBus: true}
	if !validInputs[c.Listen.Input] {
		return fmt.Errorf("invalid input: %s (must be mic, stdin, or bus)", c.Listen.Input)
	}
	if c.Listen.MaxSeconds <= 0 {
		return fmt.Errorf("listen max_seconds must be positive, got %d", c.Listen.MaxSeconds)
	}
	if c.Listen.Input == InputBus && c.Bus.URL == "" {
		return fmt.Errorf("bus url is required for bus input")
	}

	for i, e := range c.Canned {
		if e.Trigger == "" || len(e.Replies) == 0 {
			return fmt.Errorf("canned entry %d needs a trigger and at least one reply", i)
		}
	}
	return nil
}

// CannedTable returns the built-in table followed by the configured entries.
func (c *Config) CannedTable() dispatch.CannedTable {
	table := dispatch.DefaultCanned(c.Assistant.Name)
	for _, e := range c.Canned {
		table = append(table, dispatch.CannedEntry{Trigger: dispatch.Normalize(e.Trigger), Replies: e.Replies})
	}
	return table
}

// Package llm answers open-ended questions through an OpenAI compatible
// chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"golang.org/x/time/rate"
)

var (
	ErrUnavailable = errors.New("language model not configured")
	ErrEmptyAnswer = errors.New("empty answer")
)

const systemPrompt = `You are %s, a friendly voice assistant.
Answer naturally and conversationally in plain spoken sentences.
Keep answers short: two or three sentences at most.
Do not use markdown, lists, code blocks or emoji; the answer is read aloud.`

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Assistant string
	MaxTokens int
	Timeout   time.Duration
	// RequestsPerMinute caps outgoing calls. Zero disables the limit.
	RequestsPerMinute int
	HTTPClient        *http.Client
}

type Client struct {
	api       openai.Client
	model     shared.ChatModel
	prompt    string
	maxTokens int
	timeout   time.Duration
	limiter   *rate.Limiter
}

// New builds a client. It returns ErrUnavailable when no API key is set.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.ChatModelGPT5Nano)
	}
	if cfg.Assistant == "" {
		cfg.Assistant = "Vox"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	c := &Client{
		api:       openai.NewClient(opts...),
		model:     shared.ChatModel(cfg.Model),
		prompt:    fmt.Sprintf(systemPrompt, cfg.Assistant),
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c, nil
}

// Ask sends one prompt and returns the trimmed answer. It never retries.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.prompt),
			openai.UserMessage(prompt),
		},
		Model: c.model,
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
	}

	log.Debug("Asking language model", "model", c.model, "prompt", prompt)

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}

	log.Debug("Language model answered", "answer", answer)
	return answer, nil
}

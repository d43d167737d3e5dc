// Package news fetches top headlines from NewsAPI.
package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var ErrUnavailable = errors.New("news service not configured")

const DefaultBaseURL = "https://newsapi.org/v2/top-headlines"

type Headline struct {
	Title  string
	Source string
	URL    string
}

type Config struct {
	APIKey      string
	BaseURL     string
	Country     string
	MaxArticles int
	HTTP        *http.Client
}

type Client struct {
	key     string
	base    string
	country string
	max     int
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = 5
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		key:     cfg.APIKey,
		base:    cfg.BaseURL,
		country: cfg.Country,
		max:     cfg.MaxArticles,
		http:    cfg.HTTP,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}, nil
}

// Headlines returns up to MaxArticles top headlines, filtered by topic when
// one is given.
func (c *Client) Headlines(ctx context.Context, topic string) ([]Headline, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("country", c.country)
	q.Set("pageSize", strconv.Itoa(c.max))
	if topic != "" {
		q.Set("q", topic)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read news: %w", err)
	}

	doc := gjson.ParseBytes(body)
	if resp.StatusCode != http.StatusOK || doc.Get("status").String() != "ok" {
		return nil, fmt.Errorf("news api: %s: %s", resp.Status, doc.Get("message").String())
	}

	var out []Headline
	doc.Get("articles").ForEach(func(_, a gjson.Result) bool {
		title := a.Get("title").String()
		if title == "" || title == "[Removed]" {
			return true
		}
		out = append(out, Headline{
			Title:  title,
			Source: a.Get("source.name").String(),
			URL:    a.Get("url").String(),
		})
		return len(out) < c.max
	})

	log.Debug("News fetched", "topic", topic, "count", len(out))
	return out, nil
}

// Package weather looks up current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var (
	ErrUnavailable = errors.New("weather service not configured")
	ErrNotFound    = errors.New("city not found")
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

type Reading struct {
	City        string
	Description string
	Temperature float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
	Units       string
}

// Symbol returns the spoken temperature unit.
func (r Reading) Symbol() string {
	switch r.Units {
	case "imperial":
		return "degrees Fahrenheit"
	case "standard":
		return "Kelvin"
	}
	return "degrees Celsius"
}

func (r Reading) String() string {
	return fmt.Sprintf("The weather in %s is %s with a temperature of %.1f %s, feels like %.1f. Humidity is %d percent.",
		r.City, r.Description, r.Temperature, r.Symbol(), r.FeelsLike, r.Humidity)
}

type Config struct {
	APIKey  string
	BaseURL string
	Units   string
	HTTP    *http.Client
}

type Client struct {
	key     string
	base    string
	units   string
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
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		key:   cfg.APIKey,
		base:  cfg.BaseURL,
		units: cfg.Units,
		http:  cfg.HTTP,
		// The free tier allows 60 calls a minute.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}, nil
}

func (c *Client) Current(ctx context.Context, city string) (Reading, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Reading{}, fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.key)
	q.Set("units", c.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+q.Encode(), nil)
	if err != nil {
		return Reading{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Reading{}, fmt.Errorf("read weather: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Reading{}, fmt.Errorf("%w: %s", ErrNotFound, city)
	case resp.StatusCode != http.StatusOK:
		return Reading{}, fmt.Errorf("weather api: %s: %s", resp.Status, gjson.GetBytes(body, "message").String())
	}

	doc := gjson.ParseBytes(body)
	if !doc.Get("main.temp").Exists() {
		return Reading{}, fmt.Errorf("weather api: unexpected payload")
	}

	r := Reading{
		City:        doc.Get("name").String(),
		Description: doc.Get("weather.0.description").String(),
		Temperature: doc.Get("main.temp").Float(),
		FeelsLike:   doc.Get("main.feels_like").Float(),
		Humidity:    int(doc.Get("main.humidity").Int()),
		WindSpeed:   doc.Get("wind.speed").Float(),
		Units:       c.units,
	}
	if r.City == "" {
		r.City = city
	}
	log.Debug("Weather fetched", "city", r.City, "temp", r.Temperature)
	return r, nil
}

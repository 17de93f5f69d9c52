package fxrates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrUnavailable     = errors.New("rate provider unavailable")
	ErrUnknownCurrency = errors.New("currency not quoted by provider")
)

const (
	DefaultURL           = "https://economia.awesomeapi.com.br/json/last"
	maxResponseSizeBytes = 1 << 20
)

type Config struct {
	URL     string        `envconfig:"URL" default:"https://economia.awesomeapi.com.br/json/last"`
	Timeout time.Duration `split_words:"true" default:"10s"`
	Base    string        `split_words:"true" default:"BRL"`
}

// Quote is one "<code>-<base>" bid price.
type Quote struct {
	Code      string    `json:"code"`
	Base      string    `json:"base"`
	Rate      float64   `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
}

// Client reads the latest quotes from an AwesomeAPI compatible endpoint.
// Identical concurrent lookups share a single upstream request.
type Client struct {
	baseURL    string
	base       string
	httpClient *http.Client
	group      singleflight.Group
	now        func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	base := strings.ToUpper(strings.TrimSpace(cfg.Base))
	if base == "" {
		base = "BRL"
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

func (c *Client) Base() string {
	return c.base
}

// Latest returns the quotes for codes keyed by code. Codes the provider does
// not quote are absent from the result.
func (c *Client) Latest(ctx context.Context, codes []string) (map[string]Quote, error) {
	pairs := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		pairs = append(pairs, code+"-"+c.base)
	}
	if len(pairs) == 0 {
		return map[string]Quote{}, nil
	}
	sort.Strings(pairs)
	key := strings.Join(pairs, ",")

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	shared := v.(map[string]Quote)
	out := make(map[string]Quote, len(shared))
	for k, q := range shared {
		out[k] = q
	}
	return out, nil
}

type awesomeQuote struct {
	Code      string `json:"code"`
	CodeIn    string `json:"codein"`
	Bid       string `json:"bid"`
	Timestamp string `json:"timestamp"`
}

func (c *Client) fetch(ctx context.Context, pairs string) (map[string]Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+pairs, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, pairs)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: http status=%d", ErrUnavailable, resp.StatusCode)
	}

	var parsed map[string]awesomeQuote
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	out := make(map[string]Quote, len(parsed))
	for key, q := range parsed {
		code := strings.ToUpper(strings.TrimSpace(q.Code))
		if code == "" {
			code = strings.TrimSuffix(strings.ToUpper(key), c.base)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(q.Bid), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("%w: malformed bid %q for %s", ErrUnavailable, q.Bid, code)
		}
		out[code] = Quote{
			Code:      code,
			Base:      c.base,
			Rate:      rate,
			Timestamp: c.parseTimestamp(q.Timestamp),
		}
	}
	return out, nil
}

func (c *Client) parseTimestamp(raw string) time.Time {
	if secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return c.now().UTC()
}

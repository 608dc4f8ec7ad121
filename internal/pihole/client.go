// Package pihole implements the metrics provider capability set against the
// Pi-hole admin API (admin/api.php). All methods are context-aware, share a
// per-client rate limiter, and retry on transient errors (429, 5xx).
package pihole

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	pimonerrors "github.com/rileyhilliard/pimon/internal/errors"
	"github.com/rileyhilliard/pimon/internal/logger"
	"github.com/rileyhilliard/pimon/internal/metrics"
)

const (
	apiPath          = "/admin/api.php"
	maxRetries       = 3
	defaultTimeout   = 10 * time.Second
	defaultRate      = 10.0
	defaultRetryBase = 250 * time.Millisecond
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options tunes a Client. Zero values select defaults.
type Options struct {
	Timeout    time.Duration
	RatePerSec float64
	RetryBase  time.Duration
	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client talks to one Pi-hole instance.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryBase  time.Duration
	log        logger.Logger
}

var _ metrics.Provider = (*Client)(nil)
var _ metrics.Controller = (*Client)(nil)

// New creates a client for the Pi-hole at host (a base URL such as
// "http://192.168.1.2"). apiKey may be empty for read-only access.
func New(host, apiKey string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = defaultRate
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewEnvLogger("[pihole]")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	burst := int(opts.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		endpoint:   strings.TrimRight(host, "/") + apiPath,
		apiKey:     apiKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RatePerSec), burst),
		retryBase:  opts.RetryBase,
		log:        opts.Logger,
	}
}

// Controller returns the write capability, or nil when the client has no API
// key.
func (c *Client) Controller() metrics.Controller {
	if c.apiKey == "" {
		return nil
	}
	return c
}

// Summary fetches the headline counters.
func (c *Client) Summary(ctx context.Context) (*metrics.Summary, error) {
	params := url.Values{}
	params.Set("summaryRaw", "")

	var raw rawSummary
	if err := c.get(ctx, params, false, &raw); err != nil {
		return nil, wrap(err, "summary")
	}
	s := raw.normalize()
	return &s, nil
}

// TopSources fetches the most active clients. Requires an API key.
func (c *Client) TopSources(ctx context.Context, limit int) (metrics.Ranking, error) {
	params := url.Values{}
	params.Set("topClients", limitParam(limit))

	var raw struct {
		TopSources phpRanking `json:"top_sources"`
	}
	if err := c.get(ctx, params, true, &raw); err != nil {
		return nil, wrap(err, "top sources")
	}
	return raw.TopSources.ranking(), nil
}

// TopItems fetches the most requested permitted and blocked domains.
// Requires an API key.
func (c *Client) TopItems(ctx context.Context, limit int) (metrics.TopItems, error) {
	params := url.Values{}
	params.Set("topItems", limitParam(limit))

	var raw struct {
		TopQueries phpRanking `json:"top_queries"`
		TopAds     phpRanking `json:"top_ads"`
	}
	if err := c.get(ctx, params, true, &raw); err != nil {
		return metrics.TopItems{}, wrap(err, "top items")
	}
	return metrics.TopItems{
		Queries: raw.TopQueries.ranking(),
		Blocked: raw.TopAds.ranking(),
	}, nil
}

// QueriesOverTime fetches total queries in 10-minute buckets, ordered by
// ascending timestamp.
func (c *Client) QueriesOverTime(ctx context.Context) (metrics.TimeSeries, error) {
	params := url.Values{}
	params.Set("overTimeData10mins", "")

	var raw struct {
		DomainsOverTime phpRanking `json:"domains_over_time"`
	}
	if err := c.get(ctx, params, false, &raw); err != nil {
		return nil, wrap(err, "queries over time")
	}
	return raw.DomainsOverTime.series(), nil
}

// Enable turns blocking on.
func (c *Client) Enable(ctx context.Context) error {
	params := url.Values{}
	params.Set("enable", "")
	return c.setStatus(ctx, params, "enabled")
}

// Disable turns blocking off for the given number of seconds. Zero disables
// until re-enabled.
func (c *Client) Disable(ctx context.Context, seconds int) error {
	params := url.Values{}
	if seconds > 0 {
		params.Set("disable", strconv.Itoa(seconds))
	} else {
		params.Set("disable", "")
	}
	return c.setStatus(ctx, params, "disabled")
}

func (c *Client) setStatus(ctx context.Context, params url.Values, want string) error {
	var raw struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, params, true, &raw); err != nil {
		return wrap(err, "set status "+want)
	}
	if raw.Status != want {
		return wrap(fmt.Errorf("server reported status %q", raw.Status), "set status "+want)
	}
	return nil
}

// get performs one API call with rate limiting and retries, decoding the
// JSON body into out.
func (c *Client) get(ctx context.Context, params url.Values, needsAuth bool, out interface{}) error {
	if needsAuth && c.apiKey == "" {
		return ErrUnauthorized
	}
	if c.apiKey != "" {
		params.Set("auth", c.apiKey)
	}

	reqURL := c.endpoint + "?" + encodeParams(params)
	c.log.Debug("request %s", c.redact(reqURL))

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryBase
			c.log.Debug("retrying after %s (attempt %d)", backoff, attempt+1)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "pimon")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http: %s", c.redact(err.Error()))
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			continue
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return ErrUnauthorized
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		// The API answers a rejected or missing key with an empty PHP array.
		if trimmed := bytes.TrimSpace(body); bytes.Equal(trimmed, []byte("[]")) {
			if needsAuth {
				return ErrUnauthorized
			}
			return fmt.Errorf("empty response")
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

// redact hides the API key in URLs and error strings before they are logged.
func (c *Client) redact(s string) string {
	if c.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, c.apiKey, "REDACTED")
}

// encodeParams renders flag-style keys ("summaryRaw") without a trailing '='.
func encodeParams(params url.Values) string {
	parts := make([]string, 0, len(params))
	for _, key := range sortedKeys(params) {
		for _, v := range params[key] {
			if v == "" {
				parts = append(parts, url.QueryEscape(key))
				continue
			}
			parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

func limitParam(limit int) string {
	if limit <= 0 {
		return ""
	}
	return strconv.Itoa(limit)
}

func wrap(err error, what string) error {
	return pimonerrors.Wrap(err, "Pi-hole "+what+" request failed")
}

func sortedKeys(params url.Values) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

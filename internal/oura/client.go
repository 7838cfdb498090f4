// Oura Dashboard - Oura Ring Biometric Sync and Visualization
// Copyright 2026 Maxime Michaud (MaximeMichaud)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MaximeMichaud/oura-dashboard

package oura

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/MaximeMichaud/oura-dashboard/internal/catalog"
	"github.com/MaximeMichaud/oura-dashboard/internal/logging"
	"github.com/MaximeMichaud/oura-dashboard/internal/metrics"
)

// DefaultBaseURL is the Oura API v2 usercollection root.
const DefaultBaseURL = "https://api.ouraring.com/v2/usercollection"

// maxErrorBodySize limits how much of an error response body is kept (64KB).
const maxErrorBodySize = 64 * 1024

const dateLayout = "2006-01-02"

// Record is one raw API record, decoded lazily by the mapper.
type Record = json.RawMessage

// page is one paginated collection response.
type page struct {
	Data      []json.RawMessage `json:"data"`
	NextToken *string           `json:"next_token"`
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RequestsPerSecond throttles page requests; <= 0 disables throttling.
	RequestsPerSecond float64
	Burst             int
	Retry             RetryPolicy
	Breaker           BreakerSettings
	// SkipNotFound turns a 404 on the first page into an empty window.
	SkipNotFound bool
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client is the paginated, retrying HTTP fetcher for Oura collection endpoints.
type Client struct {
	baseURL      *url.URL
	token        string
	http         *http.Client
	limiter      *rate.Limiter
	retry        RetryPolicy
	skipNotFound bool

	breakerSettings BreakerSettings
	breakersMu      sync.Mutex
	breakers        map[string]*breaker // by endpoint
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("oura access token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid oura base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}

	return &Client{
		baseURL:      base,
		token:        cfg.Token,
		http:         httpClient,
		limiter:      rate.NewLimiter(limit, burst),
		retry:        retry,
		skipNotFound: cfg.SkipNotFound,

		breakerSettings: cfg.Breaker,
		breakers:        make(map[string]*breaker),
	}, nil
}

// breakerFor returns the endpoint's breaker, creating it on first use.
// Endpoints never share a breaker.
func (c *Client) breakerFor(endpoint string) *breaker {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()

	b, ok := c.breakers[endpoint]
	if !ok {
		b = newBreaker(c.breakerSettings, endpoint)
		c.breakers[endpoint] = b
	}
	return b
}

// BreakerStates returns the state of every breaker created so far, by
// endpoint.
func (c *Client) BreakerStates() map[string]string {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()

	out := make(map[string]string, len(c.breakers))
	for name, b := range c.breakers {
		out[name] = b.State()
	}
	return out
}

// BreakerState reports the worst state across endpoint breakers: "open" if
// any is open, then "half-open", otherwise "closed".
func (c *Client) BreakerState() string {
	worst := "closed"
	for _, state := range c.BreakerStates() {
		switch state {
		case "open":
			return state
		case "half-open":
			worst = state
		}
	}
	return worst
}

// FetchWindow returns the lazy sequence of raw records for desc between from
// and to (inclusive dates). Pages are requested as the sequence is consumed;
// ranging over it again issues fresh requests. A failure is yielded once as a
// *FetchError and ends the sequence.
func (c *Client) FetchWindow(ctx context.Context, desc *catalog.Descriptor, from, to time.Time) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		log := logging.Ctx(ctx).With().Str("endpoint", desc.Name).Logger()

		cb := c.breakerFor(desc.Name)
		policy := c.retry
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			metrics.UpstreamRetries.WithLabelValues(desc.Name).Inc()
			log.Warn().Err(err).
				Int("attempt", attempt).
				Int("max_attempts", policy.MaxAttempts).
				Dur("delay", delay).
				Msg("Retrying Oura API request")
		}

		token := ""
		for pageNum := 1; ; pageNum++ {
			var pg *page
			attempts, err := policy.Do(ctx, func(ctx context.Context) error {
				p, err := cb.execute(func() (*page, error) {
					return c.getPage(ctx, desc, from, to, token)
				})
				if err != nil {
					return err
				}
				pg = p
				return nil
			})
			if err != nil {
				if c.skipNotFound && token == "" && IsNotFound(err) {
					log.Warn().Msg("Endpoint not available for this account (404), treating window as empty")
					return
				}
				yield(nil, &FetchError{Endpoint: desc.Name, Attempts: attempts, Err: err})
				return
			}

			log.Debug().Int("page", pageNum).Int("records", len(pg.Data)).Msg("Fetched page")

			for _, rec := range pg.Data {
				if !yield(rec, nil) {
					return
				}
			}

			if pg.NextToken == nil || *pg.NextToken == "" {
				return
			}
			if *pg.NextToken == token {
				yield(nil, &FetchError{
					Endpoint: desc.Name,
					Attempts: attempts,
					Err:      fmt.Errorf("pagination token %q did not advance", token),
				})
				return
			}
			token = *pg.NextToken
		}
	}
}

// getPage performs one throttled GET for a window page.
func (c *Client) getPage(ctx context.Context, desc *catalog.Descriptor, from, to time.Time, token string) (*page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.pageURL(desc, from, to, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(desc.Name, "error", time.Since(start))
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordUpstreamRequest(desc.Name, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(readBodyForError(resp.Body))),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	var pg page
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return nil, fmt.Errorf("failed to decode %s page: %w", desc.Name, err)
	}
	return &pg, nil
}

// pageURL builds the request URL. The window bounds are sent on every page
// and the cursor is echoed back once the API returns one.
func (c *Client) pageURL(desc *catalog.Descriptor, from, to time.Time, token string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(desc.Path, "/")

	q := url.Values{}
	q.Set("start_date", from.Format(dateLayout))
	q.Set("end_date", to.Format(dateLayout))
	if token != "" {
		q.Set(desc.CursorField, token)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// readBodyForError reads at most maxErrorBodySize bytes of an error body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// parseRetryAfter accepts delta-seconds or an HTTP date (RFC 9110).
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

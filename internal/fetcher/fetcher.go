// Package fetcher is the JSON HTTP client shared by the provider adapters.
package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/property-profile/internal/resilience"
)

// maxBody caps the size of a provider payload.
const maxBody = 16 << 20

// JSONGetter is the surface adapters depend on.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, dst any) error
}

// Options configures a Client.
type Options struct {
	UserAgent string
	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration
	// RatePerSecond is the per-host request rate.
	RatePerSecond float64
	Policy        resilience.Policy
	Breakers      *resilience.Breakers
	HTTPClient    *http.Client
}

// Client performs rate-limited, retried, circuit-broken GETs and decodes
// the JSON body.
type Client struct {
	http     *http.Client
	opts     Options
	breakers *resilience.Breakers

	mu       sync.Mutex
	limiters map[string]*hostLimiter
}

// New creates a Client with defaults for unset options.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "property-profile/1.0"
	}
	if opts.Policy.Attempts == 0 {
		opts.Policy = resilience.DefaultPolicy()
	}
	breakers := opts.Breakers
	if breakers == nil {
		breakers = resilience.NewBreakers(resilience.DefaultBreakerConfig())
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		http:     hc,
		opts:     opts,
		breakers: breakers,
		limiters: make(map[string]*hostLimiter),
	}
}

// Breakers exposes the per-host circuit breakers for health reporting.
func (c *Client) Breakers() *resilience.Breakers {
	return c.breakers
}

// GetJSON fetches rawURL and decodes the body into dst.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dst any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrap(err, "fetcher: parse url")
	}

	breaker := c.breakers.For(u.Host)
	if err := breaker.Allow(); err != nil {
		return eris.Wrapf(err, "fetcher: %s", u.Host)
	}

	body, err := resilience.Retry(ctx, c.opts.Policy, u.Host, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, u)
	})
	breaker.Record(err)
	if err != nil {
		return eris.Wrapf(err, "fetcher: get %s", u.Host)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return eris.Wrapf(err, "fetcher: decode %s", u.Host)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	lim := c.limiterFor(u.Host)
	if err := lim.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		lim.OnRateLimit()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &resilience.StatusError{StatusCode: resp.StatusCode, URL: u.Redacted()}
	}
	lim.OnSuccess()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	return body, nil
}

func (c *Client) limiterFor(host string) *hostLimiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = newHostLimiter(rate.Limit(c.opts.RatePerSecond))
		c.limiters[host] = lim
	}
	return lim
}

// hostLimiter halves its rate on 429 and recovers by 20% per success, never
// exceeding the configured rate nor dropping below a quarter of it.
type hostLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	initial rate.Limit
	current rate.Limit
}

func newHostLimiter(r rate.Limit) *hostLimiter {
	burst := int(r)
	if burst < 1 {
		burst = 1
	}
	return &hostLimiter{limiter: rate.NewLimiter(r, burst), initial: r, current: r}
}

func (h *hostLimiter) Wait(ctx context.Context) error {
	return h.limiter.Wait(ctx)
}

func (h *hostLimiter) OnSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current >= h.initial {
		return
	}
	h.current = min(h.current*1.2, h.initial)
	h.limiter.SetLimit(h.current)
}

func (h *hostLimiter) OnRateLimit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = max(h.current/2, h.initial/4)
	h.limiter.SetLimit(h.current)
	zap.L().Warn("fetcher: provider rate limited, slowing down",
		zap.Float64("new_rate", float64(h.current)),
	)
}

// Limit returns the current rate.
func (h *hostLimiter) Limit() rate.Limit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

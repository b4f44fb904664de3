// Package httpclient wraps resty with retries, rate limiting, and a circuit
// breaker for calls to external HTTP services.
package httpclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/popgate/popgate/internal/infrastructure/resilience"
)

// Client wraps resty with rate limiting and circuit breaker protection.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	mu      sync.RWMutex
}

// New creates a production-ready HTTP client.
func New() *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(60*time.Second).
		SetHeader("User-Agent", "popgate/1.0").
		SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("http-external", resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			// External APIs vary in reliability; trip on sustained failure
			// rather than the first hiccup.
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
		breaker: breaker,
	}
}

// SetTimeout configures the request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetTimeout(d)
}

// SetRateLimit configures outbound requests per second. rps <= 0 disables
// limiting.
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// SetBearerAuth configures bearer token authentication.
func (c *Client) SetBearerAuth(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetAuthToken(token)
}

// Request creates a new request, honoring the rate limiter and refusing
// early when the circuit is open.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resty.R().SetContext(ctx), nil
}

// ExecuteWithBreaker executes an HTTP operation with circuit breaker
// protection.
func (c *Client) ExecuteWithBreaker(fn func() (*resty.Response, error)) (*resty.Response, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err == resilience.ErrCircuitOpen {
		return nil, fmt.Errorf("external service unavailable: %w", err)
	}
	if err != nil {
		return nil, err
	}
	return result.(*resty.Response), nil
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/config"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Client. Zero values fall back to sane defaults.
type Options struct {
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second, 0 = unlimited
	UserAgent    string
	Breaker      resilience.Settings
	Metrics      *monitoring.Metrics
	Logger       *zap.Logger
}

// Request describes one outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// Response is the buffered result of a successful call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Text returns the body decoded to UTF-8.
func (r *Response) Text() string {
	return DecodeText(r.Body, r.ContentType())
}

// Client wraps resty with per-host circuit breakers, a shared rate limiter
// and a retrying transport. All failures wrap failure.ErrFetch.
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	mu sync.RWMutex
}

// New creates a client from opts.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 200 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 2 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "DictHub/1.0"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = nil
	// Hand the last response back instead of a retryablehttp error so the
	// status check below sees it.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	settings := opts.Breaker
	logger := opts.Logger
	if settings.OnStateChange == nil {
		settings.OnStateChange = func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("host", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		}
	}

	return &Client{
		resty:    restyClient,
		limiter:  limiter,
		breakers: resilience.NewGroup(settings),
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// FromConfig builds a client from the HTTP section of the application config.
func FromConfig(cfg config.HTTPConfig, metrics *monitoring.Metrics, logger *zap.Logger) *Client {
	return New(Options{
		Timeout:   cfg.Timeout.Duration,
		Retries:   cfg.Retries,
		RateLimit: cfg.RateLimit,
		UserAgent: cfg.UserAgent,
		Metrics:   metrics,
		Logger:    logger,
	})
}

// SetHeader adds a default header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// Breakers exposes the per-host breaker group.
func (c *Client) Breakers() *resilience.Group {
	return c.breakers
}

// Get fetches rawURL and returns the buffered response.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL})
}

// GetText fetches rawURL and returns the body decoded to UTF-8.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// PostForm sends body as application/x-www-form-urlencoded.
func (c *Client) PostForm(ctx context.Context, rawURL, body string) (*Response, error) {
	return c.Do(ctx, Request{
		Method:  http.MethodPost,
		URL:     rawURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    body,
	})
}

// Do executes req through the rate limiter and the breaker for its host.
// Any status other than 200 is reported as failure.ErrFetch.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid url %q", failure.ErrFetch, req.URL)
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %v", failure.ErrFetch, err)
	}

	start := time.Now()
	var out *Response
	err = c.breakers.Get(u.Host).Do(func() error {
		resp, err := c.execute(ctx, req)
		if err != nil {
			return err
		}
		out = &Response{
			Status: resp.StatusCode(),
			Header: resp.Header(),
			Body:   resp.Body(),
		}
		if out.Status >= http.StatusInternalServerError {
			return errServer
		}
		return nil
	})
	if c.metrics != nil {
		c.metrics.RecordFetch(u.Host, fetchErr(err, out), time.Since(start))
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrProbeInFlight):
		return nil, fmt.Errorf("%w: %s %s: %v", failure.ErrFetch, req.Method, req.URL, err)
	case err != nil && !errors.Is(err, errServer):
		c.logger.Debug("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s %s: %v", failure.ErrFetch, req.Method, req.URL, err)
	}

	if out.Status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s: status %d", failure.ErrFetch, req.Method, req.URL, out.Status)
	}
	return out, nil
}

var errServer = errors.New("server error")

func (c *Client) execute(ctx context.Context, req Request) (*resty.Response, error) {
	c.mu.RLock()
	r := c.resty.R().SetContext(ctx)
	c.mu.RUnlock()

	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if req.Body != "" {
		r.SetBody(req.Body)
	}
	return r.Execute(req.Method, req.URL)
}

func fetchErr(err error, resp *Response) error {
	if err != nil {
		return err
	}
	if resp == nil || resp.Status != http.StatusOK {
		return failure.ErrFetch
	}
	return nil
}

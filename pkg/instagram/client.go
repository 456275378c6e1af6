package instagram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	errs "github.com/gorobchenkoann/save-from-inst/pkg/errors"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/ratelimit"
	"github.com/gorobchenkoann/save-from-inst/pkg/retry"
)

const (
	// DefaultUserAgent mimics a desktop browser; Instagram serves a login wall to obvious bots
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	// DefaultMaxPageSize caps how much of a post page is read into memory
	DefaultMaxPageSize = 16 << 20
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	MaxPageSize int64
	Limiter     ratelimit.Limiter
	Retry       *retry.Config
	Logger      logger.Logger
	HTTPClient  *http.Client
}

// Client fetches Instagram post pages and media files
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	cookies    []*http.Cookie
	maxPage    int64
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a new Instagram client
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	maxPage := opts.MaxPageSize
	if maxPage <= 0 {
		maxPage = DefaultMaxPageSize
	}

	retryCfg := opts.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	if retryCfg.Logger == nil {
		retryCfg.Logger = log
	}

	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
			"Sec-Fetch-Dest":  "document",
			"Sec-Fetch-Mode":  "navigate",
			"Sec-Fetch-Site":  "none",
			"Sec-Fetch-User":  "?1",
		},
		maxPage: maxPage,
		limiter: opts.Limiter,
		retry:   retryCfg,
		logger:  log,
	}
}

// NewClientFromConfig builds a client with the limiter and retry policy
// described by cfg. Session cookies from the config are applied when present.
func NewClientFromConfig(cfg *config.Config, log logger.Logger) (*Client, error) {
	limiter, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	client := NewClient(Options{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Instagram.UserAgent,
		Limiter:   limiter,
		Retry: &retry.Config{
			MaxAttempts: cfg.Fetch.MaxAttempts,
			Backoff: &retry.ExponentialBackoff{
				BaseDelay:    cfg.Fetch.BaseDelay,
				MaxDelay:     cfg.Fetch.MaxDelay,
				Multiplier:   cfg.Fetch.Multiplier,
				JitterFactor: 0.1,
			},
			RetryIf: retry.DefaultRetryIf,
			Logger:  log,
		},
		Logger: log,
	})

	if cfg.Instagram.SessionID != "" {
		client.SetCookies(cfg.Instagram.SessionID, cfg.Instagram.CSRFToken)
	}
	return client, nil
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetCookies attaches an Instagram session to every request
func (c *Client) SetCookies(sessionID, csrfToken string) {
	c.cookies = []*http.Cookie{
		{Name: "sessionid", Value: sessionID},
		{Name: "csrftoken", Value: csrfToken},
	}
	c.headers["X-CSRFToken"] = csrfToken
}

// HasSession reports whether session cookies are set
func (c *Client) HasSession() bool {
	return len(c.cookies) > 0
}

// FetchPage GETs rawURL and returns the response body as text
func (c *Client) FetchPage(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL, c.maxPage)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Download GETs a media file and returns its bytes
func (c *Client) Download(ctx context.Context, mediaURL string) ([]byte, error) {
	return c.get(ctx, mediaURL, 0)
}

// get runs a rate-limited, retried GET. limit caps the body size when positive.
func (c *Client) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return c.getOnce(ctx, rawURL, limit)
	}, c.retry)
}

func (c *Client) getOnce(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, err, "invalid request URL")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	var reader io.Reader = resp.Body
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, resp.StatusCode, err, "failed to read response body")
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, errs.New(errs.ErrorTypeTooLarge, resp.StatusCode, "response body exceeds %d bytes", limit)
	}
	return body, nil
}

// doRequest performs an HTTP request with the configured headers and cookies
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WithError(err).DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"duration": duration,
		})
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.Wrap(errs.ErrorTypeNetwork, 0, err, "network error")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus maps HTTP status codes onto typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errs.New(errs.ErrorTypeAuth, code, "authentication required")
	case code == http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, code, "post not found")
	case code == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		logger.LogRateLimit(c.logger, resp.Request.URL.String(), retryAfter)
		return errs.New(errs.ErrorTypeRateLimit, code, "rate limit exceeded")
	case code >= 500:
		return errs.New(errs.ErrorTypeServerError, code, "server error")
	default:
		return errs.New(errs.ErrorTypeUnknown, code, "unexpected status code: %d", code)
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for lagged responses.
	MaxRetries = 3

	// RetryDelay is the delay used when a lagged response carries no
	// Retry-After header.
	RetryDelay = 5 * time.Second

	// MaxLag is the replication lag, in seconds, above which the server
	// should refuse requests.
	MaxLag = 5

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"

	// anonymousToken is the edit token handed to sessions that are not
	// logged in.
	anonymousToken = "+\\"
)

// Config configures a Client.
type Config struct {
	// Endpoint is the api.php URL.
	Endpoint string

	// AccessToken is an OAuth 2.0 bearer token. Empty means anonymous,
	// which is enough for reads.
	AccessToken string

	// UserAgent identifies the bot to the server operators.
	UserAgent string

	// Timeout overrides DefaultTimeout.
	Timeout time.Duration
}

// Client is a MediaWiki action API client.
type Client struct {
	endpoint   string
	userAgent  string
	http       *http.Client
	retryDelay time.Duration

	mu    sync.Mutex
	token string
}

// NewClient creates an action API client. When an access token is
// configured every request carries it as a bearer token.
func NewClient(ctx context.Context, cfg Config) *Client {
	var hc *http.Client
	if cfg.AccessToken != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.AccessToken},
		)
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = DefaultTimeout
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		userAgent:  cfg.UserAgent,
		http:       hc,
		retryDelay: RetryDelay,
	}
}

// Endpoint returns the api.php URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// HTTPClient returns the underlying authenticated HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Get runs a read request and decodes the response into out.
func (c *Client) Get(ctx context.Context, params url.Values, out any) error {
	return c.call(ctx, http.MethodGet, params, out)
}

// Post runs a write request with a CSRF token and decodes the response
// into out. An expired token is refreshed once.
func (c *Client) Post(ctx context.Context, params url.Values, out any) error {
	for refreshed := false; ; refreshed = true {
		token, err := c.csrfToken(ctx)
		if err != nil {
			return err
		}
		q := cloneValues(params)
		q.Set("token", token)
		err = c.call(ctx, http.MethodPost, q, out)
		if err != nil && IsBadToken(err) && !refreshed {
			logger.Debug("wikibase: edit token rejected by %s, refreshing", c.endpoint)
			c.resetToken()
			continue
		}
		return err
	}
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	var resp struct {
		Query struct {
			Tokens struct {
				CSRF string `json:"csrftoken"`
			} `json:"tokens"`
		} `json:"query"`
	}
	params := url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {"csrf"},
	}
	if err := c.call(ctx, http.MethodGet, params, &resp); err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	token = resp.Query.Tokens.CSRF
	if token == "" || token == anonymousToken {
		return "", fmt.Errorf("%w at %s", ErrNotAuthenticated, c.endpoint)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	q := cloneValues(params)
	q.Set("format", "json")
	q.Set("formatversion", "2")
	q.Set("maxlag", strconv.Itoa(MaxLag))

	for attempt := 0; ; attempt++ {
		body, wait, err := c.roundTrip(ctx, method, q)
		if err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode %s response: %w", q.Get("action"), err)
			}
			return nil
		}
		if !IsLagged(err) || attempt >= MaxRetries {
			return err
		}
		logger.Debug("wikibase: %s lagged, retrying in %s", c.endpoint, wait)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, method string, q url.Values) ([]byte, time.Duration, error) {
	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, c.endpoint, strings.NewReader(q.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.endpoint+"?"+q.Encode(), nil)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", q.Get("action"), c.endpoint, err)
	}
	defer resp.Body.Close()

	wait := retryAfter(resp.Header, c.retryDelay)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, wait, &APIError{StatusCode: resp.StatusCode}
	}

	var envelope struct {
		Error *struct {
			Code string `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, fmt.Errorf("decode %s response: %w", q.Get("action"), err)
	}
	if envelope.Error != nil {
		return nil, wait, &APIError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Error.Code,
			Info:       envelope.Error.Info,
		}
	}
	return body, 0, nil
}

func retryAfter(h http.Header, fallback time.Duration) time.Duration {
	if v := h.Get(HeaderRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+4)
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

// Binding is one value of a SPARQL result row.
type Binding struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// QueryService runs SELECT queries against a SPARQL endpoint.
type QueryService struct {
	endpoint   string
	userAgent  string
	http       *http.Client
	retryDelay time.Duration
}

// NewQueryService creates a SPARQL client. The HTTP client is normally
// shared with the action API Client.
func NewQueryService(endpoint, userAgent string, hc *http.Client) *QueryService {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &QueryService{
		endpoint:   endpoint,
		userAgent:  userAgent,
		http:       hc,
		retryDelay: RetryDelay,
	}
}

// Select runs a query and returns its result rows.
func (s *QueryService) Select(ctx context.Context, query string) ([]map[string]Binding, error) {
	for attempt := 0; ; attempt++ {
		rows, wait, err := s.selectOnce(ctx, query)
		if err == nil {
			return rows, nil
		}
		if !IsLagged(err) || attempt >= MaxRetries {
			return nil, err
		}
		logger.Debug("wikibase: query service throttled, retrying in %s", wait)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (s *QueryService) selectOnce(ctx context.Context, query string) ([]map[string]Binding, time.Duration, error) {
	q := url.Values{"query": {query}, "format": {"json"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("sparql %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, retryAfter(resp.Header, s.retryDelay), &APIError{StatusCode: resp.StatusCode}
	}

	var result struct {
		Results struct {
			Bindings []map[string]Binding `json:"bindings"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("decode sparql response: %w", err)
	}
	return result.Results.Bindings, 0, nil
}

// quoteLiteral renders s as a double-quoted SPARQL string literal.
func quoteLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}

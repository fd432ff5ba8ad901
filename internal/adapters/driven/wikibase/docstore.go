package wikibase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore with page revisions on a
// MediaWiki site.
type DocumentStore struct {
	api *Client
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(api *Client) *DocumentStore {
	return &DocumentStore{api: api}
}

// GetDocument returns the content of the latest revision of a page.
func (s *DocumentStore) GetDocument(ctx context.Context, title string) (string, error) {
	var resp struct {
		Query struct {
			Pages []struct {
				Title     string `json:"title"`
				Missing   bool   `json:"missing"`
				Invalid   bool   `json:"invalid"`
				Revisions []struct {
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	params := url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"rvprop":  {"content"},
		"rvslots": {"main"},
		"titles":  {title},
	}
	if err := s.api.Get(ctx, params, &resp); err != nil {
		return "", fmt.Errorf("get document %q: %w", title, err)
	}
	if len(resp.Query.Pages) == 0 {
		return "", fmt.Errorf("get document %q: %w", title, domain.ErrNotFound)
	}
	page := resp.Query.Pages[0]
	switch {
	case page.Invalid:
		return "", fmt.Errorf("get document %q: %w: invalid title", title, domain.ErrInvalidInput)
	case page.Missing, len(page.Revisions) == 0:
		return "", fmt.Errorf("get document %q: %w", title, domain.ErrNotFound)
	}
	return page.Revisions[0].Slots.Main.Content, nil
}

// PutDocument creates or replaces a page.
func (s *DocumentStore) PutDocument(ctx context.Context, title, content, summary string) error {
	var resp struct {
		Edit struct {
			Result string `json:"result"`
		} `json:"edit"`
	}
	params := url.Values{
		"action":  {"edit"},
		"title":   {title},
		"text":    {content},
		"summary": {summary},
		"bot":     {"1"},
	}
	if err := s.api.Post(ctx, params, &resp); err != nil {
		return fmt.Errorf("put document %q: %w", title, err)
	}
	if resp.Edit.Result != "Success" {
		return fmt.Errorf("put document %q: edit result %q", title, resp.Edit.Result)
	}
	return nil
}

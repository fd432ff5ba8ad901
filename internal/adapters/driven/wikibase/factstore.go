package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.FactStore = (*FactStore)(nil)

// FactStore implements driven.FactStore against a Wikibase repository.
type FactStore struct {
	api   *Client
	query *QueryService
}

// NewFactStore creates a FactStore.
func NewFactStore(api *Client, query *QueryService) *FactStore {
	return &FactStore{api: api, query: query}
}

type entityResponse struct {
	Entity entity `json:"entity"`
}

// GetItem retrieves an item by its id.
func (s *FactStore) GetItem(ctx context.Context, id string) (*domain.RemoteItem, error) {
	var resp struct {
		Entities map[string]entity `json:"entities"`
	}
	params := url.Values{
		"action": {"wbgetentities"},
		"ids":    {id},
		"props":  {"labels|descriptions|claims"},
	}
	if err := s.api.Get(ctx, params, &resp); err != nil {
		if IsNoSuchEntity(err) {
			return nil, fmt.Errorf("get item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	e, ok := resp.Entities[id]
	if !ok || len(e.Missing) > 0 {
		return nil, fmt.Errorf("get item %s: %w", id, domain.ErrNotFound)
	}
	item, err := toItem(e)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

// CreateItem creates a new item with labels, descriptions and claims.
func (s *FactStore) CreateItem(ctx context.Context, draft domain.ItemDraft, summary string) (*domain.RemoteItem, error) {
	data := editData{
		Labels:       toTerms(draft.Labels),
		Descriptions: toTerms(draft.Descriptions),
	}
	for _, c := range draft.Claims {
		st, err := fromClaim(c)
		if err != nil {
			return nil, fmt.Errorf("create item: %w", err)
		}
		data.Claims = append(data.Claims, st)
	}

	var resp entityResponse
	if err := s.edit(ctx, url.Values{"new": {"item"}}, data, summary, &resp); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	if resp.Entity.ID == "" {
		return nil, fmt.Errorf("create item: response carries no entity id")
	}
	item, err := toItem(resp.Entity)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// CommitDelta removes and adds statements on an item in one edit.
func (s *FactStore) CommitDelta(ctx context.Context, itemID string, delta domain.Delta, summary string) error {
	if delta.Empty() {
		return nil
	}
	var data editData
	for _, c := range delta.ToDelete {
		if c.ID == "" {
			return fmt.Errorf("commit delta on %s: %w: %s claim to delete has no id",
				itemID, domain.ErrInvalidInput, c.Property)
		}
		data.Claims = append(data.Claims, removal{ID: c.ID})
	}
	for _, c := range delta.ToAdd {
		st, err := fromClaim(c)
		if err != nil {
			return fmt.Errorf("commit delta on %s: %w", itemID, err)
		}
		data.Claims = append(data.Claims, st)
	}
	if err := s.edit(ctx, url.Values{"id": {itemID}}, data, summary, nil); err != nil {
		return fmt.Errorf("commit delta on %s: %w", itemID, err)
	}
	return nil
}

func (s *FactStore) edit(ctx context.Context, params url.Values, data editData, summary string, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode edit: %w", err)
	}
	params.Set("action", "wbeditentity")
	params.Set("data", string(raw))
	params.Set("summary", summary)
	params.Set("bot", "1")
	return s.api.Post(ctx, params, out)
}

// LookupByUniqueLabel finds the single item with an exact label.
func (s *FactStore) LookupByUniqueLabel(ctx context.Context, label, lang string) (string, error) {
	q := fmt.Sprintf(`SELECT ?item WHERE { ?item rdfs:label %s@%s } LIMIT 2`, quoteLiteral(label), lang)
	id, err := s.QuerySingle(ctx, q)
	if err != nil {
		return "", fmt.Errorf("lookup label %q: %w", label, err)
	}
	return id, nil
}

// QuerySingle runs a query selecting ?item and returns its entity id.
func (s *FactStore) QuerySingle(ctx context.Context, query string) (string, error) {
	rows, err := s.query.Select(ctx, query)
	if err != nil {
		return "", err
	}
	switch len(rows) {
	case 0:
		return "", domain.ErrNotFound
	case 1:
	default:
		return "", fmt.Errorf("%w: %d rows", domain.ErrAmbiguousResult, len(rows))
	}
	b, ok := rows[0]["item"]
	if !ok {
		return "", fmt.Errorf("%w: query result has no ?item binding", domain.ErrInvalidInput)
	}
	return strings.TrimPrefix(b.Value, EntityURIPrefix), nil
}

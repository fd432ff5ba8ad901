package memory

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Ensure FactStore implements the interface.
var _ driven.FactStore = (*FactStore)(nil)

// valueQuery matches the single-property identifier queries issued by
// the reconciler: ?item wdt:P123 ?value. FILTER (?value IN ("x")).
var valueQuery = regexp.MustCompile(`wdt:(P\d+)\s+\?value\.\s*FILTER\s*\(\?value IN \("((?:[^"\\]|\\.)*)"\)\)`)

// Commit is one delta applied to an item.
type Commit struct {
	ItemID  string
	Delta   domain.Delta
	Summary string
}

// FactStore is an in-memory implementation of driven.FactStore.
// Items get sequential identifiers and claims get item-scoped ones.
type FactStore struct {
	mu      sync.RWMutex
	items   map[string]*domain.RemoteItem
	order   []string
	nextQ   int
	nextRef int
	commits []Commit

	// Err, when set, fails every write.
	Err error
}

// NewFactStore creates a new in-memory fact store.
func NewFactStore() *FactStore {
	return &FactStore{
		items: make(map[string]*domain.RemoteItem),
		nextQ: 1,
	}
}

// Put stores an item as-is, replacing any item with the same identifier.
// Claims without an identifier are assigned one.
func (s *FactStore) Put(item *domain.RemoteItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneItem(item)
	for i := range stored.Claims {
		if stored.Claims[i].ID == "" {
			stored.Claims[i].ID = s.claimID(stored.ID)
		}
	}
	if _, ok := s.items[stored.ID]; !ok {
		s.order = append(s.order, stored.ID)
	}
	s.items[stored.ID] = stored
}

// GetItem retrieves an item by identifier.
func (s *FactStore) GetItem(_ context.Context, id string) (*domain.RemoteItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return cloneItem(item), nil
}

// CreateItem creates an item from a draft.
func (s *FactStore) CreateItem(_ context.Context, draft domain.ItemDraft, _ string) (*domain.RemoteItem, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("Q%d", s.nextQ)
	s.nextQ++
	item := &domain.RemoteItem{
		ID:           id,
		Labels:       copyStrings(draft.Labels),
		Descriptions: copyStrings(draft.Descriptions),
	}
	for _, c := range draft.Claims {
		c = c.Clone()
		c.ID = s.claimID(id)
		item.Claims = append(item.Claims, c)
	}
	s.items[id] = item
	s.order = append(s.order, id)
	return cloneItem(item), nil
}

// CommitDelta removes deleted claims by identifier and appends added ones.
func (s *FactStore) CommitDelta(_ context.Context, itemID string, delta domain.Delta, summary string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}

	removed := make(map[string]bool, len(delta.ToDelete))
	for _, c := range delta.ToDelete {
		if c.ID == "" {
			return fmt.Errorf("%w: deleted claim has no identifier", domain.ErrInvalidInput)
		}
		removed[c.ID] = true
	}
	kept := item.Claims[:0]
	for _, c := range item.Claims {
		if !removed[c.ID] {
			kept = append(kept, c)
		}
	}
	item.Claims = kept
	for _, c := range delta.ToAdd {
		c = c.Clone()
		c.ID = s.claimID(itemID)
		item.Claims = append(item.Claims, c)
	}

	s.commits = append(s.commits, Commit{ItemID: itemID, Delta: delta, Summary: summary})
	return nil
}

// LookupByUniqueLabel finds the single item with a label in a language.
func (s *FactStore) LookupByUniqueLabel(_ context.Context, label, lang string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []string
	for _, id := range s.order {
		if s.items[id].Labels[lang] == label {
			found = append(found, id)
		}
	}
	return single(found, label)
}

// QuerySingle answers identifier queries by scanning string claims.
// Other query shapes are rejected.
func (s *FactStore) QuerySingle(_ context.Context, query string) (string, error) {
	m := valueQuery.FindStringSubmatch(query)
	if m == nil {
		return "", fmt.Errorf("%w: unsupported query", domain.ErrInvalidInput)
	}
	property := domain.Property(m[1])
	value := unescape(m[2])

	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []string
	for _, id := range s.order {
		for _, c := range s.items[id].ClaimsFor(property) {
			if c.Value.Type == domain.ValueString && c.Value.String == value {
				found = append(found, id)
				break
			}
		}
	}
	return single(found, value)
}

// Commits returns the deltas committed so far.
func (s *FactStore) Commits() []Commit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Commit(nil), s.commits...)
}

// Len returns the number of stored items.
func (s *FactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *FactStore) claimID(itemID string) string {
	s.nextRef++
	return fmt.Sprintf("%s$%d", itemID, s.nextRef)
}

func single(found []string, key string) (string, error) {
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%q: %w", key, domain.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%q matches %v: %w", key, found, domain.ErrAmbiguousResult)
	}
}

func unescape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		out = append(out, s[i])
	}
	return string(out)
}

func cloneItem(item *domain.RemoteItem) *domain.RemoteItem {
	out := &domain.RemoteItem{
		ID:           item.ID,
		Labels:       copyStrings(item.Labels),
		Descriptions: copyStrings(item.Descriptions),
	}
	for _, c := range item.Claims {
		out.Claims = append(out.Claims, c.Clone())
	}
	return out
}

func copyStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// Write is one page write.
type Write struct {
	Title   string
	Content string
	Summary string
}

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu     sync.RWMutex
	pages  map[string]string
	writes []Write
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		pages: make(map[string]string),
	}
}

// GetDocument returns a page's content.
func (s *DocumentStore) GetDocument(_ context.Context, title string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.pages[title]
	if !ok {
		return "", fmt.Errorf("page %s: %w", title, domain.ErrNotFound)
	}
	return content, nil
}

// PutDocument creates or replaces a page.
func (s *DocumentStore) PutDocument(_ context.Context, title, content, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[title] = content
	s.writes = append(s.writes, Write{Title: title, Content: content, Summary: summary})
	return nil
}

// Seed stores a page without recording a write.
func (s *DocumentStore) Seed(title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[title] = content
}

// Writes returns the writes made so far.
func (s *DocumentStore) Writes() []Write {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Write(nil), s.writes...)
}

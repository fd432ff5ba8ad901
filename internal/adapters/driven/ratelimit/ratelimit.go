// Package ratelimit throttles writes to the remote stores.
//
// FactStore and DocumentStore decorate the driven ports. Every write call
// takes a token from a shared Limiter first; reads pass straight through.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Limiter is a token bucket refilled at a fixed number of edits per minute.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter creates a limiter. Zero or a negative rate disables throttling.
func NewLimiter(editsPerMinute int) *Limiter {
	if editsPerMinute <= 0 {
		return &Limiter{bucket: rate.NewLimiter(rate.Inf, 1)}
	}
	every := time.Minute / time.Duration(editsPerMinute)
	return &Limiter{bucket: rate.NewLimiter(rate.Every(every), 1)}
}

// Wait blocks until an edit may be sent.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Verify interface compliance.
var (
	_ driven.FactStore     = (*FactStore)(nil)
	_ driven.DocumentStore = (*DocumentStore)(nil)
)

// FactStore throttles item creation and delta commits.
type FactStore struct {
	driven.FactStore
	limiter *Limiter
}

// NewFactStore wraps next.
func NewFactStore(next driven.FactStore, l *Limiter) *FactStore {
	return &FactStore{FactStore: next, limiter: l}
}

// CreateItem waits for the limiter, then creates the item.
func (s *FactStore) CreateItem(ctx context.Context, draft domain.ItemDraft, summary string) (*domain.RemoteItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.FactStore.CreateItem(ctx, draft, summary)
}

// CommitDelta waits for the limiter, then commits. Empty deltas are not
// edits and skip the limiter.
func (s *FactStore) CommitDelta(ctx context.Context, itemID string, delta domain.Delta, summary string) error {
	if !delta.Empty() {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return s.FactStore.CommitDelta(ctx, itemID, delta, summary)
}

// DocumentStore throttles page writes.
type DocumentStore struct {
	driven.DocumentStore
	limiter *Limiter
}

// NewDocumentStore wraps next.
func NewDocumentStore(next driven.DocumentStore, l *Limiter) *DocumentStore {
	return &DocumentStore{DocumentStore: next, limiter: l}
}

// PutDocument waits for the limiter, then writes the page.
func (s *DocumentStore) PutDocument(ctx context.Context, title, content, summary string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.DocumentStore.PutDocument(ctx, title, content, summary)
}

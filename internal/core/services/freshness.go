package services

import (
	"time"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

// FreshnessPolicy decides whether a remote claim may be superseded by
// the local snapshot.
type FreshnessPolicy struct{}

// MaySupersede reports whether local data published at localPublished may
// replace a remote claim whose references record remotePublished.
// A nil remotePublished always allows supersession. When this returns
// false the caller records a warning and leaves the remote claim alone.
func (FreshnessPolicy) MaySupersede(remotePublished *time.Time, localPublished time.Time) bool {
	if remotePublished == nil {
		return true
	}
	return !localPublished.Before(domain.Midnight(*remotePublished))
}

// publishedOf returns the claim's recoverable published date, or nil.
func publishedOf(c *domain.Claim) *time.Time {
	if c == nil {
		return nil
	}
	t, ok := c.PublishedDate()
	if !ok {
		return nil
	}
	return &t
}

package services

import (
	"context"
	"errors"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

// labelLanguage is the language of operator names in the dataset.
const labelLanguage = "sv"

// LookupContext resolves source-side operator names to remote entities.
// It is built once per batch from the static reference tables; names
// missing from the tables are looked up remotely by unique label and
// the answer, including a miss, is cached for the rest of the run.
type LookupContext struct {
	facts  driven.FactStore
	static map[string]string
	cache  *gocache.Cache
}

// NewLookupContext creates a lookup context over the given tables.
// The tables are copied.
func NewLookupContext(facts driven.FactStore, tables map[string]string) *LookupContext {
	static := make(map[string]string, len(tables))
	for k, v := range tables {
		static[k] = v
	}
	return &LookupContext{
		facts:  facts,
		static: static,
		cache:  gocache.New(gocache.NoExpiration, 0),
	}
}

// Preload resolves every name up front so that misses are logged once at
// batch start rather than per object.
func (l *LookupContext) Preload(ctx context.Context, names []string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := l.Operator(ctx, name); !ok {
			logger.Warn("Operator '%s' is unknown; objects using it will not get operator claims", name)
		}
	}
}

// Operator returns the entity for an operator name.
func (l *LookupContext) Operator(ctx context.Context, name string) (string, bool) {
	if id, ok := l.static[name]; ok {
		return id, true
	}
	if v, ok := l.cache.Get(name); ok {
		id := v.(string)
		return id, id != ""
	}
	if l.facts == nil {
		return "", false
	}

	id, err := l.facts.LookupByUniqueLabel(ctx, name, labelLanguage)
	switch {
	case err == nil:
		logger.Info("Operator '%s' was resolved using unique label as %s", name, id)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAmbiguousResult):
		logger.Debug("Operator '%s' not resolved: %v", name, err)
		id = ""
	default:
		// Transient failure; do not cache so a later object may retry.
		logger.Warn("Operator '%s' lookup failed: %v", name, err)
		return "", false
	}
	l.cache.Set(name, id, gocache.NoExpiration)
	return id, id != ""
}

// Resolved returns the number of names answered from the remote store.
func (l *LookupContext) Resolved() int {
	return l.cache.ItemCount()
}

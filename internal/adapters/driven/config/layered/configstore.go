// Package layered stacks configuration stores. The first store that has a
// key answers for it, so command-line overrides can sit in front of the
// configuration file.
package layered

import (
	"errors"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore resolves keys through a stack of stores, highest priority
// first.
type ConfigStore struct {
	layers []driven.ConfigStore
}

// NewConfigStore creates a layered store.
func NewConfigStore(layers ...driven.ConfigStore) *ConfigStore {
	return &ConfigStore{layers: layers}
}

// Get retrieves a value from the first layer holding key.
func (s *ConfigStore) Get(key string) (any, bool) {
	if l := s.owner(key); l != nil {
		return l.Get(key)
	}
	return nil, false
}

// GetString retrieves a string value.
func (s *ConfigStore) GetString(key string) string {
	if l := s.owner(key); l != nil {
		return l.GetString(key)
	}
	return ""
}

// GetInt retrieves an integer value.
func (s *ConfigStore) GetInt(key string) int {
	if l := s.owner(key); l != nil {
		return l.GetInt(key)
	}
	return 0
}

// GetBool retrieves a boolean value.
func (s *ConfigStore) GetBool(key string) bool {
	if l := s.owner(key); l != nil {
		return l.GetBool(key)
	}
	return false
}

// GetStringSlice retrieves a string slice value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	if l := s.owner(key); l != nil {
		return l.GetStringSlice(key)
	}
	return nil
}

// Load reloads every layer.
func (s *ConfigStore) Load() error {
	var errs []error
	for _, l := range s.layers {
		if err := l.Load(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Path returns the path of the lowest layer, normally the config file.
func (s *ConfigStore) Path() string {
	if len(s.layers) == 0 {
		return ""
	}
	return s.layers[len(s.layers)-1].Path()
}

func (s *ConfigStore) owner(key string) driven.ConfigStore {
	for _, l := range s.layers {
		if _, ok := l.Get(key); ok {
			return l
		}
	}
	return nil
}

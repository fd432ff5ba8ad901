// Package reftables loads the static name-to-entity tables used to
// resolve operators.
package reftables

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.ReferenceTableLoader = (*Loader)(nil)

// entityURIPrefix is stripped from item values given as concept URIs.
const entityURIPrefix = "http://www.wikidata.org/entity/"

// row is one table entry: a Swedish name and the entity it denotes.
type row struct {
	Name string `json:"sv" yaml:"sv"`
	Item string `json:"item" yaml:"item"`
}

// Loader reads tables from JSON or YAML files holding an array of
// {"sv": name, "item": entity} objects.
type Loader struct{}

// NewLoader creates a new reference table loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the table at path. Later rows win over earlier ones with
// the same name.
func (l *Loader) Load(_ context.Context, path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows []row
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rows)
	default:
		err = json.Unmarshal(data, &rows)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	table := make(map[string]string, len(rows))
	for i, r := range rows {
		name := strings.TrimSpace(r.Name)
		item := strings.TrimPrefix(strings.TrimSpace(r.Item), entityURIPrefix)
		if name == "" || item == "" {
			return nil, fmt.Errorf("%s: row %d is missing sv or item", path, i)
		}
		table[name] = item
	}
	return table, nil
}

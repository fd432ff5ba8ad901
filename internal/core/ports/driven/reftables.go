package driven

import "context"

// ReferenceTableLoader reads a static lookup table mapping source-side
// names (operators, municipalities) to remote entity identifiers.
type ReferenceTableLoader interface {
	Load(ctx context.Context, path string) (map[string]string, error)
}

// Package dataset reads registry extracts published as GeoJSON feature
// collections.
package dataset

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.DatasetReader = (*Reader)(nil)

// Reader reads GeoJSON files from the local filesystem. Coordinates are
// expected in WGS 84 (EPSG:4326).
type Reader struct{}

// NewReader creates a new dataset reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read returns the features of path in file order.
func (r *Reader) Read(ctx context.Context, path string) ([]*geojson.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, f := range fc.Features {
		if f.Properties == nil {
			f.Properties = make(geojson.Properties)
		}
	}
	return fc.Features, nil
}

package driven

import (
	"context"

	"github.com/paulmach/orb/geojson"
)

// DatasetReader reads the features of one dataset file in file order.
type DatasetReader interface {
	Read(ctx context.Context, path string) ([]*geojson.Feature, error)
}

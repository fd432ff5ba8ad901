package services

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

// GeometryKind classifies feature geometries.
type GeometryKind int

const (
	GeometryUnsupported GeometryKind = iota
	GeometryPoint
	GeometryMultiPoint
	GeometryPolygon
	GeometryMultiPolygon
)

// String returns the GeoJSON type name of the kind.
func (k GeometryKind) String() string {
	switch k {
	case GeometryPoint:
		return "Point"
	case GeometryMultiPoint:
		return "MultiPoint"
	case GeometryPolygon:
		return "Polygon"
	case GeometryMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unsupported"
	}
}

// Coordinate change tolerances in meters.
const (
	pointTolerance   = 1.0
	polygonTolerance = 100.0
)

// zoomSteps maps bounding box diagonals (km, exclusive upper bound) to
// map zoom levels.
var zoomSteps = []struct {
	maxKm float64
	zoom  int
}{
	{1, 13},
	{4, 12},
	{16, 11},
	{64, 10},
	{256, 9},
	{1024, 8},
}

// minZoom is used for anything at or above the last step.
const minZoom = 7

// Extraction is the geometry-derived input to the location fact and the
// shape document.
type Extraction struct {
	Kind GeometryKind

	// Point is the representative coordinate.
	Point orb.Point

	// Tolerance is the distance in meters below which a remote coordinate
	// is considered unchanged.
	Tolerance float64

	// Zoom is the display zoom level for the shape document.
	Zoom int

	// Shape reports whether a shape document is published for the geometry.
	Shape bool
}

// GeometryExtractor derives a representative coordinate and zoom level
// from a feature geometry.
type GeometryExtractor struct{}

// Classify returns the kind of g.
func (GeometryExtractor) Classify(g orb.Geometry) GeometryKind {
	switch g.(type) {
	case orb.Point:
		return GeometryPoint
	case orb.MultiPoint:
		return GeometryMultiPoint
	case orb.Polygon:
		return GeometryPolygon
	case orb.MultiPolygon:
		return GeometryMultiPolygon
	default:
		return GeometryUnsupported
	}
}

// Extract computes the extraction for g. Unsupported geometries return
// domain.ErrUnsupportedGeometry. A polygon whose centroid and nearest
// vertex both fall outside it is malformed input and panics.
func (e GeometryExtractor) Extract(g orb.Geometry) (*Extraction, error) {
	kind := e.Classify(g)
	switch kind {
	case GeometryPoint:
		p := g.(orb.Point)
		return &Extraction{Kind: kind, Point: p, Tolerance: pointTolerance, Zoom: Zoom(p.Bound())}, nil

	case GeometryMultiPoint:
		mp := g.(orb.MultiPoint)
		if len(mp) == 0 {
			return nil, fmt.Errorf("%w: empty MultiPoint", domain.ErrUnsupportedGeometry)
		}
		c, _ := planar.CentroidArea(mp)
		return &Extraction{Kind: kind, Point: c, Tolerance: pointTolerance, Zoom: Zoom(mp.Bound())}, nil

	case GeometryPolygon, GeometryMultiPolygon:
		if len(vertices(g)) == 0 {
			return nil, fmt.Errorf("%w: empty %s", domain.ErrUnsupportedGeometry, kind)
		}
		return &Extraction{
			Kind:      kind,
			Point:     containedCentroid(g),
			Tolerance: polygonTolerance,
			Zoom:      Zoom(g.Bound()),
			Shape:     true,
		}, nil

	default:
		name := "nil"
		if g != nil {
			name = g.GeoJSONType()
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedGeometry, name)
	}
}

// containedCentroid returns the centroid of g if it lies within or on g,
// else the vertex of g closest to the centroid.
func containedCentroid(g orb.Geometry) orb.Point {
	c, _ := planar.CentroidArea(g)
	if withinOrTouching(g, c) {
		return c
	}

	closest := orb.Point{}
	best := math.Inf(1)
	for _, v := range vertices(g) {
		if d := geo.DistanceHaversine(c, v); d < best {
			best = d
			closest = v
		}
	}
	logger.Debug("Centroid %v outside geometry, using closest vertex %v", c, closest)
	if !withinOrTouching(g, closest) {
		panic(fmt.Sprintf("closest vertex %v to centroid %v is not within or touching the geometry", closest, c))
	}
	return closest
}

// withinOrTouching reports whether p lies inside g or on its boundary.
func withinOrTouching(g orb.Geometry, p orb.Point) bool {
	var polygons []orb.Polygon
	switch t := g.(type) {
	case orb.Polygon:
		polygons = []orb.Polygon{t}
	case orb.MultiPolygon:
		polygons = t
	default:
		return false
	}
	for _, poly := range polygons {
		for _, ring := range poly {
			if onRing(ring, p) {
				return true
			}
		}
		if planar.PolygonContains(poly, p) {
			return true
		}
	}
	return false
}

// onRing reports whether p lies on one of the ring's segments.
func onRing(r orb.Ring, p orb.Point) bool {
	const eps = 1e-12
	for i := 0; i+1 < len(r); i++ {
		a, b := r[i], r[i+1]
		cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
		if math.Abs(cross) > eps {
			continue
		}
		if p[0] >= math.Min(a[0], b[0])-eps && p[0] <= math.Max(a[0], b[0])+eps &&
			p[1] >= math.Min(a[1], b[1])-eps && p[1] <= math.Max(a[1], b[1])+eps {
			return true
		}
	}
	return false
}

func vertices(g orb.Geometry) []orb.Point {
	var out []orb.Point
	switch t := g.(type) {
	case orb.Polygon:
		for _, ring := range t {
			out = append(out, ring...)
		}
	case orb.MultiPolygon:
		for _, poly := range t {
			for _, ring := range poly {
				out = append(out, ring...)
			}
		}
	}
	return out
}

// Zoom maps the great-circle diagonal of b to a display zoom level.
// Larger areas never get a higher zoom than smaller ones.
func Zoom(b orb.Bound) int {
	km := geo.DistanceHaversine(b.Min, b.Max) / 1000
	return zoomForDiagonal(km)
}

func zoomForDiagonal(km float64) int {
	for _, step := range zoomSteps {
		if km < step.maxKm {
			return step.zoom
		}
	}
	logger.Warn("Bounding box diagonal %.0f km exceeds the zoom table, using zoom %d", km, minZoom)
	return minZoom
}

package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

var (
	snapshotDate = day(2020, 2, 25)

	// square is a ~1.1 km wide polygon near Stockholm.
	square = orb.Polygon{{
		{18.00, 59.30}, {18.02, 59.30}, {18.02, 59.31}, {18.00, 59.31}, {18.00, 59.30},
	}}
)

func reserveProperties(nvrid string) map[string]any {
	return map[string]any{
		domain.AttrNVRID:    nvrid,
		domain.AttrName:     "Testreservatet",
		domain.AttrStatus:   domain.StatusActive,
		domain.AttrInForce:  "1990/05/01",
		domain.AttrIUCN:     "IV, Habitat/Species Management Area",
		domain.AttrOperator: "Länsstyrelsen i Stockholms län",
		domain.AttrCounty:   "Stockholms Län",
		"AREA_HA":           120.5,
		"LAND_HA":           100.0,
	}
}

func newFeature(g orb.Geometry, props map[string]any) *geojson.Feature {
	f := geojson.NewFeature(g)
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

func newObject(t *testing.T, g orb.Geometry, props map[string]any) *domain.LocalObject {
	t.Helper()
	obj, err := domain.NewLocalObject(newFeature(g, props), snapshotDate, snapshotDate)
	require.NoError(t, err)
	return obj
}

func newEntry(nvrid string) *domain.LedgerEntry {
	return domain.NewLedger().Open("test-run", nvrid, time.UnixMilli(1))
}

// publishedRef is a reference block recording only a publication date.
func publishedRef(t time.Time) []domain.Reference {
	return []domain.Reference{{Snaks: []domain.Snak{
		{Property: domain.PropPublicationDate, Value: domain.DateValue(t)},
	}}}
}

func remoteClaim(id string, p domain.Property, v domain.Value, published time.Time, qualifiers ...domain.Snak) domain.Claim {
	c := domain.Claim{ID: id, Property: p, Value: v, Qualifiers: qualifiers, Rank: domain.RankNormal}
	if !published.IsZero() {
		c.References = publishedRef(published)
	}
	return c
}

// claimNames filters ledger claim names to those listed in keep.
func claimNames(names []string, keep ...string) []string {
	var out []string
	for _, n := range names {
		for _, k := range keep {
			if n == k {
				out = append(out, n)
			}
		}
	}
	return out
}

func claimsOf(claims []domain.Claim, p domain.Property) []domain.Claim {
	var out []domain.Claim
	for _, c := range claims {
		if c.Property == p {
			out = append(out, c)
		}
	}
	return out
}

func testLookup() *LookupContext {
	return NewLookupContext(nil, map[string]string{
		"Länsstyrelsen i Stockholms län": "Q10",
		"Stockholms kommun":              "Q20",
	})
}

// ============================================================================
// Stub adapters
// ============================================================================

type stubDataset struct {
	files map[string][]*geojson.Feature
	err   error
}

func (d *stubDataset) Read(_ context.Context, path string) ([]*geojson.Feature, error) {
	if d.err != nil {
		return nil, d.err
	}
	features, ok := d.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return features, nil
}

type stubTables map[string]map[string]string

func (s stubTables) Load(_ context.Context, path string) (map[string]string, error) {
	table, ok := s[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return table, nil
}

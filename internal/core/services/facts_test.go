package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/adapters/driven/storage/memory"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

func reconcile(t *testing.T, obj *domain.LocalObject, item *domain.RemoteItem) (*domain.Delta, *domain.LedgerEntry) {
	t.Helper()
	delta := &domain.Delta{}
	entry := newEntry(obj.NVRID)
	err := NewFactReconciler(testLookup()).Reconcile(context.Background(), domain.NatureReserve, obj, item, delta, entry)
	require.NoError(t, err)
	return delta, entry
}

// ============================================================================
// Creation and idempotence
// ============================================================================

func TestFactReconciler_EmptyItem_AddsEveryFact(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))

	delta, entry := reconcile(t, obj, &domain.RemoteItem{ID: "Q1"})

	assert.Empty(t, delta.ToDelete)
	var props []domain.Property
	for _, c := range delta.ToAdd {
		props = append(props, c.Property)
		assert.Len(t, c.References, 1, "claim %s has provenance", c.Property)
		assert.Empty(t, c.ID)
	}
	assert.Equal(t, []domain.Property{
		domain.PropInception, domain.PropCountry, domain.PropIUCNCategory,
		domain.PropOperator, domain.PropArea, domain.PropArea,
	}, props)
	assert.Equal(t, []string{"inception date", "country", "IUCN category", "operator", "area", "area land"},
		entry.CreatedClaims)
	assert.Empty(t, entry.Warnings)

	inception := claimsOf(delta.ToAdd, domain.PropInception)[0]
	assert.Equal(t, domain.DateValue(day(1990, 5, 1)), inception.Value)

	iucn := claimsOf(delta.ToAdd, domain.PropIUCNCategory)[0]
	assert.Equal(t, "Q14545639", iucn.Value.Entity)
	assert.Empty(t, iucn.Qualifiers)

	operator := claimsOf(delta.ToAdd, domain.PropOperator)[0]
	assert.Equal(t, "Q10", operator.Value.Entity)
	assert.False(t, operator.HasQualifier(domain.PropPointInTime))

	land := claimsOf(delta.ToAdd, domain.PropArea)[1]
	part, ok := land.Qualifier(domain.PropAppliesToPart)
	require.True(t, ok)
	assert.Equal(t, domain.EntityLand, part.Entity)
}

func TestFactReconciler_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewFactStore()
	store.Put(&domain.RemoteItem{ID: "Q1"})
	obj := newObject(t, square, reserveProperties("2000001"))

	first, _ := reconcile(t, obj, &domain.RemoteItem{ID: "Q1"})
	require.False(t, first.Empty())
	require.NoError(t, store.CommitDelta(ctx, "Q1", *first, "update"))

	item, err := store.GetItem(ctx, "Q1")
	require.NoError(t, err)
	second, entry := reconcile(t, obj, item)

	assert.True(t, second.Empty(), "second delta: %+v", second)
	assert.Empty(t, entry.CreatedClaims)
	assert.Empty(t, entry.ModifiedClaims)
	assert.Empty(t, entry.Warnings)
}

// ============================================================================
// Scalars
// ============================================================================

func TestFactReconciler_ScalarCorrection(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	old := remoteClaim("Q1$1", domain.PropInception, domain.DateValue(day(1991, 1, 1)), day(2019, 1, 1))
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{old}}

	delta, entry := reconcile(t, obj, item)

	assert.Equal(t, []domain.Claim{old}, claimsOf(delta.ToDelete, domain.PropInception))
	added := claimsOf(delta.ToAdd, domain.PropInception)
	require.Len(t, added, 1)
	assert.Equal(t, domain.DateValue(day(1990, 5, 1)), added[0].Value)
	assert.False(t, added[0].HasQualifier(domain.PropPointInTime))
	assert.Contains(t, entry.ModifiedClaims, "inception date")
}

func TestFactReconciler_ScalarWithoutReferencesIsReissued(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	old := remoteClaim("Q1$1", domain.PropCountry, domain.EntityValue(domain.EntitySweden), time.Time{})
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{old}}

	delta, entry := reconcile(t, obj, item)

	assert.Equal(t, []domain.Claim{old}, claimsOf(delta.ToDelete, domain.PropCountry))
	added := claimsOf(delta.ToAdd, domain.PropCountry)
	require.Len(t, added, 1)
	assert.Len(t, added[0].References, 1)
	assert.Contains(t, entry.ModifiedClaims, "country")
}

func TestFactReconciler_FresherRemoteIsKept(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{
		remoteClaim("Q1$1", domain.PropCountry, domain.EntityValue("Q35"), day(2021, 6, 1)),
	}}

	delta, entry := reconcile(t, obj, item)

	assert.Empty(t, claimsOf(delta.ToAdd, domain.PropCountry))
	assert.Empty(t, claimsOf(delta.ToDelete, domain.PropCountry))
	require.Len(t, entry.Warnings, 1)
	assert.Contains(t, entry.Warnings[0], "country publication date is fresher")
}

func TestInceptionDate_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		props    map[string]any
		expected domain.Value
		err      error
	}{
		{
			name: "in force date wins",
			props: map[string]any{
				domain.AttrInForce:      "1990/05/01",
				domain.AttrOrigValidity: "1985/01/01",
				domain.AttrOrigDecision: "1980/01/01",
			},
			expected: domain.DateValue(day(1990, 5, 1)),
		},
		{
			name: "original validity before original decision",
			props: map[string]any{
				domain.AttrOrigValidity: "1985/01/01",
				domain.AttrOrigDecision: "1980/01/01",
			},
			expected: domain.DateValue(day(1985, 1, 1)),
		},
		{
			name:     "original decision alone",
			props:    map[string]any{domain.AttrOrigDecision: "1980/01/01"},
			expected: domain.DateValue(day(1980, 1, 1)),
		},
		{
			name:  "none present",
			props: map[string]any{},
			err:   domain.ErrMissingInceptionDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.props[domain.AttrNVRID] = "1"
			obj := newObject(t, square, tt.props)
			got, err := inceptionDate(obj)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFactReconciler_InvalidInceptionFailsObject(t *testing.T) {
	props := reserveProperties("2000001")
	props[domain.AttrInForce] = "1990-05-01"
	obj := newObject(t, square, props)

	delta := &domain.Delta{}
	err := NewFactReconciler(testLookup()).Reconcile(context.Background(), domain.NatureReserve, obj,
		&domain.RemoteItem{ID: "Q1"}, delta, newEntry(obj.NVRID))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "inception date")
	assert.True(t, delta.Empty())
}

func TestFactReconciler_MissingInceptionFailsObject(t *testing.T) {
	props := reserveProperties("2000001")
	delete(props, domain.AttrInForce)
	obj := newObject(t, square, props)

	err := NewFactReconciler(testLookup()).Reconcile(context.Background(), domain.NatureReserve, obj,
		&domain.RemoteItem{ID: "Q1"}, &domain.Delta{}, newEntry(obj.NVRID))

	assert.True(t, errors.Is(err, domain.ErrMissingInceptionDate))
}

// ============================================================================
// IUCN category
// ============================================================================

func TestParseIUCN(t *testing.T) {
	assert.Equal(t, "II", parseIUCN("II, Nationalpark"))
	assert.Equal(t, "IB", parseIUCN(" ib "))
	assert.Equal(t, "0", parseIUCN("0"))
}

func TestFactReconciler_IUCNBecomesNotApplicable(t *testing.T) {
	props := reserveProperties("2000001")
	props[domain.AttrIUCN] = "0"
	obj := newObject(t, square, props)
	old := remoteClaim("Q1$7", domain.PropIUCNCategory, domain.EntityValue("Q14545628"), day(2019, 1, 1))
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{old}}

	delta, entry := reconcile(t, obj, item)

	assert.Equal(t, []domain.Claim{old}, delta.ToDelete)
	added := claimsOf(delta.ToAdd, domain.PropIUCNCategory)
	require.Len(t, added, 2)

	closed := added[0]
	assert.Empty(t, closed.ID)
	assert.Equal(t, old.Value, closed.Value)
	assert.Equal(t, old.References, closed.References)
	assert.Equal(t, []domain.Snak{{Property: domain.PropPointInTime, Value: domain.DateValue(day(2019, 1, 1))}},
		closed.Qualifiers)

	fresh := added[1]
	assert.True(t, fresh.Value.IsNone())
	assert.Equal(t, []domain.Snak{{Property: domain.PropPointInTime, Value: domain.DateValue(snapshotDate)}},
		fresh.Qualifiers)

	assert.Equal(t, []string{"IUCN category"}, entry.ModifiedClaims)
	assert.Contains(t, entry.CreatedClaims, "IUCN category")
}

func TestFactReconciler_IUCNAlreadyClosedIsKept(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	old := remoteClaim("Q1$7", domain.PropIUCNCategory, domain.EntityValue("Q14545628"), day(2019, 1, 1),
		domain.Snak{Property: domain.PropPointInTime, Value: domain.DateValue(day(2019, 1, 1))})
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{old}}

	delta, _ := reconcile(t, obj, item)

	assert.Empty(t, claimsOf(delta.ToDelete, domain.PropIUCNCategory))
	added := claimsOf(delta.ToAdd, domain.PropIUCNCategory)
	require.Len(t, added, 1)
	assert.Equal(t, "Q14545639", added[0].Value.Entity)
}

func TestFactReconciler_IUCNWithoutPublishedDateKeepsOldClaim(t *testing.T) {
	ctx := context.Background()
	obj := newObject(t, square, reserveProperties("2000001"))
	old := remoteClaim("Q1$7", domain.PropIUCNCategory, domain.EntityValue("Q14545628"), time.Time{})
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{old}}

	delta, entry := reconcile(t, obj, item)

	assert.Empty(t, claimsOf(delta.ToDelete, domain.PropIUCNCategory))
	added := claimsOf(delta.ToAdd, domain.PropIUCNCategory)
	require.Len(t, added, 1)
	assert.Equal(t, "Q14545639", added[0].Value.Entity)
	pit, ok := added[0].Qualifier(domain.PropPointInTime)
	require.True(t, ok)
	assert.Equal(t, snapshotDate, pit.Time)
	require.Len(t, entry.Warnings, 1)
	assert.Contains(t, entry.Warnings[0], "Unable to close previous IUCN category claim")
	assert.Empty(t, entry.ModifiedClaims)
	assert.Equal(t, []string{"IUCN category"}, claimNames(entry.CreatedClaims, "IUCN category"))

	// The next run settles on the new claim.
	store := memory.NewFactStore()
	store.Put(item)
	require.NoError(t, store.CommitDelta(ctx, "Q1", *delta, "update"))
	updated, err := store.GetItem(ctx, "Q1")
	require.NoError(t, err)

	second, entry := reconcile(t, obj, updated)

	assert.Empty(t, claimsOf(second.ToAdd, domain.PropIUCNCategory))
	assert.Empty(t, claimsOf(second.ToDelete, domain.PropIUCNCategory))
	assert.Empty(t, entry.Warnings)
}

func TestFactReconciler_IUCNIncompleteClaimIsNotCopied(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	old := remoteClaim("Q1$7", domain.PropIUCNCategory, domain.EntityValue("Q14545628"), day(2019, 1, 1))
	old.Incomplete = true
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{old}}

	delta, entry := reconcile(t, obj, item)

	assert.Empty(t, claimsOf(delta.ToDelete, domain.PropIUCNCategory))
	added := claimsOf(delta.ToAdd, domain.PropIUCNCategory)
	require.Len(t, added, 1)
	assert.Equal(t, "Q14545639", added[0].Value.Entity)
	require.Len(t, entry.Warnings, 1)
	assert.Contains(t, entry.Warnings[0], "cannot be copied")
}

func TestFactReconciler_UnsupportedIUCNCategory(t *testing.T) {
	props := reserveProperties("2000001")
	props[domain.AttrIUCN] = "VII"
	obj := newObject(t, square, props)

	delta, entry := reconcile(t, obj, &domain.RemoteItem{ID: "Q1"})

	assert.Empty(t, claimsOf(delta.ToAdd, domain.PropIUCNCategory))
	assert.Equal(t, []string{"Unsupported IUCN category in feature: VII"}, entry.Warnings)
}

// ============================================================================
// Operator
// ============================================================================

func TestFactReconciler_OperatorChangeKeepsHistory(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	old := remoteClaim("Q1$3", domain.PropOperator, domain.EntityValue("Q99"), day(2019, 1, 1))
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{old}}

	delta, entry := reconcile(t, obj, item)

	assert.Equal(t, []domain.Claim{old}, claimsOf(delta.ToDelete, domain.PropOperator))
	added := claimsOf(delta.ToAdd, domain.PropOperator)
	require.Len(t, added, 2)
	assert.Equal(t, "Q99", added[0].Value.Entity)
	assert.True(t, added[0].HasQualifier(domain.PropPointInTime))
	assert.Equal(t, "Q10", added[1].Value.Entity)
	assert.Equal(t, []domain.Snak{{Property: domain.PropPointInTime, Value: domain.DateValue(snapshotDate)}},
		added[1].Qualifiers)
	assert.Contains(t, entry.ModifiedClaims, "operator")
}

func TestFactReconciler_UnknownOperator(t *testing.T) {
	props := reserveProperties("2000001")
	props[domain.AttrOperator] = "Okänd förvaltare"
	obj := newObject(t, square, props)

	delta, entry := reconcile(t, obj, &domain.RemoteItem{ID: "Q1"})

	assert.Empty(t, claimsOf(delta.ToAdd, domain.PropOperator))
	assert.Equal(t, []string{`Unknown operator "Okänd förvaltare"`}, entry.Warnings)
}

// ============================================================================
// Areas
// ============================================================================

func TestFactReconciler_NewTotalArea(t *testing.T) {
	props := reserveProperties("2000001")
	delete(props, "LAND_HA")
	obj := newObject(t, square, props)

	delta, entry := reconcile(t, obj, &domain.RemoteItem{ID: "Q1"})

	areas := claimsOf(delta.ToAdd, domain.PropArea)
	require.Len(t, areas, 1)
	assert.Equal(t, domain.QuantityValue(120.5, domain.EntityHectare), areas[0].Value)
	assert.Empty(t, areas[0].Qualifiers)
	assert.Len(t, areas[0].References, 1)
	assert.Empty(t, delta.ToDelete)
	assert.Contains(t, entry.CreatedClaims, "area")
}

func TestFactReconciler_AreaChanged(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	old := remoteClaim("Q1$4", domain.PropArea, domain.QuantityValue(100, domain.EntityHectare), day(2019, 1, 1))
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{old}}

	delta, entry := reconcile(t, obj, item)

	assert.Equal(t, []domain.Claim{old}, claimsOf(delta.ToDelete, domain.PropArea))
	areas := claimsOf(delta.ToAdd, domain.PropArea)
	require.Len(t, areas, 2)
	assert.Equal(t, 120.5, areas[0].Value.Quantity.Amount)
	assert.Equal(t, []string{"area"}, entry.ModifiedClaims)
	assert.Contains(t, entry.CreatedClaims, "area land")
}

func TestFactReconciler_AmbiguousAreaQualifier(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{
		remoteClaim("Q1$4", domain.PropArea, domain.QuantityValue(100, domain.EntityHectare), day(2019, 1, 1)),
		remoteClaim("Q1$5", domain.PropArea, domain.QuantityValue(110, domain.EntityHectare), day(2019, 1, 1)),
	}}

	err := NewFactReconciler(testLookup()).Reconcile(context.Background(), domain.NatureReserve, obj, item,
		&domain.Delta{}, newEntry(obj.NVRID))

	assert.True(t, errors.Is(err, domain.ErrAmbiguousQualifier))
}

func TestFactReconciler_HistoricAreaIsNotTotal(t *testing.T) {
	obj := newObject(t, square, reserveProperties("2000001"))
	total := remoteClaim("Q1$4", domain.PropArea, domain.QuantityValue(120.5, domain.EntityHectare), day(2019, 1, 1))
	historic := remoteClaim("Q1$5", domain.PropArea, domain.QuantityValue(99, domain.EntityHectare), day(2010, 1, 1),
		domain.Snak{Property: domain.PropPointInTime, Value: domain.DateValue(day(2010, 1, 1))})
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{total, historic}}

	delta, entry := reconcile(t, obj, item)

	assert.Empty(t, claimsOf(delta.ToDelete, domain.PropArea))
	areas := claimsOf(delta.ToAdd, domain.PropArea)
	require.Len(t, areas, 1)
	assert.True(t, areas[0].HasQualifier(domain.PropAppliesToPart))
	assert.NotContains(t, entry.ModifiedClaims, "area")
	assert.Equal(t, []string{"area land"}, claimNames(entry.CreatedClaims, "area", "area land"))
}

func TestFactReconciler_AreasRemovedWhenKindHasNone(t *testing.T) {
	props := reserveProperties("3000001")
	obj := newObject(t, orb.Point{18.01, 59.305}, props)
	total := remoteClaim("Q1$4", domain.PropArea, domain.QuantityValue(1, domain.EntityHectare), day(2019, 1, 1))
	land := remoteClaim("Q1$5", domain.PropArea, domain.QuantityValue(1, domain.EntityHectare), day(2019, 1, 1),
		domain.Snak{Property: domain.PropAppliesToPart, Value: domain.EntityValue(domain.EntityLand)})
	item := &domain.RemoteItem{ID: "Q1", Claims: []domain.Claim{total, land}}

	delta := &domain.Delta{}
	entry := newEntry(obj.NVRID)
	err := NewFactReconciler(testLookup()).Reconcile(context.Background(), domain.NaturalMonument, obj, item, delta, entry)
	require.NoError(t, err)

	assert.Equal(t, []domain.Claim{total, land}, claimsOf(delta.ToDelete, domain.PropArea))
	assert.Empty(t, claimsOf(delta.ToAdd, domain.PropArea))
	assert.Equal(t, []string{"area", "area land"}, entry.DeletedClaims)
}

// ============================================================================
// Coordinate
// ============================================================================

func TestFactReconciler_ReconcileCoordinate(t *testing.T) {
	point := orb.Point{18.0, 59.3}
	ext, err := GeometryExtractor{}.Extract(point)
	require.NoError(t, err)
	polyExt := &Extraction{Kind: GeometryPolygon, Point: point, Tolerance: polygonTolerance, Shape: true}

	coordinate := func(lat float64, published int) domain.Claim {
		return remoteClaim("Q1$9", domain.PropCoordinate, domain.CoordinateValue(lat, 18.0, coordinatePrecision),
			day(published, 1, 1))
	}

	tests := []struct {
		name     string
		ext      *Extraction
		remote   []domain.Claim
		added    int
		deleted  int
		warnings int
	}{
		{name: "no remote coordinate", ext: ext, added: 1},
		{name: "identical", ext: ext, remote: []domain.Claim{coordinate(59.3, 2019)}},
		{name: "below point tolerance", ext: ext, remote: []domain.Claim{coordinate(59.300004, 2019)}},
		{name: "moved 50 m", ext: ext, remote: []domain.Claim{coordinate(59.30045, 2019)}, added: 1, deleted: 1},
		{name: "polygon below tolerance", ext: polyExt, remote: []domain.Claim{coordinate(59.30045, 2019)}},
		{name: "polygon moved 500 m", ext: polyExt, remote: []domain.Claim{coordinate(59.3045, 2019)}, added: 1, deleted: 1},
		{name: "remote fresher", ext: ext, remote: []domain.Claim{coordinate(59.3045, 2021)}, warnings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := newObject(t, point, reserveProperties("1"))
			delta := &domain.Delta{}
			entry := newEntry(obj.NVRID)

			NewFactReconciler(testLookup()).ReconcileCoordinate(obj, &domain.RemoteItem{ID: "Q1", Claims: tt.remote},
				tt.ext, delta, entry)

			assert.Len(t, delta.ToAdd, tt.added)
			assert.Len(t, delta.ToDelete, tt.deleted)
			assert.Len(t, entry.Warnings, tt.warnings)
			if tt.added == 1 {
				c := delta.ToAdd[0].Value.Coordinate
				require.NotNil(t, c)
				assert.Equal(t, 59.3, c.Latitude)
				assert.Equal(t, 18.0, c.Longitude)
			}
		})
	}
}

// ============================================================================
// Claim selection
// ============================================================================

func TestMostRecentPublished(t *testing.T) {
	assert.Nil(t, mostRecentPublished(nil))

	undated := remoteClaim("a", domain.PropCountry, domain.EntityValue("Q1"), time.Time{})
	older := remoteClaim("b", domain.PropCountry, domain.EntityValue("Q2"), day(2019, 1, 1))
	newer := remoteClaim("c", domain.PropCountry, domain.EntityValue("Q3"), day(2020, 1, 1))

	assert.Equal(t, "c", mostRecentPublished([]domain.Claim{undated, newer, older}).ID)
	assert.Equal(t, "b", mostRecentPublished([]domain.Claim{undated, older}).ID)

	other := undated
	other.ID = "d"
	assert.Equal(t, "a", mostRecentPublished([]domain.Claim{undated, other}).ID)
}

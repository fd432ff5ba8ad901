package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

// Claim names recorded in ledger entries.
const (
	factInception  = "inception date"
	factCountry    = "country"
	factIUCN       = "IUCN category"
	factOperator   = "operator"
	factCoordinate = "coordinate location"
	factGeoshape   = "geoshape"
)

// inceptionAttributes lists the inception date sources in precedence order.
var inceptionAttributes = []string{
	domain.AttrInForce,
	domain.AttrOrigValidity,
	domain.AttrOrigDecision,
}

// FactReconciler computes per-field deltas between a local object and
// its remote item.
type FactReconciler struct {
	freshness FreshnessPolicy
	lookup    *LookupContext
}

// NewFactReconciler creates a fact reconciler resolving operators through lookup.
func NewFactReconciler(lookup *LookupContext) *FactReconciler {
	return &FactReconciler{lookup: lookup}
}

// Reconcile appends the delta for every non-geometry fact of obj.
// An error fails the whole object.
func (r *FactReconciler) Reconcile(
	ctx context.Context,
	kind domain.ObjectKind,
	obj *domain.LocalObject,
	item *domain.RemoteItem,
	delta *domain.Delta,
	entry *domain.LedgerEntry,
) error {
	inception, err := inceptionDate(obj)
	if err != nil {
		return err
	}
	r.reconcileScalar(factInception, domain.PropInception, inception, obj, item, delta, entry)
	r.reconcileScalar(factCountry, domain.PropCountry, domain.EntityValue(domain.EntitySweden), obj, item, delta, entry)
	r.reconcileIUCN(obj, item, delta, entry)
	r.reconcileOperator(ctx, obj, item, delta, entry)
	return r.reconcileAreas(kind.HasAreas(obj), obj, item, delta, entry)
}

// inceptionDate picks the first present inception attribute.
func inceptionDate(obj *domain.LocalObject) (domain.Value, error) {
	for _, attr := range inceptionAttributes {
		t, present, err := obj.Date(attr)
		if err != nil {
			return domain.Value{}, fmt.Errorf("inception date: %w", err)
		}
		if present {
			return domain.DateValue(t), nil
		}
	}
	return domain.Value{}, domain.ErrMissingInceptionDate
}

// reconcileScalar handles a single-valued fact without history. A value
// change is a correction: the old claim is replaced outright.
func (r *FactReconciler) reconcileScalar(
	name string,
	p domain.Property,
	local domain.Value,
	obj *domain.LocalObject,
	item *domain.RemoteItem,
	delta *domain.Delta,
	entry *domain.LedgerEntry,
) {
	fresh := newClaim(obj, p, local)
	existing := mostRecentPublished(item.ClaimsFor(p))

	switch {
	case existing == nil:
		delta.Add(fresh)
		entry.Created(name)
	case !existing.Value.Equal(local):
		if !r.freshness.MaySupersede(publishedOf(existing), obj.PublishedDate) {
			warn(entry, "%s publication date is fresher at Wikidata than local publish date", name)
			return
		}
		delta.Replace(*existing, fresh)
		entry.Modified(name)
	case len(existing.References) == 0:
		// Same value without provenance: re-issue with references.
		delta.Replace(*existing, fresh)
		entry.Modified(name)
	}
}

// parseIUCN extracts the category code from values such as "II, Nationalpark".
func parseIUCN(raw string) string {
	code, _, _ := strings.Cut(raw, ",")
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *FactReconciler) reconcileIUCN(
	obj *domain.LocalObject,
	item *domain.RemoteItem,
	delta *domain.Delta,
	entry *domain.LedgerEntry,
) {
	raw := obj.String(domain.AttrIUCN)
	if strings.TrimSpace(raw) == "" {
		return
	}
	code := parseIUCN(raw)
	entity, ok := domain.IUCNCategories[code]
	if !ok {
		warn(entry, "Unsupported IUCN category in feature: %s", code)
		return
	}

	local := domain.NoValue()
	if entity != "" {
		local = domain.EntityValue(entity)
	}
	existing := mostRecentPublished(item.ClaimsFor(domain.PropIUCNCategory))
	if existing == nil {
		delta.Add(newClaim(obj, domain.PropIUCNCategory, local))
		entry.Created(factIUCN)
		return
	}
	if !r.freshness.MaySupersede(publishedOf(existing), obj.PublishedDate) {
		warn(entry, "IUCN publication date is fresher at Wikidata")
		return
	}
	if existing.Value.Equal(local) {
		return
	}
	r.supersede(factIUCN, obj, *existing, local, delta, entry)
}

func (r *FactReconciler) reconcileOperator(
	ctx context.Context,
	obj *domain.LocalObject,
	item *domain.RemoteItem,
	delta *domain.Delta,
	entry *domain.LedgerEntry,
) {
	name := strings.TrimSpace(obj.String(domain.AttrOperator))
	if name == "" {
		return
	}
	id, ok := r.lookup.Operator(ctx, name)
	if !ok {
		warn(entry, "Unknown operator %q", name)
		return
	}

	local := domain.EntityValue(id)
	existing := mostRecentPublished(item.ClaimsFor(domain.PropOperator))
	if existing == nil {
		delta.Add(newClaim(obj, domain.PropOperator, local))
		entry.Created(factOperator)
		return
	}
	if !r.freshness.MaySupersede(publishedOf(existing), obj.PublishedDate) {
		warn(entry, "Operator publication date is fresher at Wikidata")
		return
	}
	if existing.Value.Equal(local) {
		return
	}
	r.supersede(factOperator, obj, *existing, local, delta, entry)
}

// supersede retires old with a point-in-time qualifier unless it already
// has one, then adds local with a point-in-time of obj's publication date.
// An old claim that cannot be closed faithfully is left untouched.
func (r *FactReconciler) supersede(
	name string,
	obj *domain.LocalObject,
	old domain.Claim,
	local domain.Value,
	delta *domain.Delta,
	entry *domain.LedgerEntry,
) {
	if !old.HasQualifier(domain.PropPointInTime) {
		published, ok := old.PublishedDate()
		switch {
		case !ok:
			warn(entry, "Unable to close previous %s claim: no publication date in its references", name)
		case old.Incomplete:
			warn(entry, "Unable to close previous %s claim: it carries snaks that cannot be copied", name)
		default:
			delta.Replace(old, closeClaim(old, domain.DateValue(published)))
			entry.Modified(name)
		}
	}
	delta.Add(newClaim(obj, old.Property, local,
		domain.Snak{Property: domain.PropPointInTime, Value: domain.DateValue(obj.PublishedDate)}))
	entry.Created(name)
}

// reconcileAreas handles the four area variants. When the object kind has
// no areas, every variant found remotely is deleted.
func (r *FactReconciler) reconcileAreas(
	hasAreas bool,
	obj *domain.LocalObject,
	item *domain.RemoteItem,
	delta *domain.Delta,
	entry *domain.LedgerEntry,
) error {
	claims := item.ClaimsFor(domain.PropArea)
	for _, variant := range domain.AreaVariants {
		existing, err := findAreaVariant(claims, variant)
		if err != nil {
			return fmt.Errorf("%s: %w", variant.Name, err)
		}

		if !hasAreas {
			if existing != nil {
				delta.Delete(*existing)
				entry.Deleted(variant.Name)
			}
			continue
		}

		amount, ok := obj.Float(variant.Attribute)
		if !ok {
			continue
		}
		var qualifiers []domain.Snak
		if variant.Part != "" {
			qualifiers = append(qualifiers, domain.Snak{Property: domain.PropAppliesToPart, Value: domain.EntityValue(variant.Part)})
		}
		fresh := newClaim(obj, domain.PropArea, domain.QuantityValue(amount, domain.EntityHectare), qualifiers...)

		if existing == nil {
			delta.Add(fresh)
			entry.Created(variant.Name)
			continue
		}
		if !r.freshness.MaySupersede(publishedOf(existing), obj.PublishedDate) {
			warn(entry, "%s publication date is fresher at Wikidata", variant.Name)
			continue
		}
		if !existing.Value.Equal(fresh.Value) {
			delta.Replace(*existing, fresh)
			entry.Modified(variant.Name)
		}
	}
	return nil
}

// findAreaVariant returns the single claim whose applies-to-part qualifier
// matches the variant. The total area is the claim with no qualifiers at all.
func findAreaVariant(claims []domain.Claim, variant domain.AreaVariant) (*domain.Claim, error) {
	var found *domain.Claim
	for i := range claims {
		var match bool
		if variant.Part == "" {
			match = len(claims[i].Qualifiers) == 0
		} else {
			part, ok := claims[i].Qualifier(domain.PropAppliesToPart)
			match = ok && part.Type == domain.ValueEntity && part.Entity == variant.Part
		}
		if !match {
			continue
		}
		if found != nil {
			return nil, domain.ErrAmbiguousQualifier
		}
		found = &claims[i]
	}
	return found, nil
}

// ReconcileCoordinate appends the delta for the location fact. Changes
// below the extraction's tolerance are ignored.
func (r *FactReconciler) ReconcileCoordinate(
	obj *domain.LocalObject,
	item *domain.RemoteItem,
	ext *Extraction,
	delta *domain.Delta,
	entry *domain.LedgerEntry,
) {
	local := domain.CoordinateValue(ext.Point.Lat(), ext.Point.Lon(), coordinatePrecision)
	fresh := newClaim(obj, domain.PropCoordinate, local)

	existing := mostRecentPublished(item.ClaimsFor(domain.PropCoordinate))
	if existing == nil || existing.Value.Coordinate == nil {
		if existing != nil {
			delta.Delete(*existing)
		}
		delta.Add(fresh)
		entry.Created(factCoordinate)
		return
	}
	if !r.freshness.MaySupersede(publishedOf(existing), obj.PublishedDate) {
		warn(entry, "Coordinate publication date is fresher at Wikidata")
		return
	}
	remote := orb.Point{existing.Value.Coordinate.Longitude, existing.Value.Coordinate.Latitude}
	distance := geo.DistanceHaversine(remote, ext.Point)
	if distance < ext.Tolerance {
		return
	}
	logger.Debug("Coordinate of %s moved %.1f m", obj.NVRID, distance)
	delta.Replace(*existing, fresh)
	entry.Modified(factCoordinate)
}

// mostRecentPublished returns the claim with the latest reference
// publication date. Claims with a date beat claims without one; when no
// claim has a date the first one stands.
func mostRecentPublished(claims []domain.Claim) *domain.Claim {
	if len(claims) == 0 {
		return nil
	}
	best := &claims[0]
	bestDate := publishedOf(best)
	for i := 1; i < len(claims); i++ {
		d := publishedOf(&claims[i])
		if d == nil {
			continue
		}
		if bestDate == nil || d.After(*bestDate) {
			best = &claims[i]
			bestDate = d
		}
	}
	return best
}

// warn records a warning on the entry and logs it.
func warn(entry *domain.LedgerEntry, format string, args ...any) {
	entry.Warn(format, args...)
	logger.Warn("%s: "+format, append([]any{entry.NVRID}, args...)...)
}

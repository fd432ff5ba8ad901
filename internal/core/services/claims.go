package services

import (
	"fmt"
	"strings"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

const (
	// registryURLFormat is the per-object source URL cited in references.
	registryURLFormat = "http://nvpub.vic-metria.nu/naturvardsregistret/rest/omrade/%s/G%%C3%%A4llande"

	// coordinatePrecision is the precision of published coordinates, in degrees.
	coordinatePrecision = 0.00001

	summaryCreateItem = "Created by bot from data supplied by Naturvårdsverket"
	summaryUpdateItem = "Updated by bot from data supplied by Naturvårdsverket"
)

// registryReference builds the provenance block attached to every claim
// issued for obj.
func registryReference(obj *domain.LocalObject) domain.Reference {
	return domain.Reference{Snaks: []domain.Snak{
		{Property: domain.PropReferenceURL, Value: domain.StringValue(fmt.Sprintf(registryURLFormat, obj.NVRID))},
		{Property: domain.PropStatedIn, Value: domain.EntityValue(domain.EntityProtectedAreas)},
		{Property: domain.PropRetrieved, Value: domain.DateValue(obj.RetrievedDate)},
		{Property: domain.PropPublicationDate, Value: domain.DateValue(obj.PublishedDate)},
	}}
}

// newClaim builds a referenced claim for obj.
func newClaim(obj *domain.LocalObject, p domain.Property, v domain.Value, qualifiers ...domain.Snak) domain.Claim {
	return domain.Claim{
		Property:   p,
		Value:      v,
		Qualifiers: qualifiers,
		References: []domain.Reference{registryReference(obj)},
		Rank:       domain.RankNormal,
	}
}

// closeClaim re-issues old with a point-in-time qualifier. The copy has
// no remote identifier; it is committed as a new claim.
func closeClaim(old domain.Claim, at domain.Value) domain.Claim {
	closed := old.WithQualifier(domain.PropPointInTime, at)
	closed.ID = ""
	return closed
}

// newItemDraft builds the initial content of an item for obj.
func newItemDraft(kind domain.ObjectKind, obj *domain.LocalObject) domain.ItemDraft {
	draft := domain.ItemDraft{
		Labels:       make(map[string]string),
		Descriptions: make(map[string]string),
		Claims: []domain.Claim{
			newClaim(obj, domain.PropInstanceOf, domain.EntityValue(kind.EntityID)),
			newClaim(obj, domain.PropNVRID, domain.StringValue(obj.NVRID)),
		},
	}
	for _, lang := range kind.Languages {
		draft.Labels[lang] = obj.Name
		if d := kind.Description(obj, lang); d != "" {
			draft.Descriptions[lang] = d
		}
	}
	return draft
}

// itemQuery selects items carrying obj's registry identifier. LIMIT 2 is
// enough to detect duplicates.
func itemQuery(nvrid string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(nvrid)
	return fmt.Sprintf(`SELECT ?item WHERE { ?item wdt:%s ?value. FILTER (?value IN ("%s")) } LIMIT 2`,
		domain.PropNVRID, escaped)
}

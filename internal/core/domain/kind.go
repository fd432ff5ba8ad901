package domain

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// ObjectKind is the per-kind configuration of a batch: which remote class
// the items belong to, where the dataset lives, and how documents and
// descriptions are labelled.
type ObjectKind struct {
	// Name is the CLI name, e.g. "nature-reserve".
	Name string

	// LedgerName names the ledger file or table partition.
	LedgerName string

	// EntityID is the remote class entity used for instance-of.
	EntityID string

	// TitleSegment is the document title path segment, e.g. "Nature reserves".
	TitleSegment string

	// SourceURL is the dataset metadata page cited in shape documents.
	SourceURL string

	// DefaultFiles are the dataset files processed when none are given.
	DefaultFiles []string

	// Languages are the label and description languages for new items.
	Languages []string

	// NormalizeTitle replaces punctuation in the name part of document titles.
	NormalizeTitle bool

	describe   func(o *LocalObject, lang string) string
	categories func(o *LocalObject) []string
	hasAreas   func(o *LocalObject) bool
}

// Description returns the item description for a language, or "" when
// the language is not supported.
func (k ObjectKind) Description(o *LocalObject, lang string) string {
	if k.describe == nil {
		return ""
	}
	return k.describe(o, lang)
}

// Categories returns the category tags written to the shape document's
// talk page.
func (k ObjectKind) Categories(o *LocalObject) []string {
	if k.categories == nil {
		return nil
	}
	return k.categories(o)
}

// HasAreas reports whether the dataset supplies area attributes for the object.
func (k ObjectKind) HasAreas(o *LocalObject) bool {
	if k.hasAreas == nil {
		return true
	}
	return k.hasAreas(o)
}

func fixedCategories(names ...string) func(*LocalObject) []string {
	return func(*LocalObject) []string {
		return append([]string(nil), names...)
	}
}

func polygonal(o *LocalObject) bool {
	if o.Feature == nil {
		return false
	}
	switch o.Feature.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	default:
		return false
	}
}

// NatureReserve is the nature reserve kind.
var NatureReserve = ObjectKind{
	Name:         "nature-reserve",
	LedgerName:   "NatureReserve",
	EntityID:     EntityNatureReserve,
	TitleSegment: "Nature reserves",
	SourceURL:    "https://metadatakatalogen.naturvardsverket.se/metadatakatalogen/GetMetaDataById?id=2921b01a-0baf-4702-a89f-9c5626c97844",
	DefaultFiles: []string{"data/4326/naturreservat.geojson"},
	Languages:    []string{"sv", "en"},
	describe: func(o *LocalObject, lang string) string {
		switch lang {
		case "sv":
			return "naturreservat i " + o.County()
		case "en":
			return "nature reserve in " + o.County() + ", Sweden"
		}
		return ""
	},
	categories: fixedCategories(
		"Map data of Sweden",
		"Map data of protected areas of Sweden",
		"Map data of nature reserves of Sweden",
	),
}

// NationalPark is the national park kind.
var NationalPark = ObjectKind{
	Name:         "national-park",
	LedgerName:   "NationalPark",
	EntityID:     EntityNationalPark,
	TitleSegment: "National parks",
	SourceURL:    "https://metadatakatalogen.naturvardsverket.se/metadatakatalogen/GetMetaDataById?id=bfc33845-ffb9-4835-8355-76af3773d4e0",
	DefaultFiles: []string{"data/4326/nationalparker.geojson"},
	Languages:    []string{"sv", "en"},
	describe: func(o *LocalObject, lang string) string {
		switch lang {
		case "sv":
			return "nationalpark i " + o.County()
		case "en":
			return "national park in " + o.County() + ", Sweden"
		}
		return ""
	},
	categories: fixedCategories(
		"Map data of Sweden",
		"Map data of protected areas of Sweden",
		"Map data of national parks of Sweden",
	),
}

// NaturalMonument is the natural monument kind. Point monuments carry no
// area attributes.
var NaturalMonument = ObjectKind{
	Name:         "natural-monument",
	LedgerName:   "NaturalMonument",
	EntityID:     EntityNaturalMonument,
	TitleSegment: "Natural monuments",
	SourceURL:    "https://metadatakatalogen.naturvardsverket.se/metadatakatalogen/GetMetaDataById?id=c6b02e88-8084-4b3f-8a7d-33e5d45349c4",
	DefaultFiles: []string{
		"data/4326/naturminne_polygon.geojson",
		"data/4326/naturminne_punkt.geojson",
	},
	Languages:      []string{"sv", "en"},
	NormalizeTitle: true,
	describe: func(o *LocalObject, lang string) string {
		switch lang {
		case "sv":
			return fmt.Sprintf("naturminne med NVRID %s i %s", o.NVRID, o.County())
		case "en":
			return fmt.Sprintf("natural monument with NVRID %s in %s, Sweden", o.NVRID, o.County())
		}
		return ""
	},
	categories: func(o *LocalObject) []string {
		return []string{"Map data of natural monuments of Sweden|" + o.Name}
	},
	hasAreas: polygonal,
}

var kinds = map[string]ObjectKind{
	NatureReserve.Name:   NatureReserve,
	NationalPark.Name:    NationalPark,
	NaturalMonument.Name: NaturalMonument,
}

// KindByName returns a registered object kind.
func KindByName(name string) (ObjectKind, error) {
	k, ok := kinds[name]
	if !ok {
		return ObjectKind{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return k, nil
}

// KindNames returns the registered kind names in sorted order.
func KindNames() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

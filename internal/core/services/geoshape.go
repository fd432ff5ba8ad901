package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/unicode/norm"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

const (
	shapeLicense       = "CC0-1.0"
	shapeSourcesPrefix = "Naturvårdsverket (Swedish Environmental Protection Agency), "

	summaryCreateDocument = "Initial creation using data from Naturvårdsverket."
	summaryUpdateDocument = "Updated using data from Naturvårdsverket due to detected difference with local data."
)

// ShapeDocument is the canonical content of a map data page.
// Field order is the serialised order.
type ShapeDocument struct {
	License     string            `json:"license"`
	Sources     string            `json:"sources"`
	Description map[string]string `json:"description"`
	Longitude   float64           `json:"longitude"`
	Latitude    float64           `json:"latitude"`
	Zoom        int               `json:"zoom"`
	Data        *geojson.Feature  `json:"data"`
}

// GeoshapeSync maintains the shape document and its talk page for an
// object, and the claim linking the item to the document.
type GeoshapeSync struct {
	docs        driven.DocumentStore
	freshness   FreshnessPolicy
	sandboxUser string
	dryRun      bool
}

// NewGeoshapeSync creates a geoshape synchroniser. A non-empty
// sandboxUser places every title under that user's sandbox.
func NewGeoshapeSync(docs driven.DocumentStore, sandboxUser string, dryRun bool) *GeoshapeSync {
	return &GeoshapeSync{docs: docs, sandboxUser: sandboxUser, dryRun: dryRun}
}

// Title returns the canonical document title for obj.
func (s *GeoshapeSync) Title(kind domain.ObjectKind, obj *domain.LocalObject) string {
	name := obj.Name
	if kind.NormalizeTitle {
		name = normalizeTitleName(name)
	}
	var b strings.Builder
	b.WriteString("Data:")
	if s.sandboxUser != "" {
		b.WriteString("Sandbox/" + s.sandboxUser)
	}
	fmt.Fprintf(&b, "/Sweden/%s/%d/%s/%s.map", kind.TitleSegment, obj.PublishedDate.Year(), name, obj.NVRID)
	return norm.NFC.String(b.String())
}

// TalkTitle returns the talk page title of a document.
func TalkTitle(title string) string {
	return strings.Replace(title, "Data:", "Data_talk:", 1)
}

// TalkContent renders the category tags of a talk page.
func TalkContent(categories []string) string {
	var b strings.Builder
	for _, c := range categories {
		b.WriteString("[[Category:" + c + "]]\n")
	}
	return strings.TrimSpace(b.String())
}

// normalizeTitleName replaces ASCII punctuation with underscores.
func normalizeTitleName(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}

// BuildDocument builds the canonical shape document for obj.
func (s *GeoshapeSync) BuildDocument(kind domain.ObjectKind, obj *domain.LocalObject, ext *Extraction) *ShapeDocument {
	return &ShapeDocument{
		License:     shapeLicense,
		Sources:     shapeSourcesPrefix + kind.SourceURL,
		Description: map[string]string{"sv": obj.Name},
		Longitude:   ext.Point.Lon(),
		Latitude:    ext.Point.Lat(),
		Zoom:        ext.Zoom,
		Data:        obj.Feature,
	}
}

// Sync brings the shape document, its talk page and the geoshape claim
// up to date, appending any claim changes to delta.
func (s *GeoshapeSync) Sync(
	ctx context.Context,
	kind domain.ObjectKind,
	obj *domain.LocalObject,
	ext *Extraction,
	item *domain.RemoteItem,
	delta *domain.Delta,
	entry *domain.LedgerEntry,
) error {
	existing := mostRecentPublished(item.ClaimsFor(domain.PropGeoshape))
	if existing != nil && !s.freshness.MaySupersede(publishedOf(existing), obj.PublishedDate) {
		warn(entry, "Geoshape publish date is fresher at Wikidata than local.")
		return nil
	}

	title := s.Title(kind, obj)
	content, err := json.Marshal(s.BuildDocument(kind, obj, ext))
	if err != nil {
		return fmt.Errorf("encode shape document: %w", err)
	}

	switch {
	case existing == nil:
		logger.Debug("No geoshape claim on %s", item.ID)
		if err := s.upsert(ctx, kind, obj, title, content, entry); err != nil {
			return err
		}
		delta.Add(newClaim(obj, domain.PropGeoshape, domain.StringValue(title)))
		entry.Created(factGeoshape)

	case existing.Value.String != title:
		previous := existing.Value.String
		logger.Debug("Geoshape claim names %s, expected %s", previous, title)
		remote, err := s.docs.GetDocument(ctx, previous)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			warn(entry, "Wikidata points at a non existing geoshape at Commons: %s", previous)
			if err := s.upsert(ctx, kind, obj, title, content, entry); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("get document %s: %w", previous, err)
		case !sameJSON(remote, content):
			if err := s.upsert(ctx, kind, obj, title, content, entry); err != nil {
				return err
			}
			delta.Add(newClaim(obj, domain.PropGeoshape, domain.StringValue(title)))
			entry.Created(factGeoshape)
		default:
			logger.Debug("Geoshape %s is up to date", previous)
		}

	default:
		if err := s.upsert(ctx, kind, obj, title, content, entry); err != nil {
			return err
		}
	}
	return nil
}

// upsert creates the document or updates it when its content differs,
// then rewrites the talk page categories.
func (s *GeoshapeSync) upsert(
	ctx context.Context,
	kind domain.ObjectKind,
	obj *domain.LocalObject,
	title string,
	content []byte,
	entry *domain.LedgerEntry,
) error {
	remote, err := s.docs.GetDocument(ctx, title)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if err := s.put(ctx, title, string(content), summaryCreateDocument); err != nil {
			return err
		}
		entry.CreatedCommonsGeoshape = true
	case err != nil:
		return fmt.Errorf("get document %s: %w", title, err)
	case !sameJSON(remote, content):
		if err := s.put(ctx, title, string(content), summaryUpdateDocument); err != nil {
			return err
		}
		entry.UpdatedCommonsGeoshape = true
	default:
		logger.Debug("No changes to %s", title)
	}

	// Third-party edits to the talk page are overwritten.
	talk := TalkTitle(title)
	text := TalkContent(kind.Categories(obj))
	remote, err = s.docs.GetDocument(ctx, talk)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s.put(ctx, talk, text, summaryCreateDocument)
	case err != nil:
		return fmt.Errorf("get document %s: %w", talk, err)
	case remote != text:
		return s.put(ctx, talk, text, summaryUpdateDocument)
	}
	return nil
}

func (s *GeoshapeSync) put(ctx context.Context, title, content, summary string) error {
	if s.dryRun {
		logger.Info("Dry run: would write %s (%s)", title, summary)
		return nil
	}
	if err := s.docs.PutDocument(ctx, title, content, summary); err != nil {
		return fmt.Errorf("put document %s: %w", title, err)
	}
	logger.Info("Committed %s", title)
	return nil
}

// sameJSON compares a remote page with canonical content as JSON trees.
// Invalid remote JSON never matches.
func sameJSON(remote string, canonical []byte) bool {
	var a, b any
	if err := json.Unmarshal([]byte(remote), &a); err != nil {
		logger.Warn("Invalid JSON in remote document: %v", err)
		return false
	}
	if err := json.Unmarshal(canonical, &b); err != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driving"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/logger"
)

// Ensure ReconciliationOrchestrator implements the interface.
var _ driving.Reconciler = (*ReconciliationOrchestrator)(nil)

// ReconciliationOrchestrator drives one batch: for each local object it
// consults the ledger, reconciles facts and shape documents, commits the
// delta and persists the ledger before moving on.
type ReconciliationOrchestrator struct {
	facts    driven.FactStore
	docs     driven.DocumentStore
	ledgers  driven.LedgerStore
	dataset  driven.DatasetReader
	tables   driven.ReferenceTableLoader
	settings domain.Settings

	extractor GeometryExtractor
	now       func() time.Time
	newRunID  func() string
}

// NewReconciliationOrchestrator creates a new orchestrator.
func NewReconciliationOrchestrator(
	facts driven.FactStore,
	docs driven.DocumentStore,
	ledgers driven.LedgerStore,
	dataset driven.DatasetReader,
	tables driven.ReferenceTableLoader,
	settings domain.Settings,
) *ReconciliationOrchestrator {
	return &ReconciliationOrchestrator{
		facts:    facts,
		docs:     docs,
		ledgers:  ledgers,
		dataset:  dataset,
		tables:   tables,
		settings: settings,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run processes every feature of files for the named kind.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *ReconciliationOrchestrator) Run(ctx context.Context, kindName string, files []string) (*driving.RunReport, error) {
	// 1. Resolve kind and inputs
	if err := o.settings.CheckCredentials(); err != nil {
		return nil, err
	}
	kind, err := domain.KindByName(kindName)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		files = kind.DefaultFiles
	}

	// 2. Build the lookup context from the static tables
	lookup, err := o.buildLookup(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Load the ledger of previous runs
	ledger, err := o.ledgers.Load(ctx, kind.LedgerName)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	logger.Info("Loaded ledger %s with %d previously processed objects", kind.LedgerName, len(ledger.Processed))

	report := &driving.RunReport{RunID: o.newRunID()}
	facts := NewFactReconciler(lookup)
	shapes := NewGeoshapeSync(o.docs, o.settings.SandboxUser, o.settings.DryRun)

	for _, file := range files {
		logger.Section(file)

		// 4. Read the dataset file
		features, err := o.dataset.Read(ctx, file)
		if err != nil {
			return report, fmt.Errorf("read dataset %s: %w", file, err)
		}

		// 5. Resolve every operator once before processing
		lookup.Preload(ctx, operatorNames(features))

		// 6. Process objects in file order
		for _, feature := range features {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			if !featureActive(feature) {
				logger.Warn("Status is not active, skipping %v", feature.Properties[domain.AttrNVRID])
				report.Inactive++
				continue
			}

			obj, err := domain.NewLocalObject(feature, o.settings.PublishedDate, o.settings.RetrievedDate)
			if err != nil {
				logger.Error("NVRID missing in feature %v", feature.Properties)
				report.Invalid++
				continue
			}

			decision := ledger.Decide(obj.NVRID, o.settings.ReprocessBefore)
			if !decision.Process() {
				logger.Debug("Skipping %s, processed successfully in a previous run", obj.NVRID)
				report.Skipped++
				continue
			}
			logger.Info("Processing %s (%s)", obj.NVRID, decision)

			entry := ledger.Open(report.RunID, obj.NVRID, o.now())
			if err := o.process(ctx, kind, obj, facts, shapes, entry); err != nil {
				logger.Error("Failed to process %s: %v", obj.NVRID, err)
				entry.Error = err.Error()
				report.Failed++
			}
			entry.Finish(o.now())
			ledger.Commit(entry, o.settings.MaxGenerations)
			report.Processed++
			report.Warnings += len(entry.Warnings)

			// 7. Persist after every object
			if o.settings.DryRun {
				continue
			}
			if err := o.ledgers.Save(ctx, kind.LedgerName, ledger); err != nil {
				return report, fmt.Errorf("save ledger: %w", err)
			}
		}
	}

	logger.Info("Run %s complete: %d processed, %d failed, %d skipped",
		report.RunID, report.Processed, report.Failed, report.Skipped)
	return report, nil
}

// process reconciles one object and commits its delta.
func (o *ReconciliationOrchestrator) process(
	ctx context.Context,
	kind domain.ObjectKind,
	obj *domain.LocalObject,
	facts *FactReconciler,
	shapes *GeoshapeSync,
	entry *domain.LedgerEntry,
) error {
	// 1. Find or create the item
	item, err := o.findOrCreateItem(ctx, kind, obj, entry)
	if err != nil {
		return err
	}

	// 2. Evaluate the delta for scalar, categorical and area facts
	delta := &domain.Delta{}
	if err := facts.Reconcile(ctx, kind, obj, item, delta, entry); err != nil {
		return err
	}

	// 3. Geometry-derived facts
	ext, err := o.extractor.Extract(obj.Feature.Geometry)
	switch {
	case errors.Is(err, domain.ErrUnsupportedGeometry):
		logger.Error("%s: %v", obj.NVRID, err)
		warn(entry, "Geometry-derived facts skipped: %v", err)
	case err != nil:
		return err
	default:
		facts.ReconcileCoordinate(obj, item, ext, delta, entry)
		if ext.Shape {
			if err := shapes.Sync(ctx, kind, obj, ext, item, delta, entry); err != nil {
				return fmt.Errorf("geoshape: %w", err)
			}
		}
	}

	// 4. Commit
	if delta.Empty() {
		logger.Debug("No claims have been updated for %s", obj.NVRID)
		return nil
	}
	if o.settings.DryRun {
		logger.Info("Dry run: would add %d and delete %d claims on %s", len(delta.ToAdd), len(delta.ToDelete), obj.NVRID)
		return nil
	}
	if err := o.facts.CommitDelta(ctx, item.ID, *delta, summaryUpdateItem); err != nil {
		return fmt.Errorf("commit delta: %w", err)
	}
	logger.Info("Committed %d additions and %d deletions to %s", len(delta.ToAdd), len(delta.ToDelete), item.ID)
	return nil
}

func (o *ReconciliationOrchestrator) findOrCreateItem(
	ctx context.Context,
	kind domain.ObjectKind,
	obj *domain.LocalObject,
	entry *domain.LedgerEntry,
) (*domain.RemoteItem, error) {
	id, err := o.facts.QuerySingle(ctx, itemQuery(obj.NVRID))
	switch {
	case err == nil:
		entry.WikidataIdentity = id
		item, err := o.facts.GetItem(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get item %s: %w", id, err)
		}
		return item, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find item: %w", err)
	}

	draft := newItemDraft(kind, obj)
	if o.settings.DryRun {
		logger.Info("Dry run: would create item for %s", obj.NVRID)
		return &domain.RemoteItem{Labels: draft.Labels, Descriptions: draft.Descriptions}, nil
	}
	item, err := o.facts.CreateItem(ctx, draft, summaryCreateItem)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	entry.CreatedWikidata = true
	entry.WikidataIdentity = item.ID
	logger.Info("Committed new item %s for %s", item.ID, obj.NVRID)
	return item, nil
}

func (o *ReconciliationOrchestrator) buildLookup(ctx context.Context) (*LookupContext, error) {
	merged := make(map[string]string)
	for _, path := range o.settings.ReferenceTables {
		table, err := o.tables.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("load reference table %s: %w", path, err)
		}
		for k, v := range table {
			merged[k] = v
		}
	}
	return NewLookupContext(o.facts, merged), nil
}

func featureActive(f *geojson.Feature) bool {
	status, _ := f.Properties[domain.AttrStatus].(string)
	return domain.IsActiveStatus(status)
}

// operatorNames returns the distinct operator names of features, sorted.
func operatorNames(features []*geojson.Feature) []string {
	seen := make(map[string]struct{})
	for _, f := range features {
		if name, ok := f.Properties[domain.AttrOperator].(string); ok && name != "" {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

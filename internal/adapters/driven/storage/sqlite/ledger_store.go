package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// ledgerStore implements driven.LedgerStore.
type ledgerStore struct {
	store *Store
}

var _ driven.LedgerStore = (*ledgerStore)(nil)

// Load reads every object row of a kind.
func (s *ledgerStore) Load(ctx context.Context, kind string) (*domain.Ledger, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT nvrid, entry FROM ledger WHERE kind = ?", kind)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	ledger := domain.NewLedger()
	saved := make(map[string]string)
	for rows.Next() {
		var nvrid, raw string
		if err := rows.Scan(&nvrid, &raw); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		var entry domain.LedgerEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshalling entry %s: %w", nvrid, err)
		}
		ledger.Processed[nvrid] = &entry
		saved[nvrid] = raw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger rows: %w", err)
	}

	s.store.mu.Lock()
	s.store.saved[kind] = saved
	s.store.mu.Unlock()
	return ledger, nil
}

// Save writes changed rows and removes rows no longer in the ledger,
// in one transaction.
func (s *ledgerStore) Save(ctx context.Context, kind string, ledger *domain.Ledger) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	previous := s.store.saved[kind]
	current := make(map[string]string, len(ledger.Processed))

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for nvrid, entry := range ledger.Processed {
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshalling entry %s: %w", nvrid, err)
		}
		current[nvrid] = string(raw)
		if previous[nvrid] == string(raw) {
			continue
		}
		if err := upsertEntry(ctx, tx, kind, nvrid, entry, string(raw)); err != nil {
			return err
		}
	}
	for nvrid := range previous {
		if _, ok := current[nvrid]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM ledger WHERE kind = ? AND nvrid = ?", kind, nvrid); err != nil {
			return fmt.Errorf("deleting entry %s: %w", nvrid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger: %w", err)
	}
	s.store.saved[kind] = current
	return nil
}

func upsertEntry(ctx context.Context, tx *sql.Tx, kind, nvrid string, entry *domain.LedgerEntry, raw string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger (kind, nvrid, run_id, epoch_started, epoch_ended, error, entry)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, nvrid) DO UPDATE SET
			run_id = excluded.run_id,
			epoch_started = excluded.epoch_started,
			epoch_ended = excluded.epoch_ended,
			error = excluded.error,
			entry = excluded.entry
	`, kind, nvrid, entry.RunID, entry.EpochStarted, entry.EpochEnded, entry.Error, raw)
	if err != nil {
		return fmt.Errorf("saving entry %s: %w", nvrid, err)
	}
	return nil
}

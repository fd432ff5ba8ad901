// Package jsonfile stores progress ledgers as one JSON document per kind.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/ports/driven"
)

// Ensure LedgerStore implements the interface.
var _ driven.LedgerStore = (*LedgerStore)(nil)

// LedgerStore keeps <dir>/<kind>.json plus one backup generation,
// <dir>/<kind>.backup.1.json, holding the previous save.
type LedgerStore struct {
	dir string
}

// NewLedgerStore creates a ledger store in dir, creating it if needed.
func NewLedgerStore(dir string) (*LedgerStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}
	return &LedgerStore{dir: dir}, nil
}

// Path returns the ledger file of a kind.
func (s *LedgerStore) Path(kind string) string {
	return filepath.Join(s.dir, kind+".json")
}

// BackupPath returns the backup file of a kind.
func (s *LedgerStore) BackupPath(kind string) string {
	return filepath.Join(s.dir, kind+".backup.1.json")
}

// Load reads the ledger of a kind. When the current file is missing the
// backup is read instead; with neither the ledger is empty.
func (s *LedgerStore) Load(_ context.Context, kind string) (*domain.Ledger, error) {
	ledger, err := readLedger(s.Path(kind))
	if errors.Is(err, os.ErrNotExist) {
		ledger, err = readLedger(s.BackupPath(kind))
	}
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewLedger(), nil
	}
	return ledger, err
}

func readLedger(path string) (*domain.Ledger, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	ledger := domain.NewLedger()
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("parsing ledger %s: %w", path, err)
	}
	if ledger.Processed == nil {
		ledger.Processed = make(map[string]*domain.LedgerEntry)
	}
	return ledger, nil
}

// Save writes the ledger to a temporary file, rotates the current file
// into the backup slot and renames the new file into place. A missing
// current file leaves the backup as it is.
func (s *LedgerStore) Save(_ context.Context, kind string, ledger *domain.Ledger) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	current, backup := s.Path(kind), s.BackupPath(kind)
	tmp := current + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}

	_, err = os.Stat(current)
	switch {
	case err == nil:
		if err := os.Remove(backup); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing backup: %w", err)
		}
		if err := os.Rename(current, backup); err != nil {
			return fmt.Errorf("rotating ledger: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("checking ledger: %w", err)
	}

	if err := os.Rename(tmp, current); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}
	return nil
}

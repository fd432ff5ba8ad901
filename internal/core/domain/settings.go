package domain

import (
	"fmt"
	"time"
)

// LedgerBackend selects the ledger persistence adapter.
type LedgerBackend string

const (
	// LedgerJSON stores one JSON file per kind with a single backup slot.
	LedgerJSON LedgerBackend = "json"

	// LedgerSQLite stores entries in a SQLite database.
	LedgerSQLite LedgerBackend = "sqlite"
)

// IsValid checks if the backend is a known value.
func (b LedgerBackend) IsValid() bool {
	return b == LedgerJSON || b == LedgerSQLite
}

// DefaultReprocessBefore is the cutoff of the 2020 re-validation pass,
// in epoch milliseconds.
const DefaultReprocessBefore int64 = 1587918274951

// Settings holds the run configuration.
type Settings struct {
	WikidataAPI    string
	SPARQLEndpoint string
	CommonsAPI     string
	AccessToken    string
	UserAgent      string

	LedgerDir      string
	LedgerBackend  LedgerBackend
	MaxGenerations int

	ReprocessBefore time.Time
	PublishedDate   time.Time
	RetrievedDate   time.Time
	DryRun          bool
	SandboxUser     string

	EditsPerMinute  int
	ReferenceTables []string
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	snapshot := time.Date(2020, time.February, 25, 0, 0, 0, 0, time.UTC)
	return Settings{
		WikidataAPI:     "https://www.wikidata.org/w/api.php",
		SPARQLEndpoint:  "https://query.wikidata.org/sparql",
		CommonsAPI:      "https://commons.wikimedia.org/w/api.php",
		UserAgent:       "Naturvardsregistret_bot/0.1 (https://www.wikidata.org/wiki/User:Naturvardsregistret_bot)",
		LedgerDir:       "data/progress",
		LedgerBackend:   LedgerJSON,
		MaxGenerations:  10,
		ReprocessBefore: time.UnixMilli(DefaultReprocessBefore),
		PublishedDate:   snapshot,
		RetrievedDate:   snapshot,
		EditsPerMinute:  30,
		ReferenceTables: []string{"data/forvaltare.json", "data/municipalities.json"},
	}
}

// CheckCredentials reports ErrNotConfigured when a run that writes has no
// access token.
func (s Settings) CheckCredentials() error {
	if !s.DryRun && s.AccessToken == "" {
		return fmt.Errorf("%w: auth.access_token is required unless running dry", ErrNotConfigured)
	}
	return nil
}

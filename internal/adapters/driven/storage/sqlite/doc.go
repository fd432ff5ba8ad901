// Package sqlite provides a SQLite-based ledger store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Every object's latest ledger entry is one row keyed by (kind, nvrid), holding
// the entry chain as JSON next to a few indexed columns for inspection.
//
// # Data Location
//
// The database is stored at <ledger dir>/ledger.db.
package sqlite

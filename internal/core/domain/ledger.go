package domain

import (
	"fmt"
	"time"
)

// LedgerEntry is the outcome of processing one object in one run.
// Entries of successive runs are chained through PreviousExecution,
// newest first.
type LedgerEntry struct {
	RunID                  string       `json:"runId,omitempty"`
	NVRID                  string       `json:"nvrid"`
	WikidataIdentity       string       `json:"wikidataIdentity,omitempty"`
	Skipped                bool         `json:"skipped"`
	EpochStarted           int64        `json:"epochStarted"`
	EpochEnded             int64        `json:"epochEnded,omitempty"`
	CreatedWikidata        bool         `json:"createdWikidata"`
	CreatedClaims          []string     `json:"createdClaims"`
	ModifiedClaims         []string     `json:"modifiedClaims"`
	DeletedClaims          []string     `json:"deletedClaims"`
	CreatedCommonsGeoshape bool         `json:"createdCommonsGeoshape"`
	UpdatedCommonsGeoshape bool         `json:"updatedCommonsGeoshape"`
	Warnings               []string     `json:"warnings"`
	Error                  string       `json:"error,omitempty"`
	PreviousExecution      *LedgerEntry `json:"previousExecution,omitempty"`
}

// Started returns the start time of the run that produced the entry.
func (e *LedgerEntry) Started() time.Time {
	return time.UnixMilli(e.EpochStarted)
}

// Ended returns the end time, or the zero time if the entry never finished.
func (e *LedgerEntry) Ended() time.Time {
	if e.EpochEnded == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.EpochEnded)
}

// Finish stamps the end time.
func (e *LedgerEntry) Finish(now time.Time) {
	e.EpochEnded = now.UnixMilli()
}

// Failed reports whether the run recorded an error.
func (e *LedgerEntry) Failed() bool {
	return e.Error != ""
}

// Created records a created claim.
func (e *LedgerEntry) Created(name string) {
	e.CreatedClaims = append(e.CreatedClaims, name)
}

// Modified records a modified claim.
func (e *LedgerEntry) Modified(name string) {
	e.ModifiedClaims = append(e.ModifiedClaims, name)
}

// Deleted records a deleted claim.
func (e *LedgerEntry) Deleted(name string) {
	e.DeletedClaims = append(e.DeletedClaims, name)
}

// Warn records a warning.
func (e *LedgerEntry) Warn(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Generations counts the entries in the chain starting at e.
func (e *LedgerEntry) Generations() int {
	n := 0
	for cur := e; cur != nil; cur = cur.PreviousExecution {
		n++
	}
	return n
}

// Truncate drops chain entries beyond max generations, counting e itself.
// A max of zero or less keeps the whole chain.
func (e *LedgerEntry) Truncate(max int) {
	if max <= 0 {
		return
	}
	cur := e
	for i := 1; cur != nil; i++ {
		if i == max {
			cur.PreviousExecution = nil
			return
		}
		cur = cur.PreviousExecution
	}
}

// Decision is the outcome of evaluating an object's prior ledger state.
type Decision int

const (
	// DecisionNew means the object was never processed.
	DecisionNew Decision = iota

	// DecisionRetry means the previous run recorded an error.
	DecisionRetry

	// DecisionStale means the previous run succeeded before the cutoff.
	DecisionStale

	// DecisionSkip means the previous run succeeded at or after the cutoff.
	DecisionSkip
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case DecisionNew:
		return "new"
	case DecisionRetry:
		return "retry"
	case DecisionStale:
		return "stale"
	case DecisionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Process reports whether the decision requires processing the object.
func (d Decision) Process() bool {
	return d != DecisionSkip
}

// Ledger maps object keys to their most recent entry.
type Ledger struct {
	Processed map[string]*LedgerEntry `json:"processed"`
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{Processed: make(map[string]*LedgerEntry)}
}

// Get returns the latest entry for a key, or nil.
func (l *Ledger) Get(nvrid string) *LedgerEntry {
	return l.Processed[nvrid]
}

// Decide evaluates whether an object must be processed in this run.
// A zero cutoff disables stale reprocessing.
func (l *Ledger) Decide(nvrid string, reprocessBefore time.Time) Decision {
	prev := l.Get(nvrid)
	switch {
	case prev == nil:
		return DecisionNew
	case prev.Failed():
		return DecisionRetry
	case !reprocessBefore.IsZero() && prev.EpochStarted < reprocessBefore.UnixMilli():
		return DecisionStale
	default:
		return DecisionSkip
	}
}

// Open starts a new entry chained to the object's prior entry.
func (l *Ledger) Open(runID, nvrid string, now time.Time) *LedgerEntry {
	return &LedgerEntry{
		RunID:             runID,
		NVRID:             nvrid,
		EpochStarted:      now.UnixMilli(),
		CreatedClaims:     []string{},
		ModifiedClaims:    []string{},
		DeletedClaims:     []string{},
		Warnings:          []string{},
		PreviousExecution: l.Get(nvrid),
	}
}

// Commit stores the entry as the object's latest, keeping at most
// maxGenerations entries in its chain.
func (l *Ledger) Commit(e *LedgerEntry, maxGenerations int) {
	e.Truncate(maxGenerations)
	l.Processed[e.NVRID] = e
}

// Counter is one line of a ledger summary.
type Counter struct {
	Key   string
	Count int
}

// LedgerSummary is the outcome counts derived from a ledger.
type LedgerSummary struct {
	Kind     string
	Objects  int
	Counters []Counter
}

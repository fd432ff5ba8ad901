// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FactStore: Remote knowledge-graph items and claims
//   - DocumentStore: Remote wiki pages holding shape documents
//   - LedgerStore: Progress ledger persistence
//   - DatasetReader: Reads protected-area features from dataset files
//   - ReferenceTableLoader: Reads static operator/region lookup tables
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package, orb geometry types
//   - Cannot Import: Any adapter package
package driven

// Package services implements the driving port interfaces.
// Services contain the reconciliation logic and orchestrate
// calls to driven ports (adapters).
//
// The reconciliation engine is split into small components, leaves first:
//
//   - FreshnessPolicy: may a remote claim be superseded by local data
//   - FactReconciler: per-field delta algorithms
//   - GeometryExtractor: representative point, tolerance and zoom level
//   - GeoshapeSync: shape document and talk page maintenance
//   - ReconciliationOrchestrator: one batch, one ledger entry per object
package services

// Package domain defines the core business entities for the Naturvårdsregistret bot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Claim: A property-value assertion on a remote item, with qualifiers and references
//   - Delta: The claims to add and delete on one remote item
//   - LocalObject: One authoritative record from the protected-area dataset
//   - ObjectKind: Per-kind configuration (nature reserve, national park, natural monument)
//   - LedgerEntry: The outcome of processing one object in one run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/paulmach/orb geometry types
//   - Cannot Import: Any internal/ package, any other external dependency
package domain

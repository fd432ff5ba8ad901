// Package file provides the file-based configuration store.
//
// TOML is the default format; files ending in .yaml or .yml are read as
// YAML. Nested tables are flattened to dot-notation keys, so
//
//	[run]
//	dry_run = true
//
// is read as "run.dry_run".
package file

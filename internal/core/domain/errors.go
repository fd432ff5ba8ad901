package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required setting or collaborator is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrUnknownKind indicates an object kind name that is not registered.
	ErrUnknownKind = errors.New("unknown object kind")

	// Reconciliation Errors.

	// ErrUnsupportedGeometry indicates a geometry kind that has no
	// representative point, e.g. line strings or geometry collections.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")

	// ErrAmbiguousResult indicates a lookup assumed to be unique
	// returned more than one result.
	ErrAmbiguousResult = errors.New("ambiguous result")

	// ErrAmbiguousQualifier indicates more than one claim matched a
	// qualifier that should select exactly one variant.
	ErrAmbiguousQualifier = errors.New("ambiguous qualifier match")

	// ErrMissingInceptionDate indicates none of the inception date
	// attributes are present on the local object.
	ErrMissingInceptionDate = errors.New("no candidates for inception date")
)

package driven

import "context"

// DocumentStore is the remote wiki holding shape documents and their
// talk pages.
type DocumentStore interface {
	// GetDocument returns the current content of a page.
	// Returns domain.ErrNotFound if the page does not exist.
	GetDocument(ctx context.Context, title string) (string, error)

	// PutDocument creates or replaces a page.
	PutDocument(ctx context.Context, title, content, summary string) error
}

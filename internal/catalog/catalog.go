package catalog

import "context"

// FilterHints narrows the candidate set the catalog returns. All fields are
// optional; a zero FilterHints returns the whole catalog.
type FilterHints struct {
	// Query is free text matched against name, description, and tags.
	Query string

	// Categories restricts results to the given categories.
	Categories []string

	// Stage restricts results to tools applicable at the given stage.
	Stage WorkflowStage

	// Limit caps the number of candidates returned (0 = no cap).
	Limit int
}

// Catalog supplies the candidate tool set. Freshness is the catalog's
// responsibility; the engine fetches per request and never caches contents.
type Catalog interface {
	// ListCandidates returns candidates matching the hints. An empty result
	// with a nil error means no tools matched.
	ListCandidates(ctx context.Context, hints FilterHints) ([]Candidate, error)
}

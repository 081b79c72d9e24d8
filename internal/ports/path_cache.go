package ports

import "context"

// Shortest path between two addresses after pruning.
// Path runs from Origin to Target and includes both ends.
type PathEntry struct {
	Origin string
	Target string
	Length float64
	Path   []string
}

// Port: persisted pruning results keyed by a fingerprint of the
// address list and direct distance matrix.
type PathCache interface {
	GetMany(ctx context.Context, fingerprint string) ([]PathEntry, error)
	PutMany(ctx context.Context, fingerprint string, entries []PathEntry) error
}

package ports

import "context"

// Contract for retrieving direct (un-pruned) distances between addresses.
type DistanceMatrixSource interface {
	// Return a square matrix of direct distances aligned with addresses.
	// Row i may be filled only up to column i; the table symmetrizes it.
	DirectMatrix(ctx context.Context, addresses []string) ([][]float64, error)
}

// Optional extension of DistanceMatrixSource that also owns the address universe.
type DistanceRepository interface {
	DistanceMatrixSource
	// Return addresses in canonical order; the first one is the depot.
	ListAddresses(ctx context.Context) ([]string, error)
}

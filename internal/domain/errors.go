package domain

import "errors"

var (
	// ErrUnknownAddress is returned for lookups against an address outside the universe.
	ErrUnknownAddress = errors.New("unknown address")

	// ErrInfeasibleGroup means a tie-group cannot fit on any truck.
	ErrInfeasibleGroup = errors.New("infeasible tie group")

	// ErrNoFeasibleAssignment means the loader cannot place the remaining packages.
	ErrNoFeasibleAssignment = errors.New("no feasible assignment")

	// ErrStaleDistanceLookup is an invariant violation: the shortest-path table
	// was queried before it was pruned. It aborts planning.
	ErrStaleDistanceLookup = errors.New("stale distance lookup")

	ErrPackageNotFound  = errors.New("package not found")
	ErrDuplicatePackage = errors.New("duplicate package")
	ErrInvalidOverride  = errors.New("invalid override")
)

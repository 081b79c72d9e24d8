package services

import (
	"context"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"delivery-route-planner/internal/ports"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// pruneTolerance is how far a partial route may exceed the best known
// completed length before it is discarded.
const pruneTolerance = 0.001

// DistanceTable owns the direct distances between every address pair and,
// once pruned, the shortest path realizing each pair.
//
// Lookups are by address; the first address is the depot.
type DistanceTable struct {
	addresses []string
	index     map[string]int
	direct    [][]float64
	shortest  [][]float64
	paths     [][][]int
	pruned    bool
}

// NewDistanceTable builds a table from an address list and a matrix of
// direct distances aligned with it. Only the lower triangle (row i, columns
// 0..i) is read, so both full and lower-triangular matrices are accepted.
func NewDistanceTable(addresses []string, matrix [][]float64) (*DistanceTable, error) {
	if len(addresses) == 0 {
		return nil, errors.New("new distance table: address list must not be empty")
	}
	if len(matrix) != len(addresses) {
		return nil, fmt.Errorf("new distance table: matrix has %d rows, want %d", len(matrix), len(addresses))
	}

	n := len(addresses)
	t := &DistanceTable{
		addresses: slices.Clone(addresses),
		index:     make(map[string]int, n),
		direct:    make([][]float64, n),
	}

	for i, a := range addresses {
		if a == "" {
			return nil, fmt.Errorf("new distance table: empty address at index %d", i)
		}
		if _, dup := t.index[a]; dup {
			return nil, fmt.Errorf("new distance table: duplicate address %q", a)
		}
		t.index[a] = i
		t.direct[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		if len(matrix[i]) < i+1 {
			return nil, fmt.Errorf("new distance table: row %d has %d columns, want at least %d", i, len(matrix[i]), i+1)
		}
		for j := 0; j < i; j++ {
			d := matrix[i][j]
			if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				return nil, fmt.Errorf("new distance table: invalid distance %v between %q and %q", d, addresses[i], addresses[j])
			}
			t.direct[i][j] = d
			t.direct[j][i] = d
		}
	}

	return t, nil
}

// Addresses returns the address universe in canonical order.
func (t *DistanceTable) Addresses() []string { return slices.Clone(t.addresses) }

// Depot returns the address every route starts and ends at.
func (t *DistanceTable) Depot() string { return t.addresses[0] }

func (t *DistanceTable) Len() int { return len(t.addresses) }

// Has reports whether the address belongs to the universe.
func (t *DistanceTable) Has(address string) bool {
	_, ok := t.index[address]
	return ok
}

// Pruned reports whether shortest paths are available.
func (t *DistanceTable) Pruned() bool { return t.pruned }

func (t *DistanceTable) lookup(a, b string) (int, int, error) {
	i, ok := t.index[a]
	if !ok {
		return 0, 0, fmt.Errorf("distance lookup %q: %w", a, domain.ErrUnknownAddress)
	}
	j, ok := t.index[b]
	if !ok {
		return 0, 0, fmt.Errorf("distance lookup %q: %w", b, domain.ErrUnknownAddress)
	}
	return i, j, nil
}

// Direct returns the un-pruned distance between two addresses.
func (t *DistanceTable) Direct(a, b string) (float64, error) {
	i, j, err := t.lookup(a, b)
	if err != nil {
		return 0, err
	}
	return t.direct[i][j], nil
}

// Distance returns the shortest-path distance between two addresses.
func (t *DistanceTable) Distance(a, b string) (float64, error) {
	i, j, err := t.lookup(a, b)
	if err != nil {
		return 0, err
	}
	if !t.pruned {
		return 0, fmt.Errorf("distance %q -> %q: %w", a, b, domain.ErrStaleDistanceLookup)
	}
	return t.shortest[i][j], nil
}

// Path returns the addresses realizing the shortest path from a to b,
// both ends included.
func (t *DistanceTable) Path(a, b string) ([]string, error) {
	i, j, err := t.lookup(a, b)
	if err != nil {
		return nil, err
	}
	if !t.pruned || t.paths[i][j] == nil {
		return nil, fmt.Errorf("path %q -> %q: %w", a, b, domain.ErrStaleDistanceLookup)
	}

	out := make([]string, 0, len(t.paths[i][j]))
	for _, k := range t.paths[i][j] {
		out = append(out, t.addresses[k])
	}
	return out, nil
}

// RouteLength sums shortest distances along consecutive stops.
func (t *DistanceTable) RouteLength(stops []string) (float64, error) {
	total := 0.0
	for i := 0; i+1 < len(stops); i++ {
		d, err := t.Distance(stops[i], stops[i+1])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// Prune replaces direct distances with shortest-path distances. Each
// unordered pair is independent, so pairs are searched concurrently with
// at most workers goroutines (GOMAXPROCS when workers <= 0).
func (t *DistanceTable) Prune(ctx context.Context, workers int) (err error) {
	defer obs.Time(ctx, "distance.Prune")(&err)

	n := len(t.addresses)
	shortest := make([][]float64, n)
	paths := make([][][]int, n)
	for i := range shortest {
		shortest[i] = make([]float64, n)
		paths[i] = make([][]int, n)
		paths[i][i] = []int{i}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			i, j := i, j
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				length, path := t.search(i, j)
				shortest[i][j] = length
				shortest[j][i] = length
				paths[i][j] = path
				paths[j][i] = reversed(path)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("prune distances: %w", err)
	}

	t.shortest = shortest
	t.paths = paths
	t.pruned = true
	return nil
}

type partialRoute struct {
	length float64
	stops  []int
}

// search runs a branch-and-bound expansion from origin to target over direct
// hops. Partial routes longer than the best completion (plus tolerance) are
// dropped; among equal completions the first one discovered wins, which is
// the direct hop when it is already optimal.
func (t *DistanceTable) search(origin, target int) (float64, []int) {
	best := t.direct[origin][target]
	bestPath := []int{origin, target}

	frontier := []partialRoute{{length: 0, stops: []int{origin}}}
	for len(frontier) > 0 {
		next := make([]partialRoute, 0, len(frontier))
		for _, r := range frontier {
			if r.length > best+pruneTolerance {
				continue
			}
			last := r.stops[len(r.stops)-1]
			for hop := range t.addresses {
				if slices.Contains(r.stops, hop) {
					continue
				}
				length := r.length + t.direct[last][hop]
				if length > best+pruneTolerance {
					continue
				}

				stops := make([]int, len(r.stops)+1)
				copy(stops, r.stops)
				stops[len(r.stops)] = hop

				if hop == target {
					if length < best-pruneTolerance {
						best = length
						bestPath = stops
					}
					continue
				}
				next = append(next, partialRoute{length: length, stops: stops})
			}
		}
		frontier = next
	}

	return best, bestPath
}

// Entries exports every unordered pair for caching.
func (t *DistanceTable) Entries() ([]ports.PathEntry, error) {
	if !t.pruned {
		return nil, fmt.Errorf("export distance table: %w", domain.ErrStaleDistanceLookup)
	}

	n := len(t.addresses)
	out := make([]ports.PathEntry, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			path := make([]string, 0, len(t.paths[i][j]))
			for _, k := range t.paths[i][j] {
				path = append(path, t.addresses[k])
			}
			out = append(out, ports.PathEntry{
				Origin: t.addresses[i],
				Target: t.addresses[j],
				Length: t.shortest[i][j],
				Path:   path,
			})
		}
	}
	return out, nil
}

// Restore loads previously pruned pairs. Every unordered pair must be present.
func (t *DistanceTable) Restore(entries []ports.PathEntry) error {
	n := len(t.addresses)
	shortest := make([][]float64, n)
	paths := make([][][]int, n)
	for i := range shortest {
		shortest[i] = make([]float64, n)
		paths[i] = make([][]int, n)
		paths[i][i] = []int{i}
	}

	for _, e := range entries {
		i, j, err := t.lookup(e.Origin, e.Target)
		if err != nil {
			return fmt.Errorf("restore distance table: %w", err)
		}
		path := make([]int, 0, len(e.Path))
		for _, a := range e.Path {
			k, ok := t.index[a]
			if !ok {
				return fmt.Errorf("restore distance table: path address %q: %w", a, domain.ErrUnknownAddress)
			}
			path = append(path, k)
		}
		if len(path) < 2 || path[0] != i || path[len(path)-1] != j {
			return fmt.Errorf("restore distance table: path for %q -> %q does not join its ends", e.Origin, e.Target)
		}
		shortest[i][j], shortest[j][i] = e.Length, e.Length
		paths[i][j], paths[j][i] = path, reversed(path)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if paths[i][j] == nil {
				return fmt.Errorf("restore distance table: pair %q -> %q: %w",
					t.addresses[i], t.addresses[j], domain.ErrStaleDistanceLookup)
			}
		}
	}

	t.shortest = shortest
	t.paths = paths
	t.pruned = true
	return nil
}

// Fingerprint identifies the address list and direct matrix, so cached
// pruning results are only reused for identical inputs.
func (t *DistanceTable) Fingerprint() string {
	h := xxhash.New()
	var buf [8]byte
	for i, a := range t.addresses {
		_, _ = h.WriteString(a)
		_, _ = h.Write([]byte{0})
		for j := 0; j < i; j++ {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(t.direct[i][j]))
			_, _ = h.Write(buf[:])
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func reversed(path []int) []int {
	out := slices.Clone(path)
	slices.Reverse(out)
	return out
}

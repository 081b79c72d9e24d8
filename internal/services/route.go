package services

import (
	"context"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"delivery-route-planner/internal/ports"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Route holds everything one planning run needs and, after Build, the
// committed plan. It is read-only once built.
type Route struct {
	Table       *DistanceTable
	Packages    *domain.PackageStore
	Trucks      []*domain.Truck
	Coordinates Embedding
	Plan        domain.Plan

	opts     SearchOptions
	observer SearchObserver
	cache    ports.PathCache

	mu    sync.Mutex
	built bool
}

type RouteOption func(*Route)

func WithSearchOptions(opts SearchOptions) RouteOption {
	return func(r *Route) { r.opts = opts }
}

func WithObserver(o SearchObserver) RouteOption {
	return func(r *Route) { r.observer = o }
}

// WithPathCache reuses pruning results across runs.
func WithPathCache(c ports.PathCache) RouteOption {
	return func(r *Route) { r.cache = c }
}

// NewRoute validates the inputs before any planning starts: every package
// address must be in the distance universe, tie-groups are normalized (pins
// propagate through them) and no group may exceed what a truck can carry.
func NewRoute(table *DistanceTable, store *domain.PackageStore, trucks []*domain.Truck, options ...RouteOption) (*Route, error) {
	if table == nil || store == nil {
		return nil, errors.New("new route: table and packages must be non-nil")
	}
	if len(trucks) == 0 {
		return nil, errors.New("new route: at least one truck is required")
	}

	for _, p := range store.All() {
		if !table.Has(p.Address) {
			return nil, fmt.Errorf("new route: package %d address %q: %w", p.PackageID, p.Address, domain.ErrUnknownAddress)
		}
	}
	if err := store.NormalizeTies(); err != nil {
		return nil, fmt.Errorf("new route: %w", err)
	}
	if err := store.ValidateFleet(trucks); err != nil {
		return nil, fmt.Errorf("new route: %w", err)
	}

	r := &Route{
		Table:    table,
		Packages: store,
		Trucks:   trucks,
		opts:     DefaultSearchOptions(),
	}
	for _, o := range options {
		o(r)
	}
	return r, nil
}

// Build prunes the distance table (or restores it from the path cache),
// embeds the addresses, searches for the best plan and commits it.
func (r *Route) Build(ctx context.Context) (err error) {
	defer obs.Time(ctx, "route.Build")(&err)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.built {
		return errors.New("build route: already built")
	}

	if err := r.prepareTable(ctx); err != nil {
		return fmt.Errorf("build route: %w", err)
	}

	coords, err := Embed(ctx, r.Table)
	if err != nil {
		return fmt.Errorf("build route: %w", err)
	}
	r.Coordinates = coords

	search, err := NewPlanSearch(r.Table, coords, r.Trucks, r.opts, r.observer)
	if err != nil {
		return fmt.Errorf("build route: %w", err)
	}

	plan, err := search.Search(ctx, r.Packages)
	if err != nil {
		return fmt.Errorf("build route: %w", err)
	}

	if err := search.Commit(ctx, plan, r.Packages); err != nil {
		return fmt.Errorf("build route: %w", err)
	}

	r.Plan = plan
	r.built = true
	return nil
}

func (r *Route) prepareTable(ctx context.Context) error {
	if r.Table.Pruned() {
		return nil
	}

	fingerprint := r.Table.Fingerprint()
	if r.cache != nil {
		entries, err := r.cache.GetMany(ctx, fingerprint)
		switch {
		case err != nil:
			log.Printf("op=route.pathCache fingerprint=%s err=%v", fingerprint, err)
		case len(entries) > 0:
			if err := r.Table.Restore(entries); err == nil {
				return nil
			} else {
				log.Printf("op=route.pathCache fingerprint=%s restore failed, pruning: %v", fingerprint, err)
			}
		}
	}

	if err := r.Table.Prune(ctx, r.opts.Workers); err != nil {
		return err
	}

	if r.cache != nil {
		entries, err := r.Table.Entries()
		if err != nil {
			return err
		}
		if err := r.cache.PutMany(ctx, fingerprint, entries); err != nil {
			log.Printf("path cache write failed: %v", err)
		}
	}
	return nil
}

// Built reports whether a plan has been committed.
func (r *Route) Built() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.built
}

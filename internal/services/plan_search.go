package services

import (
	"context"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"errors"
	"fmt"
	"log"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// SearchOptions tunes the plan search. Times are decimal hours.
type SearchOptions struct {
	EarlyDeparture float64
	LateDeparture  float64
	Turnaround     float64
	RecycleDelay   float64
	Workers        int
}

func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		EarlyDeparture: domain.Clock(8, 0),
		LateDeparture:  domain.Clock(9, 5),
		Turnaround:     domain.Clock(0, 30),
		RecycleDelay:   domain.Clock(0, 5),
		Workers:        runtime.GOMAXPROCS(0),
	}
}

// SearchObserver receives plan search progress. Implementations must be
// safe for concurrent use; TrialFinished is called from worker goroutines.
type SearchObserver interface {
	TrialFinished(c Candidate, missed int, length float64, err error)
	PlanSelected(missed int, length float64, elapsed time.Duration)
}

// Candidate is one plan search configuration: initial truck departures
// crossed with an address priority.
type Candidate struct {
	Index      int
	Departures DispatchQueue
	Priority   Priority
}

func (c Candidate) String() string {
	s := fmt.Sprintf("#%d %s [", c.Index, c.Priority.Name)
	for i, d := range c.Departures {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("truck%d@%s", d.Truck.TruckID, domain.FormatClock(d.At))
	}
	return s + "]"
}

// DepartureCatalog builds initial dispatch queues: for every rotation of the
// fleet order, the first truck early and the rest late, all early, and all
// late. A two-truck fleet yields six queues covering both truck orderings.
func DepartureCatalog(fleet []*domain.Truck, early, late float64) []DispatchQueue {
	out := make([]DispatchQueue, 0, 3*len(fleet))
	for r := range fleet {
		order := make([]*domain.Truck, 0, len(fleet))
		order = append(order, fleet[r:]...)
		order = append(order, fleet[:r]...)

		staggered := make(DispatchQueue, 0, len(order))
		allEarly := make(DispatchQueue, 0, len(order))
		allLate := make(DispatchQueue, 0, len(order))
		for i, t := range order {
			at := late
			if i == 0 {
				at = early
			}
			staggered = append(staggered, Dispatch{Truck: t, At: at})
			allEarly = append(allEarly, Dispatch{Truck: t, At: early})
			allLate = append(allLate, Dispatch{Truck: t, At: late})
		}
		out = append(out, staggered, allEarly, allLate)
	}
	return out
}

// PlanSearch runs the loader and evaluator over every candidate and keeps the
// plan with the fewest missed deadlines, then the shortest total length.
type PlanSearch struct {
	table     *DistanceTable
	coords    Embedding
	loader    *TruckLoader
	evaluator *SegmentEvaluator
	fleet     []*domain.Truck
	opts      SearchOptions
	observer  SearchObserver
}

func NewPlanSearch(
	table *DistanceTable,
	coords Embedding,
	fleet []*domain.Truck,
	opts SearchOptions,
	observer SearchObserver,
) (*PlanSearch, error) {
	if len(fleet) == 0 {
		return nil, errors.New("new plan search: fleet must not be empty")
	}

	sequencer, err := NewSectorSequencer(table, coords)
	if err != nil {
		return nil, fmt.Errorf("new plan search: %w", err)
	}
	loader, err := NewTruckLoader(sequencer, opts.Turnaround, opts.RecycleDelay)
	if err != nil {
		return nil, fmt.Errorf("new plan search: %w", err)
	}

	return &PlanSearch{
		table:     table,
		coords:    coords,
		loader:    loader,
		evaluator: NewSegmentEvaluator(table),
		fleet:     fleet,
		opts:      opts,
		observer:  observer,
	}, nil
}

// Candidates enumerates the departure catalog crossed with every priority.
func (s *PlanSearch) Candidates() []Candidate {
	out := make([]Candidate, 0)
	for _, q := range DepartureCatalog(s.fleet, s.opts.EarlyDeparture, s.opts.LateDeparture) {
		for _, p := range Priorities() {
			out = append(out, Candidate{Index: len(out), Departures: q, Priority: p})
		}
	}
	return out
}

type trialResult struct {
	plan   domain.Plan
	missed int
	length float64
	err    error
}

// Search evaluates all candidates concurrently against private clones of
// store and returns the best plan. store is only read. A failed candidate is
// scored as worst possible, except for stale distance lookups which abort.
func (s *PlanSearch) Search(ctx context.Context, store *domain.PackageStore) (_ domain.Plan, err error) {
	defer obs.Time(ctx, "search.Search")(&err)
	start := time.Now()

	candidates := s.Candidates()
	results := make([]trialResult, len(candidates))

	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			plan, err := s.trial(obs.WithTrial(gctx, c.Index), c, store.Clone())
			if errors.Is(err, domain.ErrStaleDistanceLookup) {
				return fmt.Errorf("search: candidate %s: %w", c, err)
			}

			res := trialResult{plan: plan, missed: math.MaxInt, length: math.Inf(1), err: err}
			if err == nil {
				res.missed = plan.MissedDeadlines()
				res.length = plan.Length()
			} else {
				log.Printf("op=search.trial candidate=%q err=%v", c.String(), err)
			}
			results[i] = res

			if s.observer != nil {
				s.observer.TrialFinished(c, res.missed, res.length, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := -1
	var failures []error
	for i, r := range results {
		if r.err != nil {
			failures = append(failures, r.err)
			continue
		}
		if best < 0 || better(r, results[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("search: all %d candidates failed: %w", len(candidates), errors.Join(failures...))
	}

	winner := results[best]
	log.Printf("op=search.select candidate=%q missed=%d length=%.1f", candidates[best].String(), winner.missed, winner.length)
	if s.observer != nil {
		s.observer.PlanSelected(winner.missed, winner.length, time.Since(start))
	}
	return winner.plan, nil
}

func better(a, b trialResult) bool {
	if a.missed != b.missed {
		return a.missed < b.missed
	}
	return a.length < b.length
}

func (s *PlanSearch) trial(ctx context.Context, c Candidate, pool *domain.PackageStore) (_ domain.Plan, err error) {
	defer obs.Time(ctx, "search.trial")(&err)

	order := PrioritizeAddresses(s.table.Addresses(), s.coords, pool, c.Priority.Key)

	queue := make(DispatchQueue, len(c.Departures))
	copy(queue, c.Departures)

	plan, err := s.loader.Load(pool, order, queue)
	if err != nil {
		return nil, err
	}

	for _, seg := range plan {
		if err := s.evaluator.Simulate(seg, true); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// Commit writes the plan's delivery times into store and resets then
// accumulates truck mileage. Callers must not run Commit concurrently with
// another Commit on the same store.
func (s *PlanSearch) Commit(ctx context.Context, plan domain.Plan, store *domain.PackageStore) (err error) {
	defer obs.Time(ctx, "search.Commit")(&err)

	if err := plan.Covers(store.IDs()); err != nil {
		return fmt.Errorf("commit plan: %w", err)
	}

	for _, t := range s.fleet {
		t.Reset()
	}
	for _, seg := range plan {
		if err := s.evaluator.Commit(seg, store); err != nil {
			return fmt.Errorf("commit plan: %w", err)
		}
	}
	return nil
}

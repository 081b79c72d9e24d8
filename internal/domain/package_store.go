package domain

import (
	"fmt"
	"slices"
	"sync"
)

// PackageStore is a keyed collection of packages with an explicit
// address -> package id index. It is safe for concurrent use.
type PackageStore struct {
	mu        sync.RWMutex
	packages  map[int]Package
	byAddress map[string][]int
}

func NewPackageStore() *PackageStore {
	return &PackageStore{
		packages:  make(map[int]Package),
		byAddress: make(map[string][]int),
	}
}

// NewPackageStoreFrom inserts all packages, failing on the first invalid one.
func NewPackageStoreFrom(pkgs []Package) (*PackageStore, error) {
	s := NewPackageStore()
	for _, p := range pkgs {
		if err := s.Insert(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PackageStore) Insert(p Package) error {
	if p.PackageID <= 0 {
		return fmt.Errorf("insert package: invalid package id %d", p.PackageID)
	}
	if p.Address == "" {
		return fmt.Errorf("insert package %d: address must not be empty", p.PackageID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.packages[p.PackageID]; ok {
		return fmt.Errorf("insert package %d: %w", p.PackageID, ErrDuplicatePackage)
	}
	s.packages[p.PackageID] = p.clone()
	s.index(p.Address, p.PackageID)
	return nil
}

func (s *PackageStore) Remove(id int) (Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[id]
	if !ok {
		return Package{}, fmt.Errorf("remove package %d: %w", id, ErrPackageNotFound)
	}
	delete(s.packages, id)
	s.unindex(p.Address, id)
	return p, nil
}

func (s *PackageStore) Get(id int) (Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.packages[id]
	if !ok {
		return Package{}, fmt.Errorf("get package %d: %w", id, ErrPackageNotFound)
	}
	return p.clone(), nil
}

// Update applies fn to a copy of the package and stores the result,
// re-indexing when the address changes.
func (s *PackageStore) Update(id int, fn func(p *Package)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[id]
	if !ok {
		return fmt.Errorf("update package %d: %w", id, ErrPackageNotFound)
	}

	updated := p.clone()
	fn(&updated)
	updated.PackageID = id

	if updated.Address != p.Address {
		s.unindex(p.Address, id)
		s.index(updated.Address, id)
	}
	s.packages[id] = updated
	return nil
}

// All returns every package sorted by id.
func (s *PackageStore) All() []Package {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Package, 0, len(s.packages))
	for _, p := range s.packages {
		out = append(out, p.clone())
	}
	slices.SortFunc(out, func(a, b Package) int { return a.PackageID - b.PackageID })
	return out
}

// IDs returns every package id in ascending order.
func (s *PackageStore) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.packages))
	for id := range s.packages {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AtAddress returns the packages destined for address, sorted by id.
func (s *PackageStore) AtAddress(address string) []Package {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byAddress[address]
	out := make([]Package, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.packages[id].clone())
	}
	return out
}

// Addresses returns the distinct destinations currently in the store.
func (s *PackageStore) Addresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byAddress))
	for a := range s.byAddress {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

func (s *PackageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.packages)
}

// Clone returns an independent copy. Trials plan against clones so that only
// the committed plan mutates the canonical store.
func (s *PackageStore) Clone() *PackageStore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := &PackageStore{
		packages:  make(map[int]Package, len(s.packages)),
		byAddress: make(map[string][]int, len(s.byAddress)),
	}
	for id, p := range s.packages {
		c.packages[id] = p.clone()
	}
	for a, ids := range s.byAddress {
		c.byAddress[a] = slices.Clone(ids)
	}
	return c
}

// Group returns the packages that must load together with the given seeds:
// the seeds plus the transitive closure of their tie-groups. Members that are
// no longer in the store are skipped.
func (s *PackageStore) Group(seeds []int) []Package {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]struct{})
	queue := slices.Clone(seeds)
	out := make([]Package, 0, len(seeds))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		p, ok := s.packages[id]
		if !ok {
			continue
		}
		out = append(out, p.clone())
		queue = append(queue, p.TieGroup...)
	}
	slices.SortFunc(out, func(a, b Package) int { return a.PackageID - b.PackageID })
	return out
}

// SetDelivery records a committed delivery time and marks the package delivered.
func (s *PackageStore) SetDelivery(id int, at float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[id]
	if !ok {
		return fmt.Errorf("set delivery %d: %w", id, ErrPackageNotFound)
	}
	p.DeliveryTime = at
	p.Status = Delivered
	s.packages[id] = p
	return nil
}

// NormalizeTies makes tie-groups explicit: every connected set of tied
// packages gets the same sorted member list, and a truck pin on any member
// is copied to all members. Conflicting pins inside one group cannot be
// satisfied.
func (s *PackageStore) NormalizeTies() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := make(map[int]int, len(s.packages))
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for id := range s.packages {
		parent[id] = id
	}

	for id, p := range s.packages {
		for _, member := range p.TieGroup {
			if _, ok := s.packages[member]; !ok {
				return fmt.Errorf("normalize ties: package %d tied to %d: %w", id, member, ErrPackageNotFound)
			}
			ra, rb := find(id), find(member)
			if ra != rb {
				parent[ra] = rb
			}
		}
	}

	groups := make(map[int][]int)
	for id, p := range s.packages {
		if len(p.TieGroup) == 0 {
			continue
		}
		root := find(id)
		groups[root] = append(groups[root], id)
	}
	// Members referenced only by others still belong to the group.
	for id := range s.packages {
		root := find(id)
		if _, ok := groups[root]; ok && !slices.Contains(groups[root], id) {
			groups[root] = append(groups[root], id)
		}
	}

	for _, members := range groups {
		slices.Sort(members)

		pin := NoTruck
		for _, id := range members {
			p := s.packages[id]
			if !p.Pinned() {
				continue
			}
			if pin != NoTruck && pin != p.TruckPin {
				return fmt.Errorf(
					"normalize ties: group %v pins both truck %d and truck %d: %w",
					members, pin, p.TruckPin, ErrNoFeasibleAssignment,
				)
			}
			pin = p.TruckPin
		}

		for _, id := range members {
			p := s.packages[id]
			p.TieGroup = slices.Clone(members)
			if pin != NoTruck {
				p.TruckPin = pin
			}
			s.packages[id] = p
		}
	}

	return nil
}

// ValidateFleet surfaces loading units that no truck can ever carry. A unit
// is every package at one address plus the tie groups they reach, which is
// what the loader moves onto a truck in one step.
func (s *PackageStore) ValidateFleet(fleet []*Truck) error {
	byID := make(map[int]*Truck, len(fleet))
	for _, t := range fleet {
		byID[t.TruckID] = t
	}
	maxCap := MaxCapacity(fleet)

	for _, address := range s.Addresses() {
		here := s.AtAddress(address)
		seeds := make([]int, 0, len(here))
		for _, p := range here {
			seeds = append(seeds, p.PackageID)
		}
		unit := s.Group(seeds)

		limit := maxCap
		pin := NoTruck
		for _, p := range unit {
			if !p.Pinned() {
				continue
			}
			t, ok := byID[p.TruckPin]
			if !ok {
				return fmt.Errorf("validate fleet: package %d pinned to missing truck %d: %w",
					p.PackageID, p.TruckPin, ErrNoFeasibleAssignment)
			}
			if pin != NoTruck && pin != p.TruckPin {
				return fmt.Errorf("validate fleet: packages for %q pinned to trucks %d and %d: %w",
					address, pin, p.TruckPin, ErrNoFeasibleAssignment)
			}
			pin = p.TruckPin
			limit = t.Capacity
		}
		if len(unit) > limit {
			return fmt.Errorf("validate fleet: unit for %q has %d packages, capacity %d: %w",
				address, len(unit), limit, ErrInfeasibleGroup)
		}
	}
	return nil
}

func (s *PackageStore) index(address string, id int) {
	ids := s.byAddress[address]
	pos, _ := slices.BinarySearch(ids, id)
	s.byAddress[address] = slices.Insert(ids, pos, id)
}

func (s *PackageStore) unindex(address string, id int) {
	ids := s.byAddress[address]
	if pos, ok := slices.BinarySearch(ids, id); ok {
		ids = slices.Delete(ids, pos, pos+1)
	}
	if len(ids) == 0 {
		delete(s.byAddress, address)
		return
	}
	s.byAddress[address] = ids
}

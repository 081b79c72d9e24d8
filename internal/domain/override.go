package domain

import (
	"fmt"
	"slices"
)

// OverrideKind names a manual correction applied before planning.
type OverrideKind string

const (
	OverridePin          OverrideKind = "pin"
	OverrideAvailability OverrideKind = "availability"
	OverrideAddress      OverrideKind = "address"
	OverrideTie          OverrideKind = "tie"
)

// Override is one directive from the constraint annotations.
// Only the fields relevant to Kind are read.
type Override struct {
	Kind         OverrideKind
	PackageID    int
	Truck        int
	Availability float64
	Street       string
	Zip          string
	TieGroup     []int
}

// ApplyOverrides applies directives in order, then normalizes tie-groups.
// known reports whether an address exists in the distance universe; it may be nil.
func (s *PackageStore) ApplyOverrides(overrides []Override, known func(address string) bool) error {
	for i, o := range overrides {
		var fn func(p *Package)
		switch o.Kind {
		case OverridePin:
			if o.Truck < 0 {
				return fmt.Errorf("override #%d: negative truck %d: %w", i+1, o.Truck, ErrInvalidOverride)
			}
			fn = func(p *Package) { p.TruckPin = o.Truck }
		case OverrideAvailability:
			if o.Availability < StartOfDay || o.Availability > EndOfDay {
				return fmt.Errorf("override #%d: availability %.2f out of range: %w", i+1, o.Availability, ErrInvalidOverride)
			}
			fn = func(p *Package) { p.Availability = o.Availability }
		case OverrideAddress:
			addr := ComposeAddress(o.Street, o.Zip)
			if o.Street == "" {
				return fmt.Errorf("override #%d: empty street: %w", i+1, ErrInvalidOverride)
			}
			if known != nil && !known(addr) {
				return fmt.Errorf("override #%d: address %q: %w", i+1, addr, ErrUnknownAddress)
			}
			fn = func(p *Package) {
				p.Street = o.Street
				p.Zip = o.Zip
				p.Address = addr
			}
		case OverrideTie:
			group := slices.Clone(o.TieGroup)
			slices.Sort(group)
			group = slices.Compact(group)
			fn = func(p *Package) { p.TieGroup = group }
		default:
			return fmt.Errorf("override #%d: kind %q: %w", i+1, o.Kind, ErrInvalidOverride)
		}

		if err := s.Update(o.PackageID, fn); err != nil {
			return fmt.Errorf("override #%d (%s): %w", i+1, o.Kind, err)
		}
	}

	if err := s.NormalizeTies(); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return nil
}

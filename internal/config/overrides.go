package config

import (
	"delivery-route-planner/internal/domain"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type overrideFile struct {
	Overrides []overrideEntry `yaml:"overrides"`
}

type overrideEntry struct {
	Kind    string `yaml:"kind"`
	Package int    `yaml:"package"`
	Truck   int    `yaml:"truck"`
	At      string `yaml:"at"`
	Street  string `yaml:"street"`
	Zip     string `yaml:"zip"`
	Group   []int  `yaml:"group"`
}

// LoadOverrides reads the manual constraint directives. A missing file means
// no overrides.
func LoadOverrides(path string) ([]domain.Override, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load overrides: read %q: %w", path, err)
	}
	return ParseOverrides(b)
}

// ParseOverrides decodes a YAML override document, keeping directive order.
func ParseOverrides(b []byte) ([]domain.Override, error) {
	var f overrideFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}

	out := make([]domain.Override, 0, len(f.Overrides))
	for i, e := range f.Overrides {
		if e.Package <= 0 {
			return nil, fmt.Errorf("parse overrides: entry #%d: package is required: %w", i+1, domain.ErrInvalidOverride)
		}

		o := domain.Override{
			Kind:      domain.OverrideKind(strings.ToLower(strings.TrimSpace(e.Kind))),
			PackageID: e.Package,
		}
		switch o.Kind {
		case domain.OverridePin:
			o.Truck = e.Truck
		case domain.OverrideAvailability:
			at, err := domain.ParseClock(e.At)
			if err != nil {
				return nil, fmt.Errorf("parse overrides: entry #%d: %w", i+1, err)
			}
			o.Availability = at
		case domain.OverrideAddress:
			o.Street = strings.TrimSpace(e.Street)
			o.Zip = strings.TrimSpace(e.Zip)
		case domain.OverrideTie:
			o.TieGroup = e.Group
		default:
			return nil, fmt.Errorf("parse overrides: entry #%d: kind %q: %w", i+1, e.Kind, domain.ErrInvalidOverride)
		}
		out = append(out, o)
	}
	return out, nil
}

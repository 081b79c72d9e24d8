package domain

import (
	"fmt"
	"math"
	"slices"
)

// Status is the delivery state of a package at a point in time.
type Status int

const (
	NotDelivered Status = iota
	InTransit
	Delivered
)

func (s Status) String() string {
	switch s {
	case InTransit:
		return "In transit"
	case Delivered:
		return "Delivered"
	default:
		return "Not delivered"
	}
}

// NoTruck marks a package without a truck pin.
const NoTruck = 0

// Represents a single delivery unit handled by the planner.
// Address is the composite "street (zip)" key used by the distance table.
// Deadline and Availability are decimal hours. TruckPin and TieGroup are the
// binding constraints; a non-empty TieGroup lists every package (usually
// including this one) that must ride the same segment.
// Status and DeliveryTime are populated when a plan is committed.
type Package struct {
	PackageID    int
	Street       string
	City         string
	State        string
	Zip          string
	Address      string
	Deadline     float64
	Weight       int
	Note         string
	Availability float64
	TruckPin     int
	TieGroup     []int

	Status       Status
	DeliveryTime float64
}

// NewPackage returns a package with the default constraints applied:
// end-of-day deadline, available from start of day, no pin, undelivered.
func NewPackage(id int, street, zip string) Package {
	return Package{
		PackageID:    id,
		Street:       street,
		Zip:          zip,
		Address:      ComposeAddress(street, zip),
		Deadline:     EndOfDay,
		Availability: StartOfDay,
		DeliveryTime: math.Inf(1),
	}
}

// ComposeAddress builds the distance table key for a street and zip code.
func ComposeAddress(street, zip string) string {
	if zip == "" {
		return street
	}
	return fmt.Sprintf("%s (%s)", street, zip)
}

// Pinned reports whether the package is bound to a specific truck.
func (p Package) Pinned() bool { return p.TruckPin != NoTruck }

// Scheduled reports whether a delivery time has been computed.
func (p Package) Scheduled() bool { return !math.IsInf(p.DeliveryTime, 1) }

func (p Package) clone() Package {
	p.TieGroup = slices.Clone(p.TieGroup)
	return p
}

package domain

import (
	"testing"
)

func TestSegmentLoadRespectsTruck(t *testing.T) {
	// build test data
	truck := NewTruck(1, 3, 18)
	seg := NewSegment(truck, Clock(8, 0))

	pkg1 := NewPackage(1, "A", "")
	pkg2 := NewPackage(2, "B", "")
	pkg3 := NewPackage(3, "C", "")
	pinned := NewPackage(4, "D", "")
	pinned.TruckPin = 2
	late := NewPackage(5, "E", "")
	late.Availability = Clock(9, 5)

	// call the method under test
	if err := seg.Load([]Package{pkg1, pkg2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// verify behavior
	if err := seg.Load([]Package{pinned}); err == nil {
		t.Errorf("expected pinned package to be rejected by truck 1")
	}
	if err := seg.Load([]Package{late}); err == nil {
		t.Errorf("expected unavailable package to be rejected at 08:00")
	}
	if err := seg.Load([]Package{pkg3, NewPackage(6, "F", "")}); err == nil {
		t.Errorf("expected capacity error")
	}
	if err := seg.Load([]Package{pkg3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(seg.Packages); got != 3 {
		t.Fatalf("loaded = %d, want 3", got)
	}
	if got := seg.Addresses(); len(got) != 3 || got[0] != "A" || got[2] != "C" {
		t.Errorf("addresses = %v, want [A B C]", got)
	}
}

func TestTruckDrive(t *testing.T) {
	truck := NewTruck(2, 0, 0)
	if truck.Capacity != DefaultTruckCapacity || truck.Speed != DefaultTruckSpeed {
		t.Fatalf("defaults not applied: %+v", truck)
	}

	if err := truck.Drive(12.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := truck.Drive(-1); err == nil {
		t.Errorf("expected negative distance error")
	}
	if truck.Miles != 12.5 {
		t.Errorf("miles = %v, want 12.5", truck.Miles)
	}

	if got := truck.Travel(9); got != 0.5 {
		t.Errorf("travel = %v, want 0.5", got)
	}

	truck.Reset()
	if truck.Miles != 0 {
		t.Errorf("miles after reset = %v", truck.Miles)
	}
}

func TestPlanCovers(t *testing.T) {
	truck := NewTruck(1, 16, 18)
	a := NewSegment(truck, 8)
	b := NewSegment(truck, 9)
	a.Packages = []Package{NewPackage(1, "A", ""), NewPackage(2, "B", "")}
	b.Packages = []Package{NewPackage(3, "C", "")}

	plan := Plan{a, b}
	if err := plan.Covers([]int{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := plan.Covers([]int{1, 2, 3, 4}); err == nil {
		t.Errorf("expected missing package error")
	}

	b.Packages = append(b.Packages, NewPackage(1, "A", ""))
	if err := plan.Covers([]int{1, 2, 3}); err == nil {
		t.Errorf("expected duplicate package error")
	}
}

func TestClock(t *testing.T) {
	h, err := ParseClock("10:20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != Clock(10, 20) {
		t.Errorf("parse = %v, want %v", h, Clock(10, 20))
	}
	if got := FormatClock(h); got != "10:20" {
		t.Errorf("format = %q, want 10:20", got)
	}
	if eod, _ := ParseClock("EOD"); eod != EndOfDay {
		t.Errorf("EOD = %v", eod)
	}
	if _, err := ParseClock("25:00"); err == nil {
		t.Errorf("expected invalid hour error")
	}
}

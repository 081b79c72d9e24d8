package main

import (
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/services"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderPlan(w io.Writer, route *services.Route) error {
	for i, seg := range route.Summary() {
		fmt.Fprintf(w, "Trip %d: truck %d departs %s, returns %s, %.1f miles, %d missed\n",
			i+1, seg.Truck, domain.FormatClock(seg.Start), domain.FormatClock(seg.End), seg.Length, seg.MissedDeadlines)

		tw := newTable(w)
		fmt.Fprintln(tw, "  ARRIVE\tADDRESS\tPACKAGES")
		for _, st := range seg.Stops {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", domain.FormatClock(st.Arrival), st.Address, joinIDs(st.PackageIDs))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %.1f miles, %d missed deadlines\n", route.TotalLength(), route.Plan.MissedDeadlines())
	for _, t := range route.Trucks {
		fmt.Fprintf(w, "  truck %d: %.1f miles\n", t.TruckID, route.Mileage()[t.TruckID])
	}
	return nil
}

func renderStatus(w io.Writer, route *services.Route, at float64, id int) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID\tADDRESS\tDEADLINE\tTRUCK\tSTATUS\tAT %s\n", domain.FormatClock(at))

	found := false
	for _, ps := range route.StatusAt(at) {
		if id != 0 && ps.Package.PackageID != id {
			continue
		}
		found = true

		when := ""
		switch ps.Status {
		case domain.Delivered:
			when = "delivered " + domain.FormatClock(ps.DeliveryAt)
		case domain.InTransit:
			when = "left " + domain.FormatClock(ps.Departure)
		default:
			when = "departs " + domain.FormatClock(ps.Departure)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			ps.Package.PackageID, ps.Package.Address, domain.FormatClock(ps.Package.Deadline), ps.Truck, ps.Status, when)
	}
	if id != 0 && !found {
		return fmt.Errorf("status: package %d: %w", id, domain.ErrPackageNotFound)
	}
	return tw.Flush()
}

func renderPackages(w io.Writer, route *services.Route) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tADDRESS\tCITY\tWEIGHT\tDEADLINE\tAVAILABLE\tPIN\tTIED\tDELIVERED")
	for _, p := range route.Packages.All() {
		pin := "-"
		if p.Pinned() {
			pin = strconv.Itoa(p.TruckPin)
		}
		tied := joinIDs(p.TieGroup)
		if tied == "" {
			tied = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			p.PackageID, p.Address, p.City, p.Weight,
			domain.FormatClock(p.Deadline), domain.FormatClock(p.Availability),
			pin, tied, domain.FormatClock(p.DeliveryTime))
	}
	return tw.Flush()
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

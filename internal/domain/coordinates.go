package domain

import "math"

// Polar placement of an address relative to the depot at the origin.
// Radius and Angle drive routing; X and Y exist for visualization.
type EmbeddedCoordinate struct {
	X      float64
	Y      float64
	Radius float64
	Angle  float64
}

// NewPolar builds a coordinate from radius and angle (radians).
func NewPolar(radius, angle float64) EmbeddedCoordinate {
	return EmbeddedCoordinate{
		X:      radius * math.Cos(angle),
		Y:      radius * math.Sin(angle),
		Radius: radius,
		Angle:  angle,
	}
}

// PolarDistance is the law-of-cosines distance between two polar points.
func PolarDistance(r1, r2, a1, a2 float64) float64 {
	sq := r1*r1 + r2*r2 - 2*r1*r2*math.Cos(a1-a2)
	if sq < 0 {
		return 0
	}
	return math.Sqrt(sq)
}

// DistanceTo returns the planar distance between two embedded coordinates.
func (c EmbeddedCoordinate) DistanceTo(o EmbeddedCoordinate) float64 {
	return math.Hypot(o.X-c.X, o.Y-c.Y)
}

// Return coordinates as [x, y] for plotting.
func (c EmbeddedCoordinate) CoordsToList() []float64 { return []float64{c.X, c.Y} }

package domain

// Geographic position of a street address, used only to fetch road distances.
type GeoPoint struct {
	Lon float64
	Lat float64
}

// Return the point as [lon, lat], the order the matrix API expects.
func (g GeoPoint) LonLat() []float64 { return []float64{g.Lon, g.Lat} }

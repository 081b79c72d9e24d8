package distance

import (
	"context"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"fmt"
	"net/http"
	"net/url"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// geocodeMany resolves addresses one at a time with /geocode/search.
// Addresses carry a "(zip)" suffix, which the geocoder accepts as free text.
func (o *ORSMatrixSource) geocodeMany(ctx context.Context, addresses []string) (_ map[string]domain.GeoPoint, err error) {
	defer obs.Time(ctx, "ors.geocodeMany")(&err)

	out := make(map[string]domain.GeoPoint, len(addresses))
	for _, a := range addresses {
		if _, ok := out[a]; ok {
			continue
		}

		p, err := o.geocodeOne(ctx, a)
		if err != nil {
			return nil, err
		}
		out[a] = p
	}

	return out, nil
}

func (o *ORSMatrixSource) geocodeOne(ctx context.Context, address string) (domain.GeoPoint, error) {
	query := url.Values{}
	query.Set("text", address)
	query.Set("boundary.country", "US")
	query.Set("size", "1")

	var decoded geocodeResponse
	if err := o.call(ctx, http.MethodGet, "/geocode/search", query, nil, &decoded); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: %w", address, err)
	}

	if len(decoded.Features) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("no geocode results for %q", address)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	return domain.GeoPoint{Lon: coords[0], Lat: coords[1]}, nil
}

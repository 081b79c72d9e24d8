package distance

import (
	"context"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/obs"
	"delivery-route-planner/internal/ports"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// metersPerMile converts ORS road distances into the planner's miles.
const metersPerMile = 1609.344

// ORSMatrixSource implements DistanceMatrixSource using OpenRouteService.
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode caching
//   - One all-pairs matrix call per universe
//   - External API calls with retry/backoff
//
// The source is safe for concurrent use.
type ORSMatrixSource struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	profile      string
	backoff      time.Duration
	geocodeCache ports.GeocodeCache
}

type ORSOption func(*ORSMatrixSource)

// WithBaseURL points the source at another ORS deployment.
func WithBaseURL(u string) ORSOption {
	return func(o *ORSMatrixSource) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSMatrixSource) { o.session = c }
}

// WithBackoff sets the first retry delay; it doubles on every attempt.
func WithBackoff(d time.Duration) ORSOption {
	return func(o *ORSMatrixSource) { o.backoff = d }
}

func NewORSMatrixSource(apiKey string, geocodeCache ports.GeocodeCache, opts ...ORSOption) (*ORSMatrixSource, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	source := &ORSMatrixSource{
		session:      &http.Client{Timeout: 30 * time.Second},
		apiKey:       apiKey,
		baseURL:      "https://api.openrouteservice.org",
		profile:      "driving-car",
		geocodeCache: geocodeCache,
	}
	for _, opt := range opts {
		opt(source)
	}

	return source, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (o *ORSMatrixSource) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DirectMatrix geocodes every address (cache first) and fetches the road
// distance between all pairs in one matrix call. Road distances differ by
// direction, so each pair is the mean of both directions.
func (o *ORSMatrixSource) DirectMatrix(ctx context.Context, addresses []string) (_ [][]float64, err error) {
	defer obs.Time(ctx, "ors.DirectMatrix")(&err)

	if len(addresses) == 0 {
		return [][]float64{}, nil
	}

	norm := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		n := o.normalize(a)
		if n == "" {
			return nil, errors.New("ORS direct matrix: address must be non-empty")
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("ORS direct matrix: duplicate address %q", n)
		}
		seen[n] = struct{}{}
		norm = append(norm, n)
	}

	coords, err := o.resolve(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("ORS direct matrix: %w", err)
	}

	points := make([]domain.GeoPoint, 0, len(norm))
	for _, a := range norm {
		p, ok := coords[a]
		if !ok {
			return nil, fmt.Errorf("ORS direct matrix: missing coordinate for %q", a)
		}
		points = append(points, p)
	}

	meters, err := o.fetchMatrix(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("ORS direct matrix: %w", err)
	}

	out := make([][]float64, len(norm))
	for i := range norm {
		out[i] = make([]float64, i+1)
		for j := 0; j < i; j++ {
			out[i][j] = (meters[i][j] + meters[j][i]) / 2 / metersPerMile
		}
	}
	return out, nil
}

// resolve returns coordinates for every address, geocoding cache misses and
// writing them back.
func (o *ORSMatrixSource) resolve(ctx context.Context, addresses []string) (map[string]domain.GeoPoint, error) {
	hits := make(map[string]domain.GeoPoint)
	if o.geocodeCache != nil {
		var err error
		hits, err = o.geocodeCache.GetMany(ctx, addresses)
		if err != nil {
			return nil, fmt.Errorf("get geocode cache: %w", err)
		}
	}

	misses := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if _, ok := hits[a]; !ok {
			misses = append(misses, a)
		}
	}
	if len(misses) == 0 {
		return hits, nil
	}

	fresh, err := o.geocodeMany(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("retrieving coordinates: %w", err)
	}

	if o.geocodeCache != nil && len(fresh) > 0 {
		if err := o.geocodeCache.PutMany(ctx, fresh); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	out := make(map[string]domain.GeoPoint, len(hits)+len(fresh))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}
	return out, nil
}

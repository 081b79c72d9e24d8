package distance

import (
	"context"
	"delivery-route-planner/internal/domain"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryGeocodeCache struct {
	mu     sync.Mutex
	points map[string]domain.GeoPoint
}

func (c *memoryGeocodeCache) GetMany(_ context.Context, addresses []string) (map[string]domain.GeoPoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]domain.GeoPoint)
	for _, a := range addresses {
		if p, ok := c.points[a]; ok {
			out[a] = p
		}
	}
	return out, nil
}

func (c *memoryGeocodeCache) PutMany(_ context.Context, results map[string]domain.GeoPoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range results {
		c.points[k] = v
	}
	return nil
}

type fakeORS struct {
	geocodes     atomic.Int32
	matrixCalls  atomic.Int32
	failMatrixes int32
}

func (f *fakeORS) handler(t *testing.T) http.Handler {
	lon := map[string]float64{"1 Main St (84101)": 0, "20 Elm St (84102)": 1, "300 Oak Ave (84103)": 2}

	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		f.geocodes.Add(1)
		x, ok := lon[r.URL.Query().Get("text")]
		if !ok {
			_, _ = w.Write([]byte(`{"features":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"features": []any{map[string]any{"geometry": map[string]any{"coordinates": []float64{x, 40}}}},
		})
	})
	mux.HandleFunc("/v2/matrix/driving-car", func(w http.ResponseWriter, r *http.Request) {
		if f.matrixCalls.Add(1) <= f.failMatrixes {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}

		var req matrixRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}

		// One mile per degree of longitude, plus 200 m on the way back.
		n := len(req.Locations)
		rows := make([][]float64, n)
		for i := range rows {
			rows[i] = make([]float64, n)
			for j := range rows[i] {
				d := req.Locations[i][0] - req.Locations[j][0]
				if d < 0 {
					d = -d
				}
				rows[i][j] = d * metersPerMile
				if i > j {
					rows[i][j] += 200
				}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"distances": rows})
	})
	return mux
}

func TestORSDirectMatrix(t *testing.T) {
	fake := &fakeORS{failMatrixes: 1}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	cache := &memoryGeocodeCache{points: map[string]domain.GeoPoint{
		"1 Main St (84101)": {Lon: 0, Lat: 40},
	}}
	src, err := NewORSMatrixSource("test-key", cache, WithBaseURL(srv.URL), WithBackoff(time.Millisecond))
	require.NoError(t, err)

	addresses := []string{"1 Main St (84101)", "20 Elm St  (84102)", "300 Oak Ave (84103)"}
	matrix, err := src.DirectMatrix(context.Background(), addresses)
	require.NoError(t, err)

	require.Len(t, matrix, 3)
	assert.InDelta(t, 1+100/metersPerMile, matrix[1][0], 1e-9)
	assert.InDelta(t, 2+100/metersPerMile, matrix[2][0], 1e-9)
	assert.InDelta(t, 1+100/metersPerMile, matrix[2][1], 1e-9)

	assert.Equal(t, int32(2), fake.geocodes.Load(), "cached depot is not geocoded")
	assert.Equal(t, int32(2), fake.matrixCalls.Load(), "503 is retried")
	assert.Len(t, cache.points, 3)
}

func TestORSGivesUpOnClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	src, err := NewORSMatrixSource("test-key", nil, WithBaseURL(srv.URL), WithBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = src.DirectMatrix(context.Background(), []string{"1 Main St (84101)"})
	var he *statusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestORSUnknownAddress(t *testing.T) {
	fake := &fakeORS{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	src, err := NewORSMatrixSource("test-key", nil, WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = src.DirectMatrix(context.Background(), []string{"nowhere"})
	assert.ErrorContains(t, err, "no geocode results")
}

func TestNewORSMatrixSourceRequiresKey(t *testing.T) {
	_, err := NewORSMatrixSource(" ", nil)
	assert.Error(t, err)
}

func TestStaticMatrixSource(t *testing.T) {
	src, err := NewStaticMatrixSource([]string{"HUB", "A", "B"}, [][]float64{{}, {2}, {5, 3}})
	require.NoError(t, err)

	m, err := src.DirectMatrix(context.Background(), []string{"B", "HUB", "A"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0}, {5, 0}, {3, 2, 0}}, m)

	_, err = src.DirectMatrix(context.Background(), []string{"HUB", "Z"})
	assert.ErrorIs(t, err, domain.ErrUnknownAddress)

	_, err = NewStaticMatrixSource([]string{"HUB"}, nil)
	assert.Error(t, err)
}

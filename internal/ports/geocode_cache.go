package ports

import (
	"context"
	"delivery-route-planner/internal/domain"
)

// Port: persisted address -> coordinate lookups for road distance sources.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.GeoPoint, error)
	PutMany(ctx context.Context, results map[string]domain.GeoPoint) error
}

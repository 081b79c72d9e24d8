package ports

import (
	"context"
	"delivery-route-planner/internal/domain"
)

// Port: a boundary for retrieving Package entities from a data source.
type PackageRepository interface {
	// Retrieve all packages available for routing.
	ListPackages(ctx context.Context) ([]domain.Package, error)
}

// Port: persistence of a committed plan's delivery times.
type DeliveryRecorder interface {
	SaveDeliveries(ctx context.Context, plan domain.Plan) error
}

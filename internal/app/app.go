package app

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/adapters/cache"
	"delivery-route-planner/internal/adapters/distance"
	"delivery-route-planner/internal/adapters/repositories"
	"delivery-route-planner/internal/config"
	"delivery-route-planner/internal/domain"
	"delivery-route-planner/internal/platform/db"
	"delivery-route-planner/internal/platform/metrics"
	"delivery-route-planner/internal/platform/obs"
	"delivery-route-planner/internal/ports"
	"delivery-route-planner/internal/services"
	"errors"
	"fmt"
	"log"
)

// Planner is a built route together with the resources backing it.
type Planner struct {
	Config  config.Config
	Route   *services.Route
	Metrics *metrics.Collector
	Repo    *repositories.SqlitePackageRepository

	closers []func() error
}

// Bootstrap opens and seeds the local database, loads the address universe
// and packages, applies overrides, then builds and records the plan.
func Bootstrap(ctx context.Context, cfg config.Config) (_ *Planner, err error) {
	ctx = obs.WithRequestID(ctx)
	defer obs.Time(ctx, "app.Bootstrap")(&err)

	p := &Planner{Config: cfg, Metrics: metrics.NewCollector()}
	defer func() {
		if err != nil {
			_ = p.Close()
		}
	}()

	local, err := db.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	p.closers = append(p.closers, local.Close)

	if err := repositories.InitSchema(ctx, local); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if err := repositories.SeedFromJSON(ctx, local, cfg.SeedPath); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	pathCache, geocodes, err := p.openCaches(ctx, local)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	table, err := loadTable(ctx, cfg, repositories.NewSqliteDistanceRepository(local), geocodes)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	p.Repo = repositories.NewSqlitePackageRepository(local)
	store, err := loadPackages(ctx, cfg, p.Repo, table)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	fleet := domain.NewFleet(cfg.TruckCount, cfg.TruckCapacity, cfg.TruckSpeed)
	route, err := services.NewRoute(table, store, fleet,
		services.WithSearchOptions(services.SearchOptions{
			EarlyDeparture: cfg.EarlyDeparture,
			LateDeparture:  cfg.LateDeparture,
			Turnaround:     cfg.Turnaround,
			RecycleDelay:   cfg.RecycleDelay,
			Workers:        cfg.SearchWorkers,
		}),
		services.WithObserver(p.Metrics),
		services.WithPathCache(pathCache),
	)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	if err := route.Build(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	p.Metrics.RecordMileage(route.Mileage())

	if err := record(ctx, p.Repo, route.Plan); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	p.Route = route
	log.Printf("op=app.Bootstrap packages=%d segments=%d length=%.1f missed=%d",
		store.Len(), len(route.Plan), route.TotalLength(), route.Plan.MissedDeadlines())
	return p, nil
}

// Close releases the databases in reverse open order.
func (p *Planner) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	p.closers = nil
	return errors.Join(errs...)
}

// loadTable reads the address universe from repo and the direct distances
// from repo or, when configured, from OpenRouteService.
func loadTable(ctx context.Context, cfg config.Config, repo ports.DistanceRepository, geocodes ports.GeocodeCache) (*services.DistanceTable, error) {
	addresses, err := repo.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}

	var source ports.DistanceMatrixSource = repo
	if cfg.DistanceSource == config.SourceORS {
		source, err = distance.NewORSMatrixSource(cfg.ORSAPIKey, geocodes)
		if err != nil {
			return nil, err
		}
	}

	matrix, err := source.DirectMatrix(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("load distances: %w", err)
	}
	return services.NewDistanceTable(addresses, matrix)
}

func loadPackages(ctx context.Context, cfg config.Config, repo ports.PackageRepository, table *services.DistanceTable) (*domain.PackageStore, error) {
	pkgs, err := repo.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	store, err := domain.NewPackageStoreFrom(pkgs)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	overrides, err := config.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyOverrides(overrides, table.Has); err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	log.Printf("op=app.loadPackages packages=%d overrides=%d", store.Len(), len(overrides))
	return store, nil
}

func record(ctx context.Context, rec ports.DeliveryRecorder, plan domain.Plan) error {
	if len(plan) == 0 {
		return nil
	}
	return rec.SaveDeliveries(ctx, plan)
}

// openCaches returns the shared Postgres caches when PATH_CACHE_URL is set
// and the local SQLite ones otherwise.
func (p *Planner) openCaches(ctx context.Context, local *sql.DB) (ports.PathCache, ports.GeocodeCache, error) {
	if p.Config.PathCacheURL == "" {
		return cache.NewSqlitePathCache(local), cache.NewSqliteGeocodeCache(local), nil
	}

	shared, err := db.Open(ctx, p.Config.PathCacheURL)
	if err != nil {
		return nil, nil, err
	}
	p.closers = append(p.closers, shared.Close)

	paths := cache.NewSQLPathCache(shared)
	if err := paths.InitSchema(ctx); err != nil {
		return nil, nil, err
	}
	geocodes := cache.NewSQLGeocodeCache(shared)
	if err := geocodes.InitSchema(ctx); err != nil {
		return nil, nil, err
	}
	return paths, geocodes, nil
}

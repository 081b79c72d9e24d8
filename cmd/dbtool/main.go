package main

import (
	"context"
	"database/sql"
	"delivery-route-planner/internal/adapters/cache"
	"delivery-route-planner/internal/adapters/distance"
	"delivery-route-planner/internal/adapters/repositories"
	"delivery-route-planner/internal/config"
	"delivery-route-planner/internal/platform/db"
	"delivery-route-planner/internal/services"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// dbtool prepares the shared Postgres path cache: it creates the schema,
// prunes the seed universe and stores the shortest paths under its
// fingerprint so planner instances can skip pruning.
func main() {
	config.LoadEnv()

	databaseURL := config.Get("PATH_CACHE_URL", os.Getenv("DATABASE_URL"))
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("PATH_CACHE_URL (or DATABASE_URL) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/universe.json")
	workers, err := config.GetInt("SEARCH_WORKERS", 0)
	if err != nil {
		log.Fatal(err)
	}

	if err := initAndWarm(ctx, pg, seedPath, workers); err != nil {
		log.Fatal(err)
	}
}

func initAndWarm(ctx context.Context, pg *sql.DB, seedPath string, workers int) error {
	log.Println("Initializing cache schema...")
	paths := cache.NewSQLPathCache(pg)
	if err := paths.InitSchema(ctx); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	if err := cache.NewSQLGeocodeCache(pg).InitSchema(ctx); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Println("Schema ready.")

	u, err := repositories.LoadUniverse(seedPath)
	if err != nil {
		return err
	}
	addresses := u.AddressKeys()

	source, err := distance.NewStaticMatrixSource(addresses, u.Distances)
	if err != nil {
		return err
	}
	matrix, err := source.DirectMatrix(ctx, addresses)
	if err != nil {
		return err
	}
	table, err := services.NewDistanceTable(addresses, matrix)
	if err != nil {
		return err
	}

	log.Printf("Pruning %d addresses...", table.Len())
	if err := table.Prune(ctx, workers); err != nil {
		return fmt.Errorf("pruning failed: %w", err)
	}
	entries, err := table.Entries()
	if err != nil {
		return err
	}

	fingerprint := table.Fingerprint()
	if err := paths.PutMany(ctx, fingerprint, entries); err != nil {
		return fmt.Errorf("cache warm failed: %w", err)
	}
	dropped, err := paths.DropStale(ctx, fingerprint)
	if err != nil {
		return err
	}
	log.Printf("Cache warm. fingerprint=%s pairs=%d dropped=%d", fingerprint, len(entries), dropped)
	return nil
}

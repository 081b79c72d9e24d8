package config

import (
	"delivery-route-planner/internal/domain"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env into the process environment if it exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config %s=%q: %w", key, v, err)
	}
	return n, nil
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config %s=%q: %w", key, v, err)
	}
	return f, nil
}

// GetClock reads an "HH:MM" value as decimal hours.
func GetClock(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	h, err := domain.ParseClock(v)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return h, nil
}

// Distance sources for the direct matrix.
const (
	SourceDB  = "db"
	SourceORS = "ors"
)

type Config struct {
	DBPath        string
	SeedPath      string
	OverridesPath string
	Port          string

	TruckCount    int
	TruckCapacity int
	TruckSpeed    float64

	EarlyDeparture float64
	LateDeparture  float64
	Turnaround     float64
	RecycleDelay   float64
	SearchWorkers  int

	DistanceSource string
	ORSAPIKey      string
	PathCacheURL   string
}

// Load reads the planner configuration from the environment.
func Load() (Config, error) {
	c := Config{
		DBPath:         Get("DB_PATH", "data/app.db"),
		SeedPath:       Get("SEED_PATH", "data/seeds/universe.json"),
		OverridesPath:  Get("OVERRIDES_PATH", "data/seeds/overrides.yaml"),
		Port:           Get("PORT", "8080"),
		DistanceSource: strings.ToLower(Get("DISTANCE_SOURCE", SourceDB)),
		ORSAPIKey:      Get("ORS_API_KEY", ""),
		PathCacheURL:   Get("PATH_CACHE_URL", ""),
	}

	var err error
	if c.TruckCount, err = GetInt("TRUCK_COUNT", 2); err != nil {
		return Config{}, err
	}
	if c.TruckCapacity, err = GetInt("TRUCK_CAPACITY", domain.DefaultTruckCapacity); err != nil {
		return Config{}, err
	}
	if c.TruckSpeed, err = GetFloat("TRUCK_SPEED", domain.DefaultTruckSpeed); err != nil {
		return Config{}, err
	}
	if c.EarlyDeparture, err = GetClock("EARLY_DEPARTURE", domain.Clock(8, 0)); err != nil {
		return Config{}, err
	}
	if c.LateDeparture, err = GetClock("LATE_DEPARTURE", domain.Clock(9, 5)); err != nil {
		return Config{}, err
	}
	if c.Turnaround, err = GetClock("TURNAROUND", domain.Clock(0, 30)); err != nil {
		return Config{}, err
	}
	if c.RecycleDelay, err = GetClock("RECYCLE_DELAY", domain.Clock(0, 5)); err != nil {
		return Config{}, err
	}
	if c.SearchWorkers, err = GetInt("SEARCH_WORKERS", runtime.GOMAXPROCS(0)); err != nil {
		return Config{}, err
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.TruckCount < 1 {
		return fmt.Errorf("config TRUCK_COUNT must be at least 1, got %d", c.TruckCount)
	}
	if c.TruckCapacity < 1 {
		return fmt.Errorf("config TRUCK_CAPACITY must be at least 1, got %d", c.TruckCapacity)
	}
	if c.TruckSpeed <= 0 {
		return fmt.Errorf("config TRUCK_SPEED must be positive, got %v", c.TruckSpeed)
	}
	if c.RecycleDelay <= 0 {
		return fmt.Errorf("config RECYCLE_DELAY must be positive")
	}
	switch c.DistanceSource {
	case SourceDB:
	case SourceORS:
		if c.ORSAPIKey == "" {
			return fmt.Errorf("config ORS_API_KEY is required when DISTANCE_SOURCE=%s", SourceORS)
		}
	default:
		return fmt.Errorf("config DISTANCE_SOURCE must be %q or %q, got %q", SourceDB, SourceORS, c.DistanceSource)
	}
	return nil
}

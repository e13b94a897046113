package config

import (
	"fmt"
	"time"

	"collection-route-service/internal/domain"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	SeedPath    string `mapstructure:"SEED_PATH"`

	ORSAPIKey     string        `mapstructure:"ORS_API_KEY"`
	ORSBaseURL    string        `mapstructure:"ORS_BASE_URL"`
	OracleTimeout time.Duration `mapstructure:"ORACLE_TIMEOUT"`
	OracleRPS     float64       `mapstructure:"ORACLE_RPS"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	ProfilesPath string `mapstructure:"PROFILES_PATH"`
	CutoffDate   string `mapstructure:"CUTOFF_DATE"`

	VehicleCapacity   int     `mapstructure:"VEHICLE_CAPACITY"`
	MaxPointsPerRoute int     `mapstructure:"MAX_POINTS_PER_ROUTE"`
	MaxRouteKm        float64 `mapstructure:"MAX_ROUTE_KM"`
	MaxRouteHours     float64 `mapstructure:"MAX_ROUTE_HOURS"`
	PrioritizeUrgent  bool    `mapstructure:"PRIORITIZE_URGENT"`
	SequenceTwoOpt    bool    `mapstructure:"SEQUENCE_TWO_OPT"`
	Workers           int     `mapstructure:"WORKERS"`

	UseDepot bool    `mapstructure:"USE_DEPOT"`
	DepotLat float64 `mapstructure:"DEPOT_LAT"`
	DepotLon float64 `mapstructure:"DEPOT_LON"`
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("CORS_ALLOWED", "*")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SEED_PATH", "data/seeds/points.json")
	v.SetDefault("ORS_API_KEY", "")
	v.SetDefault("ORS_BASE_URL", "https://api.openrouteservice.org")
	v.SetDefault("ORACLE_TIMEOUT", "3s")
	v.SetDefault("ORACLE_RPS", 5)
	v.SetDefault("CACHE_TTL", "168h")
	v.SetDefault("PROFILES_PATH", "")
	v.SetDefault("CUTOFF_DATE", "2023-04-10")
	v.SetDefault("VEHICLE_CAPACITY", 0)
	v.SetDefault("MAX_POINTS_PER_ROUTE", 0)
	v.SetDefault("MAX_ROUTE_KM", 0)
	v.SetDefault("MAX_ROUTE_HOURS", 0)
	v.SetDefault("PRIORITIZE_URGENT", true)
	v.SetDefault("SEQUENCE_TWO_OPT", false)
	v.SetDefault("WORKERS", 8)
	v.SetDefault("USE_DEPOT", false)
	v.SetDefault("DEPOT_LAT", 0)
	v.SetDefault("DEPOT_LON", 0)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if _, err := cfg.Cutoff(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Cutoff is the basis date for points with no known last service.
func (c Config) Cutoff() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.CutoffDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse CUTOFF_DATE %q: %w", c.CutoffDate, err)
	}
	return t, nil
}

// Depot returns the fixed start/end coordinate, or nil when routes are open.
func (c Config) Depot() *domain.Coordinates {
	if !c.UseDepot {
		return nil
	}
	return &domain.Coordinates{Lat: c.DepotLat, Lon: c.DepotLon}
}

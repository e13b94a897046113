package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collection-route-service/internal/adapters/cache"
	"collection-route-service/internal/adapters/distance"
	"collection-route-service/internal/adapters/repositories"
	"collection-route-service/internal/api"
	"collection-route-service/internal/api/handlers"
	"collection-route-service/internal/config"
	"collection-route-service/internal/platform/db"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"
	"collection-route-service/internal/services"

	"github.com/rs/zerolog"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg)
	zerolog.DefaultContextLogger = &logger

	profiles, err := config.LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load profiles")
	}
	cutoff, _ := cfg.Cutoff()

	obs.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.Pinger{}

	var (
		repo  ports.PointRepository
		sqlDB *sql.DB
	)
	if cfg.DatabaseURL != "" {
		sqlDB, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open database")
		}
		defer sqlDB.Close()

		if err := repositories.InitSchema(ctx, sqlDB); err != nil {
			logger.Fatal().Err(err).Msg("init schema")
		}
		repo = repositories.NewPostgresPointRepository(sqlDB)
		checks["database"] = sqlDB.PingContext
		logger.Info().Msg("using postgres point repository")
	} else if cfg.SeedPath != "" {
		seedRepo, err := repositories.NewSeedPointRepository(cfg.SeedPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.SeedPath).Msg("seed file unavailable; only inline optimization is served")
		} else {
			repo = seedRepo
			logger.Info().Str("path", cfg.SeedPath).Msg("using seed point repository")
		}
	}

	var distCache ports.DistanceCache
	switch {
	case cfg.RedisURL != "":
		rc, err := cache.NewRedisDistanceCacheFromURL(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("configure redis cache")
		}
		defer rc.Close()
		distCache = rc
		checks["redis"] = rc.Ping
	case sqlDB != nil:
		distCache = cache.NewSQLDistanceCache(sqlDB, cfg.CacheTTL)
	}

	var (
		provider ports.DistanceProvider
		planner  ports.TripPlanner
	)
	if cfg.ORSAPIKey != "" {
		opts := []distance.ORSOption{
			distance.WithBaseURL(cfg.ORSBaseURL),
			distance.WithRateLimit(cfg.OracleRPS),
			distance.WithHTTPTimeout(cfg.OracleTimeout),
		}
		if distCache != nil {
			opts = append(opts, distance.WithDistanceCache(distCache))
		}
		ors, err := distance.NewORSDistanceProvider(cfg.ORSAPIKey, opts...)
		if err != nil {
			logger.Fatal().Err(err).Msg("configure ORS provider")
		}
		provider, planner = ors, ors
	} else {
		logger.Warn().Msg("ORS_API_KEY not set; distances use great-circle fallback")
	}

	oracle := distance.NewClient(provider, planner, cfg.OracleTimeout)
	optimizer := services.NewOptimizer(profiles, cutoff, oracle, cfg.SequenceTwoOpt, cfg.Workers)
	if planner == nil {
		optimizer.Sequencer = services.NewSequencer(nil, cfg.SequenceTwoOpt)
	}

	router := api.NewRouter(api.Deps{
		Repo:      repo,
		Optimizer: optimizer,
		Defaults: services.OptimizeOptions{
			VehicleCapacity:   cfg.VehicleCapacity,
			MaxPointsPerRoute: cfg.MaxPointsPerRoute,
			MaxRouteKm:        cfg.MaxRouteKm,
			MaxRouteHours:     cfg.MaxRouteHours,
			PrioritizeUrgent:  cfg.PrioritizeUrgent,
			Depot:             cfg.Depot(),
		},
		Checks:         checks,
		Logger:         logger,
		CORSAllowed:    cfg.CORSAllowed,
		RequestTimeout: cfg.RequestTimeout,
	})

	// Write timeout leaves headroom over the request timeout for cold-cache oracle calls.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().Timestamp().Str("service", "collection-route-service").Logger()
}

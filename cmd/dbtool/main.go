package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	"collection-route-service/internal/adapters/repositories"
	"collection-route-service/internal/config"
	"collection-route-service/internal/platform/db"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	seedPath := flag.String("seed", cfg.SeedPath, "seed JSON file with points and vehicles")
	schemaOnly := flag.Bool("schema-only", false, "create tables without seeding")
	flag.Parse()

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	if err := initAndSeed(ctx, logger, conn, *seedPath, *schemaOnly); err != nil {
		logger.Fatal().Err(err).Msg("dbtool failed")
	}
}

func initAndSeed(ctx context.Context, logger zerolog.Logger, conn *sql.DB, seedPath string, schemaOnly bool) error {
	logger.Info().Msg("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}
	logger.Info().Msg("schema ready")

	if schemaOnly {
		return nil
	}

	logger.Info().Str("path", seedPath).Msg("seeding database")
	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		return err
	}
	logger.Info().Msg("seeding complete")

	return nil
}

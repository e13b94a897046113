package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createPointsQuery := `
	CREATE TABLE IF NOT EXISTS collection_points (
		point_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		zone TEXT NOT NULL DEFAULT '',
		area TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		container_size DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_service_at TIMESTAMPTZ
	);
	`

	createHistoryQuery := `
	CREATE TABLE IF NOT EXISTS service_history (
		point_id TEXT NOT NULL REFERENCES collection_points(point_id) ON DELETE CASCADE,
		collected_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (point_id, collected_at)
	);
	`

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		vehicle_id TEXT PRIMARY KEY,
		capacity INTEGER NOT NULL CHECK (capacity >= 0),
		zone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active'
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (origin, destination)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination, origin);
	`

	statements := []string{
		createPointsQuery,
		createHistoryQuery,
		createVehiclesQuery,
		createDistanceCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type PointSeed struct {
	PointID        string      `json:"point_id"`
	Name           string      `json:"name"`
	Category       string      `json:"category"`
	Zone           string      `json:"zone"`
	Area           string      `json:"area"`
	Lat            float64     `json:"lat"`
	Lon            float64     `json:"lon"`
	ContainerSize  float64     `json:"container_size"`
	LastServiceAt  *time.Time  `json:"last_service_at"`
	ServiceHistory []time.Time `json:"service_history"`
}

type VehicleSeed struct {
	VehicleID string `json:"vehicle_id"`
	Capacity  int    `json:"capacity"`
	Zone      string `json:"zone"`
	Status    string `json:"status"`
}

type Seed struct {
	Points   []PointSeed   `json:"points"`
	Vehicles []VehicleSeed `json:"vehicles"`
}

// ReadSeed parses and checks a seed file without touching any storage.
func ReadSeed(jsonPath string) (Seed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return Seed{}, fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return Seed{}, fmt.Errorf("seed: parse json: %w", err)
	}

	for i, p := range data.Points {
		if strings.TrimSpace(p.PointID) == "" {
			return Seed{}, fmt.Errorf("seed: point at index %d: point_id cannot be empty", i+1)
		}
	}
	for i, v := range data.Vehicles {
		if strings.TrimSpace(v.VehicleID) == "" {
			return Seed{}, fmt.Errorf("seed: vehicle at index %d: vehicle_id cannot be empty", i+1)
		}
		if v.Capacity < 0 {
			return Seed{}, fmt.Errorf("seed: vehicle %q: negative capacity", v.VehicleID)
		}
	}

	return data, nil
}

// Populate the database with points and vehicles from a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	data, err := ReadSeed(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range data.Points {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO collection_points (point_id, name, category, zone, area, lat, lon, container_size, last_service_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (point_id) DO UPDATE
		SET name = EXCLUDED.name,
			category = EXCLUDED.category,
			zone = EXCLUDED.zone,
			area = EXCLUDED.area,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			container_size = EXCLUDED.container_size,
			last_service_at = EXCLUDED.last_service_at;
		`, p.PointID, p.Name, p.Category, p.Zone, p.Area, p.Lat, p.Lon, p.ContainerSize, p.LastServiceAt)
		if err != nil {
			return fmt.Errorf("seed: insert point_id=%s: %w", p.PointID, err)
		}

		for _, at := range p.ServiceHistory {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO service_history (point_id, collected_at)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING;
			`, p.PointID, at); err != nil {
				return fmt.Errorf("seed: insert history point_id=%s: %w", p.PointID, err)
			}
		}
	}

	for _, v := range data.Vehicles {
		status := v.Status
		if status == "" {
			status = "active"
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO vehicles (vehicle_id, capacity, zone, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vehicle_id) DO UPDATE
		SET capacity = EXCLUDED.capacity,
			zone = EXCLUDED.zone,
			status = EXCLUDED.status;
		`, v.VehicleID, v.Capacity, v.Zone, status); err != nil {
			return fmt.Errorf("seed: insert vehicle_id=%s: %w", v.VehicleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
)

// Postgres-backed implementation of the PointRepository port.
type PostgresPointRepository struct{ DB *sql.DB }

func NewPostgresPointRepository(db *sql.DB) *PostgresPointRepository {
	return &PostgresPointRepository{DB: db}
}

// Return all collection records with their service history.
func (s *PostgresPointRepository) ListRecords(ctx context.Context) (_ []domain.CollectionRecord, err error) {
	defer obs.Time(ctx, "repo.ListRecords")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres point repository: DB is nil")
	}

	query := `
	SELECT
		point_id, name, category, zone, area, lat, lon, container_size, last_service_at
	FROM collection_points
	ORDER BY point_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list records: query collection_points table: %w", err)
	}
	defer rows.Close()

	records := make([]domain.CollectionRecord, 0, 64)
	index := make(map[string]int)
	for rows.Next() {
		var r domain.CollectionRecord
		var last sql.NullTime
		err := rows.Scan(
			&r.ID, &r.Name, &r.Category, &r.Zone, &r.Area,
			&r.Location.Lat, &r.Location.Lon, &r.ContainerSize, &last,
		)
		if err != nil {
			return nil, fmt.Errorf("list records: scan row: %w", err)
		}
		if last.Valid {
			t := last.Time
			r.LastServiceAt = &t
		}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: row iteration: %w", err)
	}

	hist, err := s.DB.QueryContext(ctx, `
	SELECT point_id, collected_at
	FROM service_history
	ORDER BY point_id, collected_at;
	`)
	if err != nil {
		return nil, fmt.Errorf("list records: query service_history table: %w", err)
	}
	defer hist.Close()

	for hist.Next() {
		var id string
		var at time.Time
		if err := hist.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("list records: scan history row: %w", err)
		}
		if i, ok := index[id]; ok {
			records[i].ServiceHistory = append(records[i].ServiceHistory, at)
		}
	}
	if err := hist.Err(); err != nil {
		return nil, fmt.Errorf("list records: history iteration: %w", err)
	}

	return records, nil
}

// Return the fleet ordered by vehicle id.
func (s *PostgresPointRepository) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	if s.DB == nil {
		return nil, errors.New("postgres point repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT vehicle_id, capacity, zone, status
	FROM vehicles
	ORDER BY vehicle_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0, 16)
	for rows.Next() {
		var v domain.Vehicle
		var status string
		if err := rows.Scan(&v.VehicleID, &v.Capacity, &v.Zone, &status); err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		v.Status = domain.VehicleStatus(status)
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}

	return vehicles, nil
}

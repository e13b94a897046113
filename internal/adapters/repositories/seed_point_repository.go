package repositories

import (
	"context"
	"slices"

	"collection-route-service/internal/domain"
)

// SeedPointRepository serves points and vehicles from a seed file held in
// memory. It backs the service when no database is configured.
type SeedPointRepository struct {
	records  []domain.CollectionRecord
	vehicles []domain.Vehicle
}

func NewSeedPointRepository(jsonPath string) (*SeedPointRepository, error) {
	data, err := ReadSeed(jsonPath)
	if err != nil {
		return nil, err
	}

	repo := &SeedPointRepository{
		records:  make([]domain.CollectionRecord, 0, len(data.Points)),
		vehicles: make([]domain.Vehicle, 0, len(data.Vehicles)),
	}
	for _, p := range data.Points {
		repo.records = append(repo.records, domain.CollectionRecord{
			ID:             p.PointID,
			Name:           p.Name,
			Category:       p.Category,
			Zone:           p.Zone,
			Area:           p.Area,
			Location:       domain.Coordinates{Lat: p.Lat, Lon: p.Lon},
			ContainerSize:  p.ContainerSize,
			LastServiceAt:  p.LastServiceAt,
			ServiceHistory: p.ServiceHistory,
		})
	}
	for _, v := range data.Vehicles {
		repo.vehicles = append(repo.vehicles, domain.Vehicle{
			VehicleID: v.VehicleID,
			Capacity:  v.Capacity,
			Zone:      v.Zone,
			Status:    domain.VehicleStatus(v.Status),
		})
	}

	return repo, nil
}

// ListRecords returns a copy so callers cannot alter the loaded seed.
func (s *SeedPointRepository) ListRecords(ctx context.Context) ([]domain.CollectionRecord, error) {
	return slices.Clone(s.records), nil
}

func (s *SeedPointRepository) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return slices.Clone(s.vehicles), nil
}

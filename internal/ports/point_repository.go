package ports

import (
	"context"

	"collection-route-service/internal/domain"
)

// Port: a boundary for retrieving pending collection records and the fleet.
type PointRepository interface {
	ListRecords(ctx context.Context) ([]domain.CollectionRecord, error)
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
}

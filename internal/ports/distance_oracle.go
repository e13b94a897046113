package ports

import (
	"context"

	"collection-route-service/internal/domain"
)

// DistanceOracle is the failure-absorbing distance surface used by the
// routing core. Distance methods always return a value; only trip planning
// reports errors.
type DistanceOracle interface {
	TripPlanner
	Distance(ctx context.Context, a, b domain.Coordinates) float64
	RouteDistance(ctx context.Context, coords []domain.Coordinates) float64
	TravelHours(km float64, stops int) float64
}

package ports

import (
	"context"

	"collection-route-service/internal/domain"
)

// TripPlanner orders unordered waypoints between a fixed source and destination.
type TripPlanner interface {
	// PlanTrip returns waypoint indices in visiting order.
	PlanTrip(ctx context.Context, source, destination domain.Coordinates, waypoints []domain.Coordinates) ([]int, error)
}

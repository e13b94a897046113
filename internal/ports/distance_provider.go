package ports

import (
	"context"

	"collection-route-service/internal/domain"
)

// Driving distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for retrieving travel distance and duration between coordinates.
type DistanceProvider interface {
	// Return travel distance and estimated duration between two locations.
	GetDistance(ctx context.Context, origin, destination domain.Coordinates) (DistanceResult, error)
}

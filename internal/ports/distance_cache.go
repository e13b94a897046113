package ports

import "context"

// DistanceCache stores origin->destination results keyed by Coordinates.Key().
type DistanceCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
	PutMany(ctx context.Context, origin string, results map[string]DistanceResult) error
}

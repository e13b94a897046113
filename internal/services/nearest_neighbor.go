package services

import (
	"math"

	"collection-route-service/internal/domain"
)

// NearestNeighborOrder orders stops with a greedy nearest-neighbor walk on
// great-circle distance.
//
// With no depot the walk starts at stops[0]; with a depot it starts from the
// depot and picks the closest stop first. Ties go to the lower index so the
// result is deterministic. It does not attempt global optimization.
func NearestNeighborOrder(stops []domain.Coordinates, depot *domain.Coordinates) []int {
	n := len(stops)
	order := make([]int, 0, n)
	if n == 0 {
		return order
	}

	visited := make([]bool, n)
	var current domain.Coordinates
	if depot != nil {
		current = *depot
	} else {
		order = append(order, 0)
		visited[0] = true
		current = stops[0]
	}

	for len(order) < n {
		best := -1
		bestDist := math.Inf(1)

		// Select next stop by minimum distance (greedy step).
		for i, s := range stops {
			if visited[i] {
				continue
			}
			if d := domain.HaversineKm(current, s); d < bestDist {
				best, bestDist = i, d
			}
		}

		visited[best] = true
		order = append(order, best)
		current = stops[best]
	}

	return order
}

package distance

import (
	"context"
	"fmt"
	"math"

	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
}

// Unroutable pairs come back as null cells.
type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// fetchMatrixRow asks the matrix endpoint for the single row origin -> dests.
// Location 0 is the origin; destination i sits at location i+1.
func (o *ORSDistanceProvider) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	dests []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	if len(dests) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	req := matrixRequest{
		Locations:    make([][]float64, 0, len(dests)+1),
		Sources:      []int{0},
		Destinations: make([]int, 0, len(dests)),
		Metrics:      []string{"distance", "duration"},
	}
	req.Locations = append(req.Locations, origin.CoordsToList())
	for i, d := range dests {
		req.Locations = append(req.Locations, d.CoordsToList())
		req.Destinations = append(req.Destinations, i+1)
	}

	var resp matrixResponse
	if err := o.postJSON(ctx, "/v2/matrix/"+o.profile, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Distances) != 1 || len(resp.Durations) != 1 {
		return nil, fmt.Errorf("matrix: want 1 source row, got distances=%d durations=%d",
			len(resp.Distances), len(resp.Durations))
	}
	meters, seconds := resp.Distances[0], resp.Durations[0]
	if len(meters) != len(dests) || len(seconds) != len(dests) {
		return nil, fmt.Errorf("matrix: row has distances=%d durations=%d for %d destinations",
			len(meters), len(seconds), len(dests))
	}

	row := make(map[string]ports.DistanceResult, len(dests))
	for i, d := range dests {
		m, s := meters[i], seconds[i]
		switch {
		case m == nil || s == nil:
			return nil, fmt.Errorf("matrix: %s is unroutable", d.Key())
		case *m < 0 || math.IsNaN(*m) || *s < 0 || math.IsNaN(*s):
			return nil, fmt.Errorf("matrix: bad metrics for %s", d.Key())
		}
		row[d.Key()] = ports.DistanceResult{
			DistanceMeters:  int(math.Round(*m)),
			DurationSeconds: int(math.Round(*s)),
		}
	}
	return row, nil
}

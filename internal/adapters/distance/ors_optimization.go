package distance

import (
	"context"
	"errors"
	"fmt"

	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
)

type optimizationJob struct {
	ID       int       `json:"id"`
	Location []float64 `json:"location"`
}

type optimizationVehicle struct {
	ID      int       `json:"id"`
	Profile string    `json:"profile"`
	Start   []float64 `json:"start"`
	End     []float64 `json:"end"`
}

type optimizationRequest struct {
	Jobs     []optimizationJob     `json:"jobs"`
	Vehicles []optimizationVehicle `json:"vehicles"`
}

type optimizationResponse struct {
	Code   int `json:"code"`
	Routes []struct {
		Steps []struct {
			Type string `json:"type"`
			ID   *int   `json:"id"`
			Job  *int   `json:"job"`
		} `json:"steps"`
	} `json:"routes"`
	Unassigned []struct {
		ID int `json:"id"`
	} `json:"unassigned"`
}

// PlanTrip asks the ORS optimization endpoint for a visiting order of the
// waypoints on a single-vehicle trip from source to destination.
func (o *ORSDistanceProvider) PlanTrip(
	ctx context.Context,
	source domain.Coordinates,
	destination domain.Coordinates,
	waypoints []domain.Coordinates,
) (_ []int, err error) {
	defer obs.Time(ctx, "ors.PlanTrip")(&err)

	if len(waypoints) == 0 {
		return []int{}, nil
	}

	jobs := make([]optimizationJob, 0, len(waypoints))
	for i, w := range waypoints {
		// Job ids are 1-based; 0 is rejected by the solver.
		jobs = append(jobs, optimizationJob{ID: i + 1, Location: w.CoordsToList()})
	}

	req := optimizationRequest{
		Jobs: jobs,
		Vehicles: []optimizationVehicle{{
			ID:      1,
			Profile: o.profile,
			Start:   source.CoordsToList(),
			End:     destination.CoordsToList(),
		}},
	}

	var decoded optimizationResponse
	if err := o.postJSON(ctx, "/optimization", req, &decoded); err != nil {
		return nil, err
	}

	if decoded.Code != 0 {
		return nil, fmt.Errorf("optimization returned code %d", decoded.Code)
	}
	if len(decoded.Unassigned) > 0 {
		return nil, fmt.Errorf("optimization left %d waypoints unassigned", len(decoded.Unassigned))
	}
	if len(decoded.Routes) != 1 {
		return nil, fmt.Errorf("expected 1 route; got %d", len(decoded.Routes))
	}

	order := make([]int, 0, len(waypoints))
	for _, s := range decoded.Routes[0].Steps {
		if s.Type != "job" {
			continue
		}
		id := s.ID
		if id == nil {
			id = s.Job
		}
		if id == nil {
			return nil, errors.New("optimization job step has no id")
		}
		order = append(order, *id-1)
	}

	if !isPermutation(order, len(waypoints)) {
		return nil, fmt.Errorf("optimization order %v is not a permutation of %d waypoints", order, len(waypoints))
	}

	return order, nil
}

// isPermutation reports whether order contains each of 0..n-1 exactly once.
func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, i := range order {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

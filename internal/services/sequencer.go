package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"

	"github.com/rs/zerolog"
)

// SequenceStrategy proposes a visiting order for stops. The returned slice
// holds indices into stops. With a depot, the route is depot -> stops -> depot.
type SequenceStrategy interface {
	Name() string
	Attempt(ctx context.Context, stops []domain.Coordinates, depot *domain.Coordinates) ([]int, error)
}

const (
	StrategyTrip            = "oracle_trip"
	StrategyNearestNeighbor = "nearest_neighbor"
	StrategyIdentity        = "identity"
)

var ErrNoStrategySucceeded = errors.New("no sequencing strategy succeeded")

// TripStrategy adopts the trip order proposed by the distance oracle. Without
// a depot the first stop is the source and the last stop the destination.
type TripStrategy struct {
	Planner ports.TripPlanner
}

func (TripStrategy) Name() string { return StrategyTrip }

func (s TripStrategy) Attempt(ctx context.Context, stops []domain.Coordinates, depot *domain.Coordinates) ([]int, error) {
	n := len(stops)
	if depot != nil {
		if n == 0 {
			return []int{}, nil
		}
		return s.Planner.PlanTrip(ctx, *depot, *depot, stops)
	}

	if n <= 2 {
		return identityOrder(n), nil
	}

	wp, err := s.Planner.PlanTrip(ctx, stops[0], stops[n-1], stops[1:n-1])
	if err != nil {
		return nil, err
	}
	if !isPermutation(wp, n-2) {
		return nil, fmt.Errorf("trip planner returned invalid waypoint order %v", wp)
	}

	order := make([]int, 0, n)
	order = append(order, 0)
	for _, i := range wp {
		order = append(order, i+1)
	}
	return append(order, n-1), nil
}

// NearestNeighborStrategy is the local fallback. TwoOpt enables a 2-opt
// pass over the greedy order.
type NearestNeighborStrategy struct {
	TwoOpt     bool
	Iterations int
}

func (NearestNeighborStrategy) Name() string { return StrategyNearestNeighbor }

func (s NearestNeighborStrategy) Attempt(ctx context.Context, stops []domain.Coordinates, depot *domain.Coordinates) ([]int, error) {
	order := NearestNeighborOrder(stops, depot)
	if !s.TwoOpt || len(order) < 3 {
		return order, nil
	}

	if depot == nil {
		return Improve2Opt(stops, order, s.Iterations), nil
	}

	// Pin the depot at both ends so 2-opt only reorders the stops.
	nodes := make([]domain.Coordinates, 0, len(stops)+1)
	nodes = append(nodes, stops...)
	nodes = append(nodes, *depot)
	d := len(stops)

	path := make([]int, 0, len(order)+2)
	path = append(path, d)
	path = append(path, order...)
	path = append(path, d)

	improved := Improve2Opt(nodes, path, s.Iterations)
	return improved[1 : len(improved)-1], nil
}

// IdentityStrategy keeps the input order and never fails.
type IdentityStrategy struct{}

func (IdentityStrategy) Name() string { return StrategyIdentity }

func (IdentityStrategy) Attempt(ctx context.Context, stops []domain.Coordinates, depot *domain.Coordinates) ([]int, error) {
	return identityOrder(len(stops)), nil
}

// Sequencer tries its strategies in order and adopts the first valid
// permutation.
type Sequencer struct {
	Strategies []SequenceStrategy
}

// NewSequencer builds the default chain: oracle trip, nearest neighbor,
// identity. A nil planner drops the oracle step.
func NewSequencer(planner ports.TripPlanner, twoOpt bool) *Sequencer {
	var chain []SequenceStrategy
	if planner != nil {
		chain = append(chain, TripStrategy{Planner: planner})
	}
	chain = append(chain,
		NearestNeighborStrategy{TwoOpt: twoOpt, Iterations: 10},
		IdentityStrategy{},
	)
	return &Sequencer{Strategies: chain}
}

// Sequence returns a reordered private copy of points and the name of the
// strategy that produced it. The caller's slice is never modified.
func (s *Sequencer) Sequence(ctx context.Context, points []domain.CollectionPoint, depot *domain.Coordinates) ([]domain.CollectionPoint, string, error) {
	own := slices.Clone(points)
	if len(own) == 0 {
		return own, StrategyIdentity, nil
	}

	stops := make([]domain.Coordinates, len(own))
	for i, p := range own {
		stops[i] = p.Location
	}

	logger := zerolog.Ctx(ctx)
	for _, strat := range s.Strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		order, err := strat.Attempt(ctx, stops, depot)
		if err != nil {
			logger.Debug().Err(err).Str("strategy", strat.Name()).Int("stops", len(stops)).Msg("sequencing strategy failed")
			continue
		}
		if !isPermutation(order, len(own)) {
			logger.Debug().Str("strategy", strat.Name()).Ints("order", order).Msg("sequencing strategy returned a non-permutation")
			continue
		}

		out := make([]domain.CollectionPoint, len(own))
		for i, idx := range order {
			out[i] = own[idx]
		}
		return out, strat.Name(), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return nil, "", ErrNoStrategySucceeded
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

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

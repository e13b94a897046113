package distance

import (
	"context"
	"fmt"
	"time"

	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
)

type MockPair struct {
	From, To domain.Coordinates
	Meters   int
	Seconds  int
}

// MockDistanceProvider serves fixed pairs and can simulate a slow or broken
// oracle. It ignores context cancellation on purpose when Delay is set, so
// callers are exercised against a provider that does not return promptly.
type MockDistanceProvider struct {
	m     map[string]ports.DistanceResult
	Delay time.Duration
	Err   error

	// Order, when set, is returned from PlanTrip.
	Order []int
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[string]ports.DistanceResult, len(pairs))
	for _, p := range pairs {
		m[p.From.Key()+"|"+p.To.Key()] = ports.DistanceResult{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination domain.Coordinates) (ports.DistanceResult, error) {
	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}
	if p.Err != nil {
		return ports.DistanceResult{}, p.Err
	}

	r, ok := p.m[origin.Key()+"|"+destination.Key()]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %s -> %s", origin.Key(), destination.Key())
	}

	return r, nil
}

func (p *MockDistanceProvider) PlanTrip(ctx context.Context, source, destination domain.Coordinates, waypoints []domain.Coordinates) ([]int, error) {
	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Order == nil {
		return nil, fmt.Errorf("mock has no trip order")
	}
	return append([]int(nil), p.Order...), nil
}

package distance

import (
	"context"
	"errors"
	"time"

	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"

	"github.com/rs/zerolog"
)

const (
	DefaultAverageSpeedKmh  = 30.0
	DefaultStopServiceHours = 0.25
	DefaultOracleTimeout    = 3 * time.Second
)

var ErrNoTripPlanner = errors.New("no trip planner configured")

var _ ports.DistanceOracle = (*Client)(nil)

// Client is the distance oracle seen by the routing core. Every remote call,
// and every RouteDistance as a whole, is bounded by Timeout and falls back to Haversine on any failure; oracle
// errors never reach the caller of Distance, RouteDistance or RouteTime.
//
// Client is safe for concurrent use.
type Client struct {
	provider ports.DistanceProvider
	planner  ports.TripPlanner

	Timeout          time.Duration
	AverageSpeedKmh  float64
	StopServiceHours float64
}

// NewClient builds a client. provider and planner may be nil, in which case
// distances are purely local and PlanTrip always fails.
func NewClient(provider ports.DistanceProvider, planner ports.TripPlanner, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &Client{
		provider:         provider,
		planner:          planner,
		Timeout:          timeout,
		AverageSpeedKmh:  DefaultAverageSpeedKmh,
		StopServiceHours: DefaultStopServiceHours,
	}
}

// Distance returns the driving distance in km between a and b.
func (c *Client) Distance(ctx context.Context, a, b domain.Coordinates) float64 {
	km, _ := c.distance(ctx, a, b)
	return km
}

// distance reports whether the remote oracle answered.
func (c *Client) distance(ctx context.Context, a, b domain.Coordinates) (float64, bool) {
	if a == b {
		return 0, true
	}
	if c.provider == nil {
		return domain.HaversineKm(a, b), false
	}

	start := time.Now()
	r, err := bounded(ctx, c.Timeout, func(ctx context.Context) (ports.DistanceResult, error) {
		return c.provider.GetDistance(ctx, a, b)
	})
	obs.OracleLatency.WithLabelValues("distance").Observe(time.Since(start).Seconds())

	if err != nil {
		obs.OracleCalls.WithLabelValues("distance", outcome(err)).Inc()
		zerolog.Ctx(ctx).Debug().Err(err).Str("from", a.Key()).Str("to", b.Key()).Msg("oracle distance failed; using haversine")
		return domain.HaversineKm(a, b), false
	}
	if r.DistanceMeters < 0 {
		obs.OracleCalls.WithLabelValues("distance", "malformed").Inc()
		return domain.HaversineKm(a, b), false
	}

	obs.OracleCalls.WithLabelValues("distance", "ok").Inc()
	return float64(r.DistanceMeters) / 1000, true
}

// RouteDistance sums leg distances along coords. Timeout bounds the whole
// route, not each leg: legs left when it expires, and every leg after the
// first oracle failure, use Haversine directly.
func (c *Client) RouteDistance(ctx context.Context, coords []domain.Coordinates) float64 {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	total := 0.0
	remote := c.provider != nil
	for i := 1; i < len(coords); i++ {
		if !remote || ctx.Err() != nil {
			total += domain.HaversineKm(coords[i-1], coords[i])
			continue
		}
		km, ok := c.distance(ctx, coords[i-1], coords[i])
		remote = ok
		total += km
	}
	return total
}

// RouteTime returns hours: distance at average speed plus a fixed service
// time per stop.
func (c *Client) RouteTime(ctx context.Context, coords []domain.Coordinates, stops int) float64 {
	return c.TravelHours(c.RouteDistance(ctx, coords), stops)
}

func (c *Client) TravelHours(km float64, stops int) float64 {
	speed := c.AverageSpeedKmh
	if speed <= 0 {
		speed = DefaultAverageSpeedKmh
	}
	return km/speed + float64(stops)*c.StopServiceHours
}

// PlanTrip delegates to the trip planner under the oracle timeout. Unlike the
// distance methods it returns the error so the sequencer can move on to its
// next strategy.
func (c *Client) PlanTrip(ctx context.Context, source, destination domain.Coordinates, waypoints []domain.Coordinates) ([]int, error) {
	if c.planner == nil {
		return nil, ErrNoTripPlanner
	}

	start := time.Now()
	order, err := bounded(ctx, c.Timeout, func(ctx context.Context) ([]int, error) {
		return c.planner.PlanTrip(ctx, source, destination, waypoints)
	})
	obs.OracleLatency.WithLabelValues("trip").Observe(time.Since(start).Seconds())

	if err != nil {
		obs.OracleCalls.WithLabelValues("trip", outcome(err)).Inc()
		return nil, err
	}
	obs.OracleCalls.WithLabelValues("trip", "ok").Inc()
	return order, nil
}

// bounded runs fn under a timeout and returns as soon as the deadline passes
// or the parent is cancelled, without waiting for fn to observe it.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}

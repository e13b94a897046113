package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"collection-route-service/internal/config"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var routeColors = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#42d4f4", "#f032e6", "#bfef45", "#469990", "#9a6324",
}

type OptimizeOptions struct {
	// VehicleCapacity overrides the fleet capacity when > 0; otherwise the
	// smallest capacity among staffed vehicles is used.
	VehicleCapacity int
	// VehicleCount caps the number of vehicles used when > 0.
	VehicleCount      int
	MaxPointsPerRoute int
	MaxRouteKm        float64
	MaxRouteHours     float64
	PrioritizeUrgent  bool
	Depot             *domain.Coordinates
	// ReferenceDate is "today" for overdue calculations; zero means now.
	ReferenceDate time.Time
}

type OptimizeRequest struct {
	Records  []domain.CollectionRecord
	Vehicles []domain.Vehicle
	Options  OptimizeOptions
}

// RunContext carries per-invocation state. Nothing survives between runs.
type RunContext struct {
	RunID     string
	Reference time.Time
	Logger    zerolog.Logger
}

// Optimizer is the stateless routing pipeline:
// records -> enriched points -> clusters -> sequenced routes -> ranked routes.
type Optimizer struct {
	Predictor  *Predictor
	Classifier *Classifier
	Sequencer  *Sequencer
	Oracle     ports.DistanceOracle
	Scorer     Scorer
	// Workers bounds concurrent cluster sequencing.
	Workers int
}

func NewOptimizer(profiles config.Profiles, cutoff time.Time, oracle ports.DistanceOracle, twoOpt bool, workers int) *Optimizer {
	var planner ports.TripPlanner
	if oracle != nil {
		planner = oracle
	}
	return &Optimizer{
		Predictor:  NewPredictor(profiles, cutoff),
		Classifier: NewClassifier(profiles),
		Sequencer:  NewSequencer(planner, twoOpt),
		Oracle:     oracle,
		Scorer:     NewScorer(),
		Workers:    workers,
	}
}

// EnrichRecords runs prediction and classification only.
func (o *Optimizer) EnrichRecords(records []domain.CollectionRecord, reference time.Time) (valid, invalid []domain.CollectionPoint) {
	if reference.IsZero() {
		reference = time.Now().UTC()
	}
	return Enrich(o.Predictor, o.Classifier, records, reference)
}

// Optimize produces ranked routes. Degenerate input (no records, no usable
// vehicles, no capacity) yields a plan with no routes and a nil error. The
// only error returned is the caller's context error on cancellation.
func (o *Optimizer) Optimize(ctx context.Context, req OptimizeRequest) (_ *domain.Plan, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "canceled"
		}
		obs.OptimizeRuns.WithLabelValues(outcome).Inc()
	}()

	run := o.newRun(ctx, req.Options)
	ctx = run.Logger.WithContext(ctx)

	plan := &domain.Plan{
		RunID:       run.RunID,
		GeneratedAt: time.Now().UTC(),
		Routes:      []domain.Route{},
		Unassigned:  []domain.UnassignedPoint{},
	}

	points, invalid := Enrich(o.Predictor, o.Classifier, req.Records, run.Reference)
	for _, p := range invalid {
		plan.Unassigned = append(plan.Unassigned, domain.UnassignedPoint{Point: p, Reason: domain.ReasonInvalid})
	}

	vehicles, capacity := staffing(req.Vehicles, req.Options)
	if len(points) == 0 || len(vehicles) == 0 || capacity <= 0 {
		for _, p := range points {
			plan.Unassigned = append(plan.Unassigned, domain.UnassignedPoint{Point: p, Reason: domain.ReasonNoVehicle})
		}
		run.Logger.Info().
			Int("points", len(points)).
			Int("vehicles", len(vehicles)).
			Int("capacity", capacity).
			Msg("nothing to route")
		return plan, nil
	}

	clusters := ClusterPoints(points, ClusterOptions{
		VehicleCount:     len(vehicles),
		Capacity:         capacity,
		MaxPoints:        req.Options.MaxPointsPerRoute,
		PrioritizeUrgent: req.Options.PrioritizeUrgent,
	})

	staffed, idle := staffClusters(clusters, len(vehicles), req.Options.PrioritizeUrgent)
	for _, c := range idle {
		reason := domain.ReasonNoVehicle
		if c.OverCapacity {
			reason = domain.ReasonOverCapacity
		}
		for _, p := range c.Points {
			plan.Unassigned = append(plan.Unassigned, domain.UnassignedPoint{Point: p, Reason: reason})
		}
	}

	routes, err := o.sequenceAll(ctx, run, staffed, vehicles, req.Options)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	o.Scorer.Rank(routes)
	for i := range routes {
		routes[i].Color = routeColors[i%len(routeColors)]
	}
	plan.Routes = routes

	run.Logger.Info().
		Int("points", len(points)).
		Int("clusters", len(clusters)).
		Int("routes", len(routes)).
		Int("unassigned", len(plan.Unassigned)).
		Msg("optimization complete")

	return plan, nil
}

func (o *Optimizer) newRun(ctx context.Context, opts OptimizeOptions) RunContext {
	ref := opts.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	id := uuid.NewString()

	reqID, _ := ctx.Value(obs.RequestIDKey).(string)
	logger := zerolog.Ctx(ctx).With().Str("run_id", id).Str("req_id", reqID).Logger()

	return RunContext{RunID: id, Reference: ref, Logger: logger}
}

// staffing picks the usable vehicles and the uniform cluster capacity.
// With no vehicle records but a VehicleCount and VehicleCapacity, a
// synthetic fleet is created.
func staffing(fleet []domain.Vehicle, opts OptimizeOptions) ([]domain.Vehicle, int) {
	available := make([]domain.Vehicle, 0, len(fleet))
	for _, v := range fleet {
		if v.Available() {
			available = append(available, v)
		}
	}

	if len(fleet) == 0 && opts.VehicleCount > 0 && opts.VehicleCapacity > 0 {
		for i := 1; i <= opts.VehicleCount; i++ {
			available = append(available, domain.Vehicle{
				VehicleID: fmt.Sprintf("vehicle-%d", i),
				Capacity:  opts.VehicleCapacity,
				Status:    domain.VehicleActive,
			})
		}
	}

	if opts.VehicleCount > 0 && len(available) > opts.VehicleCount {
		available = available[:opts.VehicleCount]
	}

	if opts.VehicleCapacity > 0 {
		return available, opts.VehicleCapacity
	}

	capacity := 0
	for i, v := range available {
		if i == 0 || v.Capacity < capacity {
			capacity = v.Capacity
		}
	}
	return available, capacity
}

// sequenceAll fans out one task per cluster. Each task owns a copy of its
// cluster's points and writes only its own slot in routes.
// staffClusters picks the clusters that get one of the k vehicles. With
// prioritizeUrgent the clusters holding the most urgent points win, so a
// flagged over-capacity cluster outranks regular clusters of lower priority.
// Ties and the non-urgent mode keep cluster order. Staffed clusters stay in
// cluster order.
func staffClusters(clusters []domain.Cluster, k int, prioritizeUrgent bool) (staffed, idle []domain.Cluster) {
	if len(clusters) <= k {
		return clusters, nil
	}

	order := make([]int, len(clusters))
	for i := range order {
		order[i] = i
	}
	if prioritizeUrgent {
		sort.SliceStable(order, func(a, b int) bool {
			return clusters[order[a]].TopPriority() > clusters[order[b]].TopPriority()
		})
	}

	chosen := make([]bool, len(clusters))
	for _, i := range order[:k] {
		chosen[i] = true
	}
	for i, c := range clusters {
		if chosen[i] {
			staffed = append(staffed, c)
		} else {
			idle = append(idle, c)
		}
	}
	return staffed, idle
}

func (o *Optimizer) sequenceAll(
	ctx context.Context,
	run RunContext,
	clusters []domain.Cluster,
	vehicles []domain.Vehicle,
	opts OptimizeOptions,
) ([]domain.Route, error) {
	routes := make([]domain.Route, len(clusters))

	g, gctx := errgroup.WithContext(ctx)
	if o.Workers > 0 {
		g.SetLimit(o.Workers)
	}

	for i := range clusters {
		cluster := clusters[i]
		vehicle := vehicles[i]
		g.Go(func() error {
			route, err := o.buildRoute(gctx, cluster, vehicle, opts)
			if err != nil {
				return fmt.Errorf("sequence cluster %d for vehicle %s: %w", i, vehicle.VehicleID, err)
			}
			routes[i] = route
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run.Logger.Debug().Int("routes", len(routes)).Msg("sequencing complete")
	return routes, nil
}

func (o *Optimizer) buildRoute(ctx context.Context, cluster domain.Cluster, vehicle domain.Vehicle, opts OptimizeOptions) (domain.Route, error) {
	ordered, strategy, err := o.Sequencer.Sequence(ctx, cluster.Points, opts.Depot)
	if err != nil {
		return domain.Route{}, err
	}
	obs.SequenceStrategy.WithLabelValues(strategy).Inc()

	path := make([]domain.Coordinates, 0, len(ordered)+2)
	if opts.Depot != nil {
		path = append(path, *opts.Depot)
	}
	for _, p := range ordered {
		path = append(path, p.Location)
	}
	if opts.Depot != nil {
		path = append(path, *opts.Depot)
	}

	var km, hours float64
	if o.Oracle != nil {
		km = o.Oracle.RouteDistance(ctx, path)
		hours = o.Oracle.TravelHours(km, len(ordered))
	} else {
		km = domain.PathKm(path)
		hours = km/30 + float64(len(ordered))*0.25
	}

	route := domain.Route{
		VehicleID:     vehicle.VehicleID,
		Stops:         ordered,
		DistanceKm:    km,
		DurationHours: hours,
		Volume:        cluster.Volume,
		DominantZone:  domain.DominantZone(ordered),
		Strategy:      strategy,
		OverCapacity:  cluster.OverCapacity,
	}
	route.ExceedsLimits = (opts.MaxRouteKm > 0 && km > opts.MaxRouteKm) ||
		(opts.MaxRouteHours > 0 && hours > opts.MaxRouteHours)

	return route, nil
}

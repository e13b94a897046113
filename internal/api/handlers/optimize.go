package handlers

import (
	"context"
	"errors"
	"net/http"

	"collection-route-service/internal/api/dto"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
	"collection-route-service/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type OptimizeHandler struct {
	Repo      ports.PointRepository
	Optimizer *services.Optimizer
	Validator *validator.Validate
	// Defaults are the server-configured options; request fields override them.
	Defaults services.OptimizeOptions
}

// Optimize runs the routing pipeline over the stored points (or the points
// supplied inline) and returns ranked routes plus unassigned points.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req dto.OptimizeRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	opts, err := h.options(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	records, vehicles, err := h.inputs(ctx, req)
	if err != nil {
		if errors.Is(err, errNoSource) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error().Err(err).Msg("load optimization inputs failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	plan, err := h.Optimizer.Optimize(ctx, services.OptimizeRequest{
		Records:  records,
		Vehicles: vehicles,
		Options:  opts,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, r, http.StatusGatewayTimeout, "optimization timed out")
			return
		}
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("optimization canceled by client")
			return
		}
		logger.Error().Err(err).Msg("optimize failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toOptimizeResponse(plan))
}

var errNoSource = errors.New("no points supplied and no point repository configured")

func (h *OptimizeHandler) options(req dto.OptimizeRequest) (services.OptimizeOptions, error) {
	opts := h.Defaults

	if req.VehicleCapacity != nil {
		opts.VehicleCapacity = *req.VehicleCapacity
	}
	if req.VehicleCount != nil {
		opts.VehicleCount = *req.VehicleCount
	}
	if req.MaxPointsPerRoute != nil {
		opts.MaxPointsPerRoute = *req.MaxPointsPerRoute
	}
	if req.MaxRouteKm != nil {
		opts.MaxRouteKm = *req.MaxRouteKm
	}
	if req.MaxRouteHours != nil {
		opts.MaxRouteHours = *req.MaxRouteHours
	}
	if req.PrioritizeUrgent != nil {
		opts.PrioritizeUrgent = *req.PrioritizeUrgent
	}
	if req.Depot != nil {
		opts.Depot = &domain.Coordinates{Lat: req.Depot.Lat, Lon: req.Depot.Lon}
	}
	if req.UseDepot != nil && !*req.UseDepot {
		opts.Depot = nil
	}
	if req.UseDepot != nil && *req.UseDepot && opts.Depot == nil {
		return opts, errors.New("use_depot requires a depot")
	}

	if req.ReferenceDate != "" {
		ref, err := referenceDate(req.ReferenceDate)
		if err != nil {
			return opts, errors.New("reference_date must be YYYY-MM-DD")
		}
		opts.ReferenceDate = ref
	}

	return opts, nil
}

// inputs prefers request-supplied points and vehicles, falling back to the
// repository for whichever is missing.
func (h *OptimizeHandler) inputs(ctx context.Context, req dto.OptimizeRequest) ([]domain.CollectionRecord, []domain.Vehicle, error) {
	var records []domain.CollectionRecord
	switch {
	case len(req.Points) > 0:
		records = make([]domain.CollectionRecord, 0, len(req.Points))
		for _, p := range req.Points {
			records = append(records, domain.CollectionRecord{
				ID:             p.ID,
				Name:           p.Name,
				Category:       p.Category,
				Zone:           p.Zone,
				Area:           p.Area,
				Location:       domain.Coordinates{Lat: p.Lat, Lon: p.Lon},
				ContainerSize:  p.ContainerSize,
				LastServiceAt:  p.LastServiceAt,
				ServiceHistory: p.ServiceHistory,
			})
		}
	case h.Repo != nil:
		var err error
		records, err = h.Repo.ListRecords(ctx)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errNoSource
	}

	var vehicles []domain.Vehicle
	switch {
	case len(req.Vehicles) > 0:
		vehicles = make([]domain.Vehicle, 0, len(req.Vehicles))
		for _, v := range req.Vehicles {
			vehicles = append(vehicles, domain.Vehicle{
				VehicleID: v.VehicleID,
				Capacity:  v.Capacity,
				Zone:      v.Zone,
				Status:    domain.VehicleStatus(v.Status),
			})
		}
	case h.Repo != nil:
		var err error
		vehicles, err = h.Repo.ListVehicles(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	return records, vehicles, nil
}

func toOptimizeResponse(plan *domain.Plan) dto.OptimizeResponse {
	res := dto.OptimizeResponse{
		RunID:       plan.RunID,
		GeneratedAt: plan.GeneratedAt,
		Routes:      make([]dto.RouteResponse, 0, len(plan.Routes)),
		Unassigned:  make([]dto.UnassignedResponse, 0, len(plan.Unassigned)),
	}

	for i, route := range plan.Routes {
		stops := make([]dto.RouteStopResponse, 0, len(route.Stops))
		for j, p := range route.Stops {
			stops = append(stops, dto.RouteStopResponse{
				Sequence:       j + 1,
				ID:             p.ID,
				Name:           p.Name,
				Category:       p.Category,
				Zone:           p.Zone,
				Area:           p.Area,
				Lat:            p.Location.Lat,
				Lon:            p.Location.Lon,
				ExpectedVolume: p.ExpectedVolume,
				DaysOverdue:    p.DaysOverdue,
				Priority:       p.Priority.String(),
				OverflowRisk:   p.OverflowRisk,
			})
		}

		res.Routes = append(res.Routes, dto.RouteResponse{
			Rank:            i + 1,
			VehicleID:       route.VehicleID,
			Color:           route.Color,
			DominantZone:    route.DominantZone,
			Strategy:        route.Strategy,
			DistanceKm:      route.DistanceKm,
			DurationHours:   route.DurationHours,
			Volume:          route.Volume,
			EfficiencyScore: route.EfficiencyScore,
			OverCapacity:    route.OverCapacity,
			ExceedsLimits:   route.ExceedsLimits,
			Stops:           stops,
		})

		res.Summary.Stops += len(route.Stops)
		res.Summary.TotalDistanceKm += route.DistanceKm
		res.Summary.TotalHours += route.DurationHours
		res.Summary.TotalVolume += route.Volume
	}

	for _, u := range plan.Unassigned {
		res.Unassigned = append(res.Unassigned, dto.UnassignedResponse{
			ID:       u.Point.ID,
			Zone:     u.Point.Zone,
			Priority: u.Point.Priority.String(),
			Reason:   string(u.Reason),
		})
	}

	res.Summary.Routes = len(res.Routes)
	res.Summary.Unassigned = len(res.Unassigned)
	return res
}

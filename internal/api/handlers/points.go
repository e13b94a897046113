package handlers

import (
	"net/http"
	"strings"
	"time"

	"collection-route-service/internal/api/dto"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
	"collection-route-service/internal/services"

	"github.com/rs/zerolog"
)

// PointHandler exposes the enriched view of stored collection points.
type PointHandler struct {
	Repo      ports.PointRepository
	Optimizer *services.Optimizer
}

// List returns stored points with predicted schedule and urgency.
// Optional query parameters: reference_date, zone, priority.
func (h *PointHandler) List(w http.ResponseWriter, r *http.Request) {
	points, invalid, ref, ok := h.enriched(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	zone := strings.TrimSpace(q.Get("zone"))
	var prio *domain.Priority
	if s := q.Get("priority"); s != "" {
		p, err := domain.ParsePriority(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "priority must be one of critical, high, medium, low")
			return
		}
		prio = &p
	}

	res := dto.ListPointsResponse{
		ReferenceDate: ref.Format(time.DateOnly),
		Invalid:       len(invalid),
		Points:        make([]dto.PointResponse, 0, len(points)),
	}
	for _, p := range points {
		if zone != "" && p.Zone != zone {
			continue
		}
		if prio != nil && p.Priority != *prio {
			continue
		}
		res.Points = append(res.Points, toPointResponse(p))
	}
	res.Count = len(res.Points)

	writeJSON(w, r, http.StatusOK, res)
}

// Delays aggregates risk levels over the stored points.
func (h *PointHandler) Delays(w http.ResponseWriter, r *http.Request) {
	points, _, ref, ok := h.enriched(w, r)
	if !ok {
		return
	}

	s := services.SummarizeDelays(points)

	res := dto.DelaysResponse{
		ReferenceDate:      ref.Format(time.DateOnly),
		TotalPoints:        len(points),
		RiskCounts:         make(map[string]int, len(s.RiskCounts)),
		DelayedCount:       s.DelayedCount,
		DelayRate:          s.DelayRate,
		AvgOverdueDays:     s.AvgOverdueDays,
		CriticalAlerts:     make([]dto.PointResponse, 0, len(s.CriticalAlerts)),
		ByZone:             toBuckets(s.ByZone),
		ByCategory:         toBuckets(s.ByCategory),
		HighRiskZones:      nonNil(s.HighRiskZones),
		HighRiskCategories: nonNil(s.HighRiskCategories),
	}
	for level, n := range s.RiskCounts {
		res.RiskCounts[string(level)] = n
	}
	for _, p := range s.CriticalAlerts {
		res.CriticalAlerts = append(res.CriticalAlerts, toPointResponse(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *PointHandler) enriched(w http.ResponseWriter, r *http.Request) (valid, invalid []domain.CollectionPoint, ref time.Time, ok bool) {
	if h.Repo == nil {
		writeError(w, r, http.StatusServiceUnavailable, "no point repository configured")
		return nil, nil, time.Time{}, false
	}

	ref, err := referenceDate(r.URL.Query().Get("reference_date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "reference_date must be YYYY-MM-DD")
		return nil, nil, time.Time{}, false
	}

	records, err := h.Repo.ListRecords(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list records failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return nil, nil, time.Time{}, false
	}

	valid, invalid = h.Optimizer.EnrichRecords(records, ref)
	return valid, invalid, ref, true
}

func toPointResponse(p domain.CollectionPoint) dto.PointResponse {
	return dto.PointResponse{
		ID:                p.ID,
		Name:              p.Name,
		Category:          p.Category,
		Zone:              p.Zone,
		Area:              p.Area,
		Lat:               p.Location.Lat,
		Lon:               p.Location.Lon,
		ContainerSize:     p.ContainerSize,
		LastServiceAt:     p.LastServiceAt,
		FrequencyDays:     p.FrequencyDays,
		NextServiceAt:     p.NextServiceAt,
		DaysOverdue:       p.DaysOverdue,
		ExpectedVolume:    p.ExpectedVolume,
		Priority:          p.Priority.String(),
		OverflowRisk:      p.OverflowRisk,
		RiskLevel:         string(p.RiskLevel),
		RecommendedAction: p.RecommendedAction,
	}
}

func toBuckets(in map[string]services.DelayBucket) map[string]dto.DelayBucket {
	out := make(map[string]dto.DelayBucket, len(in))
	for k, b := range in {
		out[k] = dto.DelayBucket{Critical: b.Critical, Warning: b.Warning, Total: b.Total}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package services

import (
	"sort"

	"collection-route-service/internal/domain"
)

// ScoreWeights is the tunable parameter set for route efficiency. The
// defaults reproduce the documented constants.
type ScoreWeights struct {
	VolumePerKm     float64
	StopsPerHour    float64
	ZoneConsistency float64
	Priority        map[domain.Priority]float64
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		VolumePerKm:     10,
		StopsPerHour:    5,
		ZoneConsistency: 20,
		Priority: map[domain.Priority]float64{
			domain.PriorityCritical: 15,
			domain.PriorityHigh:     10,
			domain.PriorityMedium:   5,
			domain.PriorityLow:      1,
		},
	}
}

type Scorer struct {
	Weights ScoreWeights
}

func NewScorer() Scorer { return Scorer{Weights: DefaultScoreWeights()} }

// Score = base + zone consistency bonus + priority bonus.
func (s Scorer) Score(r domain.Route) float64 {
	n := len(r.Stops)

	volumePerKm := 0.0
	if r.DistanceKm > 0 {
		volumePerKm = float64(r.Volume) / r.DistanceKm
	}
	stopsPerHour := 0.0
	if r.DurationHours > 0 {
		stopsPerHour = float64(n) / r.DurationHours
	}
	base := volumePerKm*s.Weights.VolumePerKm + stopsPerHour*s.Weights.StopsPerHour

	denom := n - 1
	if denom < 1 {
		denom = 1
	}
	zoneBonus := (1 - float64(r.ZoneTransitions())/float64(denom)) * s.Weights.ZoneConsistency

	priorityBonus := 0.0
	if n > 0 {
		sum := 0.0
		for i, p := range r.Stops {
			// Earlier positions weigh more, so urgent stops placed first score higher.
			position := float64(n-i) / float64(n)
			sum += position * s.Weights.Priority[p.Priority]
		}
		priorityBonus = sum / float64(n)
	}

	return base + zoneBonus + priorityBonus
}

// Rank scores every route and stable-sorts them by score, highest first.
func (s Scorer) Rank(routes []domain.Route) {
	for i := range routes {
		routes[i].EfficiencyScore = s.Score(routes[i])
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].EfficiencyScore > routes[j].EfficiencyScore
	})
}

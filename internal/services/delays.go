package services

import (
	"sort"

	"collection-route-service/internal/domain"
)

const (
	maxCriticalAlerts     = 10
	maxHighRiskZones      = 10
	maxHighRiskCategories = 5
)

type DelayBucket struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Total    int `json:"total"`
}

// DelaySummary aggregates risk levels for reporting consumers.
type DelaySummary struct {
	RiskCounts         map[domain.RiskLevel]int
	CriticalAlerts     []domain.CollectionPoint
	ByZone             map[string]DelayBucket
	ByCategory         map[string]DelayBucket
	HighRiskZones      []string
	HighRiskCategories []string
	DelayedCount       int
	DelayRate          float64
	AvgOverdueDays     float64
}

func SummarizeDelays(points []domain.CollectionPoint) DelaySummary {
	s := DelaySummary{
		RiskCounts: map[domain.RiskLevel]int{
			domain.RiskNormal:   0,
			domain.RiskUpcoming: 0,
			domain.RiskWarning:  0,
			domain.RiskCritical: 0,
		},
		ByZone:     map[string]DelayBucket{},
		ByCategory: map[string]DelayBucket{},
	}

	overdueSum, overdueN := 0, 0
	for _, p := range points {
		s.RiskCounts[p.RiskLevel]++

		s.ByZone[p.Zone] = addToBucket(s.ByZone[p.Zone], p.RiskLevel)
		s.ByCategory[p.Category] = addToBucket(s.ByCategory[p.Category], p.RiskLevel)

		if p.RiskLevel == domain.RiskCritical {
			s.CriticalAlerts = append(s.CriticalAlerts, p)
		}
		if p.DaysOverdue > 0 {
			overdueSum += p.DaysOverdue
			overdueN++
		}
	}

	sort.SliceStable(s.CriticalAlerts, func(i, j int) bool {
		a, b := s.CriticalAlerts[i], s.CriticalAlerts[j]
		if a.DaysOverdue != b.DaysOverdue {
			return a.DaysOverdue > b.DaysOverdue
		}
		return a.ID < b.ID
	})
	if len(s.CriticalAlerts) > maxCriticalAlerts {
		s.CriticalAlerts = s.CriticalAlerts[:maxCriticalAlerts]
	}

	s.HighRiskZones = topByCritical(s.ByZone, maxHighRiskZones)
	s.HighRiskCategories = topByCritical(s.ByCategory, maxHighRiskCategories)

	s.DelayedCount = s.RiskCounts[domain.RiskCritical] + s.RiskCounts[domain.RiskWarning]
	if len(points) > 0 {
		s.DelayRate = float64(s.DelayedCount) / float64(len(points))
	}
	if overdueN > 0 {
		s.AvgOverdueDays = float64(overdueSum) / float64(overdueN)
	}

	return s
}

func addToBucket(b DelayBucket, level domain.RiskLevel) DelayBucket {
	switch level {
	case domain.RiskCritical:
		b.Critical++
	case domain.RiskWarning:
		b.Warning++
	}
	b.Total++
	return b
}

func topByCritical(buckets map[string]DelayBucket, limit int) []string {
	keys := make([]string, 0, len(buckets))
	for k, b := range buckets {
		if b.Critical > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := buckets[keys[i]].Critical, buckets[keys[j]].Critical
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

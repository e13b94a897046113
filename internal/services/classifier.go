package services

import (
	"collection-route-service/internal/config"
	"collection-route-service/internal/domain"
)

type Classification struct {
	Priority          domain.Priority
	OverflowRisk      bool
	RecommendedAction string
}

type actionKey struct {
	priority domain.Priority
	overflow bool
}

var recommendedActions = map[actionKey]string{
	{domain.PriorityCritical, true}:  "Dispatch today: container is at overflow risk",
	{domain.PriorityCritical, false}: "Schedule collection today",
	{domain.PriorityHigh, true}:      "Collect within 24 hours and warn the site about overflow risk",
	{domain.PriorityHigh, false}:     "Collect within 24 hours",
	{domain.PriorityMedium, true}:    "Add to the next route and monitor fill level",
	{domain.PriorityMedium, false}:   "Add to the next scheduled route",
	{domain.PriorityLow, true}:       "Verify fill level on site; overflow risk despite low urgency",
	{domain.PriorityLow, false}:      "Keep regular schedule",
}

// Classifier maps days overdue to an urgency tier using per-class thresholds.
type Classifier struct {
	Profiles config.Profiles
}

func NewClassifier(profiles config.Profiles) *Classifier {
	return &Classifier{Profiles: profiles}
}

func (c *Classifier) Classify(daysOverdue int, category string, frequencyDays int, containerSize float64) Classification {
	_, prof := c.Profiles.ProfileFor(category)

	priority := PriorityFor(prof.Thresholds, daysOverdue)
	overflow := OverflowRisk(daysOverdue, frequencyDays, containerSize)

	return Classification{
		Priority:          priority,
		OverflowRisk:      overflow,
		RecommendedAction: recommendedActions[actionKey{priority, overflow}],
	}
}

// PriorityFor applies "strictly above" thresholds. Non-decreasing in daysOverdue.
func PriorityFor(t config.Thresholds, daysOverdue int) domain.Priority {
	switch {
	case daysOverdue > t.Critical:
		return domain.PriorityCritical
	case daysOverdue > t.High:
		return domain.PriorityHigh
	case daysOverdue > t.Medium:
		return domain.PriorityMedium
	}
	return domain.PriorityLow
}

func OverflowRisk(daysOverdue, frequencyDays int, containerSize float64) bool {
	od, f := float64(daysOverdue), float64(frequencyDays)
	return od > 1.5*f || (containerSize > 500 && daysOverdue > frequencyDays)
}

// RiskLevelFor buckets overdue days for delay reporting.
func RiskLevelFor(daysOverdue int) domain.RiskLevel {
	switch {
	case daysOverdue <= 0:
		return domain.RiskNormal
	case daysOverdue <= 5:
		return domain.RiskUpcoming
	case daysOverdue <= 10:
		return domain.RiskWarning
	}
	return domain.RiskCritical
}

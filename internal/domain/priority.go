package domain

import (
	"fmt"
	"strings"
)

// Priority is the discrete urgency tier of a collection point.
// Tiers are totally ordered: critical > high > medium > low.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return PriorityCritical, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return PriorityLow, fmt.Errorf("parse priority: unknown tier %q", s)
}

func (p Priority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// RiskLevel buckets days overdue for delay reporting.
type RiskLevel string

const (
	RiskNormal   RiskLevel = "normal"
	RiskUpcoming RiskLevel = "upcoming"
	RiskWarning  RiskLevel = "warning"
	RiskCritical RiskLevel = "critical"
)

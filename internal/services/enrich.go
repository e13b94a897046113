package services

import (
	"time"

	"collection-route-service/internal/domain"
)

// Enrich builds fresh CollectionPoints from raw records. Records that cannot
// be routed (bad coordinates, a container size that is negative, NaN or above
// MaxContainerSize) are returned
// separately, still enriched, so the caller can report them.
func Enrich(p *Predictor, c *Classifier, records []domain.CollectionRecord, reference time.Time) (valid, invalid []domain.CollectionPoint) {
	valid = make([]domain.CollectionPoint, 0, len(records))
	for _, r := range records {
		pattern := p.PredictRecord(r, reference)
		cls := c.Classify(pattern.DaysOverdue, r.Category, pattern.FrequencyDays, r.ContainerSize)

		pt := domain.CollectionPoint{
			CollectionRecord:  r,
			Pattern:           pattern,
			Priority:          cls.Priority,
			OverflowRisk:      cls.OverflowRisk,
			RecommendedAction: cls.RecommendedAction,
			RiskLevel:         RiskLevelFor(pattern.DaysOverdue),
		}

		if !r.Location.Valid() || !ValidContainerSize(r.ContainerSize) {
			invalid = append(invalid, pt)
			continue
		}
		valid = append(valid, pt)
	}
	return valid, invalid
}

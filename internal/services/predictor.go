package services

import (
	"math"
	"slices"
	"time"

	"collection-route-service/internal/config"
	"collection-route-service/internal/domain"
)

const (
	// Fraction of container size assumed to have accumulated by the due date.
	fillFactor = 0.8

	minLearnedIntervalDays = 1
	maxLearnedIntervalDays = 120

	// MaxContainerSize is the largest container size that can be routed.
	// Larger sizes are rejected by Enrich and clamped by the predictor.
	MaxContainerSize = math.MaxInt32
)

// ValidContainerSize reports whether size is finite, non-negative and at
// most MaxContainerSize.
func ValidContainerSize(size float64) bool {
	return !math.IsNaN(size) && size >= 0 && size <= MaxContainerSize
}

// clampSize maps an unusable size into [0, MaxContainerSize].
func clampSize(size float64) float64 {
	switch {
	case math.IsNaN(size) || size < 0:
		return 0
	case size > MaxContainerSize:
		return MaxContainerSize
	}
	return size
}

// roundBounded rounds x and saturates at MaxInt32 so int conversion cannot wrap.
func roundBounded(x float64) int {
	if x >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(x))
}

// Predictor estimates collection frequency and overdue volume from the
// category profile table. It holds no per-run state.
type Predictor struct {
	Profiles config.Profiles
	// Cutoff is the basis date for locations with no known last service.
	Cutoff time.Time
}

func NewPredictor(profiles config.Profiles, cutoff time.Time) *Predictor {
	return &Predictor{Profiles: profiles, Cutoff: cutoff}
}

// Predict computes the accumulation pattern from the category table alone.
func (p *Predictor) Predict(category string, containerSize float64, lastService *time.Time, reference time.Time) domain.Pattern {
	_, prof := p.Profiles.ProfileFor(category)
	return p.pattern(ExpectedFrequency(prof, containerSize), containerSize, lastService, reference)
}

// PredictRecord prefers a frequency learned from the record's service
// history and falls back to the category table.
func (p *Predictor) PredictRecord(r domain.CollectionRecord, reference time.Time) domain.Pattern {
	_, prof := p.Profiles.ProfileFor(r.Category)
	freq := ExpectedFrequency(prof, r.ContainerSize)
	if learned, ok := LearnFrequency(r.ServiceHistory); ok {
		freq = learned
	}

	last := r.LastServiceAt
	if last == nil && len(r.ServiceHistory) > 0 {
		latest := slices.MaxFunc(r.ServiceHistory, func(a, b time.Time) int { return a.Compare(b) })
		last = &latest
	}

	return p.pattern(freq, r.ContainerSize, last, reference)
}

func (p *Predictor) pattern(freq int, size float64, lastService *time.Time, reference time.Time) domain.Pattern {
	size = clampSize(size)

	basis := p.Cutoff
	if lastService != nil {
		basis = *lastService
	}

	next := basis.AddDate(0, 0, freq)
	overdue := wholeDays(reference.Sub(next))
	if overdue < 0 {
		overdue = 0
	}

	ratio := math.Max(1, float64(overdue)/float64(freq))

	return domain.Pattern{
		FrequencyDays:  freq,
		NextServiceAt:  next,
		DaysOverdue:    overdue,
		ExpectedVolume: roundBounded(size * fillFactor * ratio),
	}
}

// ExpectedFrequency is round(base + size*multiplier), floored at one day.
func ExpectedFrequency(prof config.Profile, containerSize float64) int {
	f := roundBounded(prof.BaseFrequencyDays + clampSize(containerSize)*prof.SizeMultiplier)
	if f < 1 {
		return 1
	}
	return f
}

// LearnFrequency returns the rounded mean interval between consecutive
// services, counting only intervals of 1 to 120 days. ok is false when no
// interval qualifies.
func LearnFrequency(history []time.Time) (int, bool) {
	if len(history) < 2 {
		return 0, false
	}

	sorted := slices.Clone(history)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })

	sum, n := 0, 0
	for i := 1; i < len(sorted); i++ {
		d := wholeDays(sorted[i].Sub(sorted[i-1]))
		if d < minLearnedIntervalDays || d > maxLearnedIntervalDays {
			continue
		}
		sum += d
		n++
	}
	if n == 0 {
		return 0, false
	}

	f := int(math.Round(float64(sum) / float64(n)))
	if f < 1 {
		f = 1
	}
	return f, true
}

// wholeDays floors a duration to days, rounding toward negative infinity.
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

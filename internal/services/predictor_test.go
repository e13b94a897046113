package services

import (
	"math"
	"testing"
	"time"

	"collection-route-service/internal/config"
	"collection-route-service/internal/domain"
)

var testRef = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func daysBefore(ref time.Time, d int) *time.Time {
	t := ref.AddDate(0, 0, -d)
	return &t
}

func TestPredict_StandardTenDaysSinceServiceIsMedium(t *testing.T) {
	profiles := config.DefaultProfiles()
	std := profiles.Classes[config.ClassStandard]
	std.BaseFrequencyDays = 7
	std.SizeMultiplier = 0
	profiles.Classes[config.ClassStandard] = std

	p := NewPredictor(profiles, testRef)
	c := NewClassifier(profiles)

	pat := p.Predict("retail", 200, daysBefore(testRef, 10), testRef)
	if pat.FrequencyDays != 7 {
		t.Fatalf("expected frequency 7, got %d", pat.FrequencyDays)
	}
	if pat.DaysOverdue != 3 {
		t.Fatalf("expected 3 days overdue, got %d", pat.DaysOverdue)
	}

	cls := c.Classify(pat.DaysOverdue, "retail", pat.FrequencyDays, 200)
	if cls.Priority != domain.PriorityMedium {
		t.Fatalf("expected medium, got %s", cls.Priority)
	}
}

func TestClassify_CriticalClassThreeDaysOverdueIsCritical(t *testing.T) {
	c := NewClassifier(config.DefaultProfiles())

	cls := c.Classify(3, "Industrial", 4, 100)
	if cls.Priority != domain.PriorityCritical {
		t.Fatalf("expected critical, got %s", cls.Priority)
	}
	if cls.RecommendedAction == "" {
		t.Fatalf("expected a recommended action")
	}
}

func TestPredict_NotYetDueHasZeroOverdueAndBaseVolume(t *testing.T) {
	p := NewPredictor(config.DefaultProfiles(), testRef)

	pat := p.Predict("retail", 250, daysBefore(testRef, 1), testRef)
	if pat.DaysOverdue != 0 {
		t.Fatalf("expected 0 overdue, got %d", pat.DaysOverdue)
	}
	// round(250 * 0.8 * 1)
	if pat.ExpectedVolume != 200 {
		t.Fatalf("expected volume 200, got %d", pat.ExpectedVolume)
	}
	if want := testRef.AddDate(0, 0, -1+pat.FrequencyDays); !pat.NextServiceAt.Equal(want) {
		t.Fatalf("expected next service %v, got %v", want, pat.NextServiceAt)
	}
}

func TestPredict_VolumeScalesWithOverdueRatio(t *testing.T) {
	profiles := config.DefaultProfiles()
	std := profiles.Classes[config.ClassStandard]
	std.BaseFrequencyDays = 10
	std.SizeMultiplier = 0
	profiles.Classes[config.ClassStandard] = std
	p := NewPredictor(profiles, testRef)

	// Serviced 40 days ago with a 10 day frequency: 30 days overdue, ratio 3.
	pat := p.Predict("office", 100, daysBefore(testRef, 40), testRef)
	if pat.DaysOverdue != 30 {
		t.Fatalf("expected 30 overdue, got %d", pat.DaysOverdue)
	}
	if pat.ExpectedVolume != 240 {
		t.Fatalf("expected volume 240, got %d", pat.ExpectedVolume)
	}
}

func TestPredict_MissingLastServiceUsesCutoff(t *testing.T) {
	cutoff := testRef.AddDate(0, 0, -20)
	p := NewPredictor(config.DefaultProfiles(), cutoff)

	pat := p.Predict("industrial", 0, nil, testRef)
	// Critical class: base 3, no size contribution.
	if pat.FrequencyDays != 3 {
		t.Fatalf("expected frequency 3, got %d", pat.FrequencyDays)
	}
	if pat.DaysOverdue != 17 {
		t.Fatalf("expected 17 overdue, got %d", pat.DaysOverdue)
	}
	if pat.ExpectedVolume != 0 {
		t.Fatalf("expected zero volume for empty container, got %d", pat.ExpectedVolume)
	}
}

func TestExpectedFrequency_FlooredAtOneDay(t *testing.T) {
	f := ExpectedFrequency(config.Profile{BaseFrequencyDays: 0, SizeMultiplier: 0}, 50)
	if f != 1 {
		t.Fatalf("expected 1, got %d", f)
	}

	f = ExpectedFrequency(config.Profile{BaseFrequencyDays: 14, SizeMultiplier: 0.01}, 300)
	if f != 17 {
		t.Fatalf("expected 17, got %d", f)
	}
}

func TestLearnFrequency(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 8, 0, 0, 0, time.UTC) }

	// Unsorted input, intervals 5, 7 and a same-day duplicate that is ignored.
	f, ok := LearnFrequency([]time.Time{d(13), d(1), d(6), d(13)})
	if !ok {
		t.Fatalf("expected a learned frequency")
	}
	if f != 6 {
		t.Fatalf("expected 6, got %d", f)
	}

	if _, ok := LearnFrequency([]time.Time{d(1)}); ok {
		t.Fatalf("single entry should not learn")
	}

	far := d(1).AddDate(0, 0, 200)
	if _, ok := LearnFrequency([]time.Time{d(1), far}); ok {
		t.Fatalf("intervals over 120 days should be ignored")
	}
}

func TestPredictRecord_PrefersHistory(t *testing.T) {
	p := NewPredictor(config.DefaultProfiles(), testRef)

	rec := domain.CollectionRecord{
		ID:       "h1",
		Category: "retail",
		ServiceHistory: []time.Time{
			testRef.AddDate(0, 0, -12),
			testRef.AddDate(0, 0, -8),
			testRef.AddDate(0, 0, -4),
		},
	}

	pat := p.PredictRecord(rec, testRef)
	if pat.FrequencyDays != 4 {
		t.Fatalf("expected learned frequency 4, got %d", pat.FrequencyDays)
	}
	// Latest history entry is the basis: due today.
	if pat.DaysOverdue != 0 {
		t.Fatalf("expected 0 overdue, got %d", pat.DaysOverdue)
	}
}

func TestPriorityFor_MonotonicInOverdue(t *testing.T) {
	for class, prof := range config.DefaultProfiles().Classes {
		prev := PriorityFor(prof.Thresholds, 0)
		for od := 1; od <= 30; od++ {
			cur := PriorityFor(prof.Thresholds, od)
			if cur < prev {
				t.Fatalf("%s: priority dropped from %s to %s at %d days", class, prev, cur, od)
			}
			prev = cur
		}
	}
}

func TestPriorityFor_CriticalClassHasNoLowTier(t *testing.T) {
	th := config.DefaultProfiles().Classes[config.ClassCritical].Thresholds
	if got := PriorityFor(th, 0); got != domain.PriorityMedium {
		t.Fatalf("expected medium at 0 days, got %s", got)
	}
}

func TestOverflowRisk(t *testing.T) {
	if !OverflowRisk(11, 7, 100) {
		t.Fatalf("expected overflow past 1.5x frequency")
	}
	if OverflowRisk(10, 7, 100) {
		t.Fatalf("10 <= 10.5 should not overflow for a small container")
	}
	if !OverflowRisk(8, 7, 600) {
		t.Fatalf("large container past its frequency should overflow")
	}
}

func TestRiskLevelFor(t *testing.T) {
	cases := map[int]domain.RiskLevel{
		0:  domain.RiskNormal,
		1:  domain.RiskUpcoming,
		5:  domain.RiskUpcoming,
		6:  domain.RiskWarning,
		10: domain.RiskWarning,
		11: domain.RiskCritical,
	}
	for od, want := range cases {
		if got := RiskLevelFor(od); got != want {
			t.Fatalf("%d days: expected %s, got %s", od, want, got)
		}
	}
}

func TestEnrich_SeparatesInvalidRecords(t *testing.T) {
	profiles := config.DefaultProfiles()
	p := NewPredictor(profiles, testRef)
	c := NewClassifier(profiles)

	records := []domain.CollectionRecord{
		{ID: "ok", Category: "retail", Location: domain.Coordinates{Lat: 1.3, Lon: 103.8}, ContainerSize: 100},
		{ID: "bad-lat", Category: "retail", Location: domain.Coordinates{Lat: 95, Lon: 103.8}, ContainerSize: 100},
		{ID: "bad-size", Category: "retail", Location: domain.Coordinates{Lat: 1.3, Lon: 103.8}, ContainerSize: -5},
		{ID: "huge-size", Category: "retail", Location: domain.Coordinates{Lat: 1.3, Lon: 103.8}, ContainerSize: 1e20},
		{ID: "inf-size", Category: "retail", Location: domain.Coordinates{Lat: 1.3, Lon: 103.8}, ContainerSize: math.Inf(1)},
	}

	valid, invalid := Enrich(p, c, records, testRef)
	if len(valid) != 1 || valid[0].ID != "ok" {
		t.Fatalf("expected only ok to be valid, got %+v", valid)
	}
	if len(invalid) != 4 {
		t.Fatalf("expected 4 invalid, got %d", len(invalid))
	}
	for _, pt := range invalid {
		if pt.ExpectedVolume < 0 || pt.FrequencyDays < 1 {
			t.Fatalf("%s: volume %d frequency %d", pt.ID, pt.ExpectedVolume, pt.FrequencyDays)
		}
	}
	if valid[0].RecommendedAction == "" || valid[0].RiskLevel == "" {
		t.Fatalf("expected enriched fields on valid point: %+v", valid[0])
	}
}

func TestPredict_HugeContainerSizeDoesNotWrap(t *testing.T) {
	p := NewPredictor(config.DefaultProfiles(), testRef)

	for _, size := range []float64{1e20, math.MaxFloat64, math.Inf(1)} {
		pat := p.Predict("industrial", size, daysBefore(testRef, 400), testRef)
		if pat.ExpectedVolume < 0 {
			t.Fatalf("size %g: expected_volume %d is negative", size, pat.ExpectedVolume)
		}
		if pat.FrequencyDays < 1 || pat.FrequencyDays > math.MaxInt32 {
			t.Fatalf("size %g: frequency %d out of range", size, pat.FrequencyDays)
		}
	}

	if got := ExpectedFrequency(config.Profile{BaseFrequencyDays: 3, SizeMultiplier: 0.01}, 1e20); got <= 0 {
		t.Fatalf("ExpectedFrequency wrapped to %d", got)
	}
}

func TestValidContainerSize(t *testing.T) {
	cases := []struct {
		size float64
		want bool
	}{
		{0, true},
		{240, true},
		{MaxContainerSize, true},
		{-1, false},
		{1e20, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tc := range cases {
		if got := ValidContainerSize(tc.size); got != tc.want {
			t.Errorf("ValidContainerSize(%g) = %v, want %v", tc.size, got, tc.want)
		}
	}
}

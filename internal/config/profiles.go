package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UrgencyClass groups business categories that share accumulation and
// escalation rules.
type UrgencyClass string

const (
	ClassCritical UrgencyClass = "critical"
	ClassElevated UrgencyClass = "elevated"
	ClassStandard UrgencyClass = "standard"
)

// Thresholds are "strictly above" day counts. A negative Medium means the
// class has no low tier.
type Thresholds struct {
	Critical int `yaml:"critical"`
	High     int `yaml:"high"`
	Medium   int `yaml:"medium"`
}

type Profile struct {
	BaseFrequencyDays float64    `yaml:"base_frequency_days"`
	SizeMultiplier    float64    `yaml:"size_multiplier"`
	Thresholds        Thresholds `yaml:"thresholds"`
}

// Profiles is the central category table. Category keys are lower case.
type Profiles struct {
	Classes    map[UrgencyClass]Profile `yaml:"classes"`
	Categories map[string]UrgencyClass  `yaml:"categories"`
}

func DefaultProfiles() Profiles {
	return Profiles{
		Classes: map[UrgencyClass]Profile{
			ClassCritical: {
				BaseFrequencyDays: 3,
				SizeMultiplier:    0.01,
				Thresholds:        Thresholds{Critical: 2, High: 1, Medium: -1},
			},
			ClassElevated: {
				BaseFrequencyDays: 7,
				SizeMultiplier:    0.01,
				Thresholds:        Thresholds{Critical: 5, High: 3, Medium: 1},
			},
			ClassStandard: {
				BaseFrequencyDays: 14,
				SizeMultiplier:    0.01,
				Thresholds:        Thresholds{Critical: 7, High: 4, Medium: 2},
			},
		},
		Categories: map[string]UrgencyClass{
			"industrial":         ClassCritical,
			"food processing":    ClassCritical,
			"food manufacturing": ClassCritical,
			"central kitchen":    ClassCritical,
			"slaughterhouse":     ClassCritical,
			"restaurant":         ClassElevated,
			"hotel":              ClassElevated,
			"cafe":               ClassElevated,
			"cafeteria":          ClassElevated,
			"catering":           ClassElevated,
			"bakery":             ClassElevated,
			"hospitality":        ClassElevated,
			"retail":             ClassStandard,
			"supermarket":        ClassStandard,
			"office":             ClassStandard,
			"school":             ClassStandard,
			"residential":        ClassStandard,
			"standard service":   ClassStandard,
		},
	}
}

// LoadProfiles overlays the YAML file at path onto the defaults.
// An empty path returns the defaults.
func LoadProfiles(path string) (Profiles, error) {
	p := DefaultProfiles()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Profiles{}, fmt.Errorf("load profiles: read %q: %w", path, err)
	}

	var overlay Profiles
	if err := yaml.Unmarshal(b, &overlay); err != nil {
		return Profiles{}, fmt.Errorf("load profiles: parse %q: %w", path, err)
	}

	for class, prof := range overlay.Classes {
		if prof.BaseFrequencyDays < 0 || prof.SizeMultiplier < 0 {
			return Profiles{}, fmt.Errorf("load profiles: class %q has negative frequency inputs", class)
		}
		p.Classes[class] = prof
	}
	for cat, class := range overlay.Categories {
		if _, ok := p.Classes[class]; !ok {
			return Profiles{}, fmt.Errorf("load profiles: category %q maps to unknown class %q", cat, class)
		}
		p.Categories[normalizeCategory(cat)] = class
	}

	return p, nil
}

// ClassOf maps a category to its urgency class. Unknown or empty categories
// fall back to the standard class.
func (p Profiles) ClassOf(category string) UrgencyClass {
	if class, ok := p.Categories[normalizeCategory(category)]; ok {
		return class
	}
	return ClassStandard
}

func (p Profiles) ProfileFor(category string) (UrgencyClass, Profile) {
	class := p.ClassOf(category)
	if prof, ok := p.Classes[class]; ok {
		return class, prof
	}
	return ClassStandard, p.Classes[ClassStandard]
}

func normalizeCategory(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

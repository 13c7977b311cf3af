// Package profile classifies role vectors into primary/secondary roles and
// a qualitative profile type.
package profile

import (
	"github.com/okian/apest/internal/domain/apest"
)

// Default classification thresholds.
const (
	DefaultBalancedBelow    = 0.35
	DefaultSpecializedAbove = 0.5
)

// Type is the qualitative bucket derived from the dominance ratio.
type Type string

// Profile types.
const (
	Balanced    Type = "balanced"
	Moderate    Type = "moderate"
	Specialized Type = "specialized"
	Unknown     Type = "unknown"
)

// Types lists every profile type, unknown last.
func Types() []Type {
	return []Type{Balanced, Moderate, Specialized, Unknown}
}

// Profile is the classification of a single role vector.
type Profile struct {
	Primary        apest.Role `json:"primary_role"`
	Secondary      apest.Role `json:"secondary_role"`
	DominanceRatio float64    `json:"dominance_ratio"`
	Type           Type       `json:"profile_type"`
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThresholds sets the balanced/specialized cut-offs. Pairs that are not
// 0 < balancedBelow <= specializedAbove < 1 are ignored.
func WithThresholds(balancedBelow, specializedAbove float64) Option {
	return func(c *Classifier) {
		if balancedBelow > 0 && balancedBelow <= specializedAbove && specializedAbove < 1 {
			c.balancedBelow = balancedBelow
			c.specializedAbove = specializedAbove
		}
	}
}

// Classifier converts role vectors into profiles. It holds only its
// thresholds and is safe for concurrent use.
type Classifier struct {
	balancedBelow    float64
	specializedAbove float64
}

// NewClassifier creates a classifier with the default thresholds unless
// overridden by options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		balancedBelow:    DefaultBalancedBelow,
		specializedAbove: DefaultSpecializedAbove,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thresholds returns the configured cut-offs.
func (c *Classifier) Thresholds() (balancedBelow, specializedAbove float64) {
	return c.balancedBelow, c.specializedAbove
}

// Classify returns the profile of v. A zero total yields the Unknown profile.
func (c *Classifier) Classify(v apest.Vector) Profile {
	total := v.Total()
	if total == 0 {
		return Profile{Type: Unknown}
	}

	ranked := Rank(v)
	primary, secondary := ranked[0], ranked[1]
	ratio := v.Score(primary) / total

	return Profile{
		Primary:        primary,
		Secondary:      secondary,
		DominanceRatio: ratio,
		Type:           c.typeFor(ratio),
	}
}

func (c *Classifier) typeFor(ratio float64) Type {
	switch {
	case ratio < c.balancedBelow:
		return Balanced
	case ratio <= c.specializedAbove:
		return Moderate
	default:
		return Specialized
	}
}

// Rank orders the five roles by score descending; equal scores keep the
// canonical role order.
func Rank(v apest.Vector) [5]apest.Role {
	ranked := apest.Roles()
	// Insertion sort over five elements; stable, so canonical order breaks ties.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && v.Score(ranked[j]) > v.Score(ranked[j-1]); j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

// Classify uses the default thresholds.
func Classify(v apest.Vector) Profile {
	return defaultClassifier.Classify(v)
}

var defaultClassifier = NewClassifier() //nolint:gochecknoglobals // immutable after init

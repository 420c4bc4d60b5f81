package sim

import (
	"fmt"
	"math"
	"sort"
)

// missRateEpsilon keeps the inverse-miss-rate score finite for a context that has
// not missed (or has not reported) yet.
const missRateEpsilon = 1e-10

// PerformanceScorer ranks a context for redistribution. Higher scores receive a larger
// share of the registers above the guaranteed minimum.
// Implementations MUST NOT modify the record.
type PerformanceScorer interface {
	Score(m *ContextMetrics) float64
}

// InverseMissRate scores a context by 1/(miss rate + epsilon), so cache-friendly
// contexts receive more rename registers than memory-bound ones.
type InverseMissRate struct{}

func (s *InverseMissRate) Score(m *ContextMetrics) float64 {
	return 1.0 / (m.MissRate + missRateEpsilon)
}

// EqualShare scores every context the same, splitting the spare pool evenly
// (the rounding remainder goes to the earliest-registered context).
type EqualShare struct{}

func (s *EqualShare) Score(_ *ContextMetrics) float64 {
	return 1.0
}

// validScorerNames maps scorer names to validity. Unexported to prevent mutation.
var validScorerNames = map[string]bool{
	"":                  true,
	"inverse-miss-rate": true,
	"equal-share":       true,
}

// IsValidScorer returns true if name is a recognized scorer.
// An empty name selects the default inverse-miss-rate scorer.
func IsValidScorer(name string) bool { return validScorerNames[name] }

// ValidScorerNames returns sorted non-empty scorer names.
func ValidScorerNames() []string {
	names := make([]string, 0, len(validScorerNames))
	for name := range validScorerNames {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// NewPerformanceScorer creates a PerformanceScorer by name.
// Empty string defaults to InverseMissRate (for CLI flag default compatibility).
// Panics on unrecognized names.
func NewPerformanceScorer(name string) PerformanceScorer {
	if !IsValidScorer(name) {
		panic(fmt.Sprintf("unknown scorer %q", name))
	}
	switch name {
	case "", "inverse-miss-rate":
		return &InverseMissRate{}
	case "equal-share":
		return &EqualShare{}
	default:
		panic(fmt.Sprintf("unhandled scorer %q", name))
	}
}

// sanitizeScore maps scores that cannot be used as a proportional weight to zero.
func sanitizeScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}

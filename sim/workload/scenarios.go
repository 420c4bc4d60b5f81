package workload

import "sort"

// Built-in scenario presets for common SMT mixes.
// Each returns a valid WorkloadSpec ready for use with BuildContextPlans.

// ScenarioDiverseMix creates four contexts, one of each built-in type, all live
// for the whole run.
func ScenarioDiverseMix(seed int64) *WorkloadSpec {
	return &WorkloadSpec{
		Version: "1", Seed: seed, ReportEvery: DefaultReportEvery,
		Contexts: []ContextSpec{
			{ID: 1, Type: "compute-intensive"},
			{ID: 2, Type: "memory-intensive"},
			{ID: 3, Type: "cache-friendly"},
			{ID: 4, Type: "mixed"},
		},
	}
}

// ScenarioContextChurn creates a mix where a memory-bound context leaves mid-run
// and a fifth context takes over its slot, exercising deregistration.
func ScenarioContextChurn(seed int64, horizon int64) *WorkloadSpec {
	half := max(horizon/2, 1)
	return &WorkloadSpec{
		Version: "1", Seed: seed, ReportEvery: DefaultReportEvery,
		Contexts: []ContextSpec{
			{ID: 1, Type: "compute-intensive"},
			{ID: 2, Type: "memory-intensive", EndCycle: half},
			{ID: 3, Type: "cache-friendly"},
			{ID: 4, Type: "mixed"},
			{ID: 5, Type: "compute-intensive", StartCycle: half},
		},
	}
}

// validScenarios maps preset names to constructors.
var validScenarios = map[string]func(seed, horizon int64) *WorkloadSpec{
	"diverse-mix":   func(seed, _ int64) *WorkloadSpec { return ScenarioDiverseMix(seed) },
	"context-churn": ScenarioContextChurn,
}

// IsValidScenario reports whether name is a built-in scenario.
func IsValidScenario(name string) bool {
	_, ok := validScenarios[name]
	return ok
}

// ValidScenarioNames returns the built-in scenario names, sorted.
func ValidScenarioNames() []string {
	names := make([]string, 0, len(validScenarios))
	for name := range validScenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewScenario returns the named built-in scenario, or nil if name is unknown.
func NewScenario(name string, seed, horizon int64) *WorkloadSpec {
	ctor, ok := validScenarios[name]
	if !ok {
		return nil
	}
	return ctor(seed, horizon)
}

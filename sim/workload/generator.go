package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/inference-sim/smt-regalloc/sim"
)

// CounterStream is a sim.CounterSource that draws per-cycle instruction counts
// uniformly from [minInstructions, maxInstructions] and misses at a jittered rate
// around a base miss rate, accumulating both.
type CounterStream struct {
	rng             *rand.Rand
	baseMissRate    float64
	variation       float64
	minInstructions int
	maxInstructions int

	cacheMisses  uint64
	instructions uint64
}

// Advance simulates one cycle and returns the cumulative counters.
func (c *CounterStream) Advance() (uint64, uint64) {
	instr := c.minInstructions
	if c.maxInstructions > c.minInstructions {
		instr += c.rng.Intn(c.maxInstructions - c.minInstructions + 1)
	}

	rate := c.baseMissRate
	if c.variation > 0 {
		rate *= 1 - c.variation + 2*c.variation*c.rng.Float64()
	}
	misses := int(math.Floor(float64(instr) * rate))
	misses = max(0, min(misses, instr))

	c.instructions += uint64(instr)
	c.cacheMisses += uint64(misses)
	return c.cacheMisses, c.instructions
}

// BuildContextPlans validates spec and creates one sim.ContextPlan per context.
// Deterministic given the same spec: each context draws from its own RNG subsystem.
func BuildContextPlans(spec *WorkloadSpec) ([]sim.ContextPlan, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
	plans := make([]sim.ContextPlan, 0, len(spec.Contexts))
	for i := range spec.Contexts {
		c := &spec.Contexts[i]
		plans = append(plans, sim.ContextPlan{
			ContextID:  c.ID,
			Label:      c.Type,
			StartCycle: c.StartCycle,
			EndCycle:   c.EndCycle,
			Source:     newCounterStream(c, rng.ForContext(c.ID)),
		})
	}
	return plans, nil
}

func newCounterStream(c *ContextSpec, rng *rand.Rand) *CounterStream {
	cs := &CounterStream{
		rng:             rng,
		baseMissRate:    c.BaseMissRate(),
		variation:       defaultVariation,
		minInstructions: defaultMinInstructions,
		maxInstructions: defaultMaxInstructions,
	}
	if c.Variation != nil {
		cs.variation = *c.Variation
	}
	if c.Instructions != nil {
		cs.minInstructions = c.Instructions.Min
		cs.maxInstructions = c.Instructions.Max
	}
	return cs
}

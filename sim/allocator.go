package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/smt-regalloc/sim/trace"
)

// RegisterAllocator partitions a fixed pool of rename registers among the active
// hardware contexts of one simulated SMT core.
//
// While at least one context is active, every context holds at least
// MinRegistersPerContext registers and the shares sum to TotalRegisters. Both hold
// after every Register, Deregister, Force and due Tick.
//
// Thread-safety: NOT thread-safe. Confine an allocator to one simulation goroutine.
type RegisterAllocator struct {
	config  AllocatorConfig
	scorer  PerformanceScorer
	tracer  *trace.AllocationTrace
	records []*ContextMetrics
	index   map[int]int // context ID → position in records

	nextSeq                 uint64
	cycle                   int64 // total ticks, for tracing only
	cyclesSinceReallocation int64
}

// Option customizes a RegisterAllocator at construction.
type Option func(*RegisterAllocator)

// WithScorer replaces the default inverse-miss-rate scorer.
func WithScorer(scorer PerformanceScorer) Option {
	return func(a *RegisterAllocator) {
		if scorer != nil {
			a.scorer = scorer
		}
	}
}

// WithTrace records every redistribution into at (when its level is "decisions").
func WithTrace(at *trace.AllocationTrace) Option {
	return func(a *RegisterAllocator) {
		a.tracer = at
	}
}

// NewRegisterAllocator validates cfg and returns an allocator with no active contexts.
// Returns an error wrapping ErrInvalidConfig if cfg is invalid.
func NewRegisterAllocator(cfg AllocatorConfig, opts ...Option) (*RegisterAllocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &RegisterAllocator{
		config:  cfg,
		scorer:  &InverseMissRate{},
		records: make([]*ContextMetrics, 0, cfg.MaxContexts),
		index:   make(map[int]int, cfg.MaxContexts),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the immutable configuration.
func (a *RegisterAllocator) Config() AllocatorConfig {
	return a.config
}

// Register adds a context seeded at the minimum share and redistributes the pool.
// Returns false if id is already active or every context slot is taken.
func (a *RegisterAllocator) Register(id int) bool {
	if _, exists := a.index[id]; exists {
		return false
	}
	if len(a.records) >= a.config.MaxContexts {
		return false
	}

	a.index[id] = len(a.records)
	a.records = append(a.records, newContextMetrics(id, a.nextSeq, a.config.MinRegistersPerContext))
	a.nextSeq++
	logrus.Infof("Registered context %d (%d/%d active)", id, len(a.records), a.config.MaxContexts)

	a.reallocate(trace.TriggerRegister)
	return true
}

// Deregister removes a context and, if any remain, redistributes the freed registers.
// Returns false if id is not active.
func (a *RegisterAllocator) Deregister(id int) bool {
	pos, ok := a.index[id]
	if !ok {
		return false
	}

	last := len(a.records) - 1
	if pos != last {
		moved := a.records[last]
		a.records[pos] = moved
		a.index[moved.ContextID] = pos
	}
	a.records[last] = nil
	a.records = a.records[:last]
	delete(a.index, id)
	logrus.Infof("Deregistered context %d (%d/%d active)", id, len(a.records), a.config.MaxContexts)

	if len(a.records) > 0 {
		a.reallocate(trace.TriggerDeregister)
	}
	return true
}

// Report overwrites the cumulative counters of a context and recomputes its miss rate.
// An unknown id leaves the allocator unchanged and returns false.
func (a *RegisterAllocator) Report(id int, cacheMisses, instructions uint64) bool {
	pos, ok := a.index[id]
	if !ok {
		logrus.Debugf("Ignoring metrics report for unknown context %d", id)
		return false
	}
	a.records[pos].update(cacheMisses, instructions)
	return true
}

// AllocationOf returns the register share of a context, or NotFound.
func (a *RegisterAllocator) AllocationOf(id int) int {
	pos, ok := a.index[id]
	if !ok {
		return NotFound
	}
	return a.records[pos].AllocatedRegisters
}

// ActiveCount returns the number of registered contexts.
func (a *RegisterAllocator) ActiveCount() int {
	return len(a.records)
}

// Tick advances the allocator by one simulated cycle and redistributes once
// ReallocationInterval cycles have elapsed since the last redistribution.
// Returns true if a redistribution ran.
func (a *RegisterAllocator) Tick() bool {
	a.cycle++
	a.cyclesSinceReallocation++
	if a.cyclesSinceReallocation < a.config.ReallocationInterval {
		return false
	}
	a.reallocate(trace.TriggerInterval)
	return true
}

// Force redistributes immediately, regardless of the cycle counter.
func (a *RegisterAllocator) Force() {
	a.reallocate(trace.TriggerForced)
}

// CyclesSinceReallocation returns the scheduler counter.
func (a *RegisterAllocator) CyclesSinceReallocation() int64 {
	return a.cyclesSinceReallocation
}

// Utilization returns the sum of current shares and the pool size.
func (a *RegisterAllocator) Utilization() (allocated, total int) {
	for _, r := range a.records {
		allocated += r.AllocatedRegisters
	}
	return allocated, a.config.TotalRegisters
}

// MinimumsSatisfied reports whether every active context holds at least the minimum.
// It does not check that the pool is fully assigned; see Utilization.
func (a *RegisterAllocator) MinimumsSatisfied() bool {
	for _, r := range a.records {
		if r.AllocatedRegisters < a.config.MinRegistersPerContext {
			return false
		}
	}
	return true
}

// Snapshot returns copies of the active records in collection order.
func (a *RegisterAllocator) Snapshot() []ContextMetrics {
	out := make([]ContextMetrics, len(a.records))
	for i, r := range a.records {
		out[i] = *r
	}
	return out
}

// reallocate runs redistribution, resets the scheduler counter and records the decision.
func (a *RegisterAllocator) reallocate(trigger trace.Trigger) {
	a.cyclesSinceReallocation = 0
	if len(a.records) == 0 {
		return
	}

	result := redistribute(a.records, a.config.TotalRegisters, a.config.MinRegistersPerContext, a.scorer)
	logrus.Debugf("Redistributed %d spare registers among %d contexts (trigger=%s, cycle=%d, fallback=%v)",
		result.available, len(a.records), trigger, a.cycle, result.fallback)

	if a.tracer.Enabled() {
		a.tracer.RecordReallocation(result.record(a.cycle, trigger))
	}
}

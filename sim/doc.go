// Package sim provides the rename-register allocator for a simultaneous-multithreading
// core model, plus a small cycle driver that exercises it.
//
// # Reading Guide
//
// Start with these files to understand the allocator:
//   - context.go: ContextMetrics, the per-context record (counters, miss rate, share)
//   - allocator.go: RegisterAllocator with its registry, metrics reports, the cycle scheduler
//     (Tick/Force) and introspection (Utilization, MinimumsSatisfied, Snapshot)
//   - redistribute.go: the proportional-share redistribution with its rounding and
//     anti-starvation rules
//
// # Invariants
//
// Whenever at least one context is active and after every redistribution:
//   - every context holds at least MinRegistersPerContext registers
//   - the shares sum to exactly TotalRegisters
//
// Registration and deregistration redistribute immediately, so the invariants never
// wait for the next scheduled interval.
//
// # Architecture
//
// Sub-packages:
//   - sim/workload/: YAML workload specs and deterministic per-context counter sources
//   - sim/trace/: redistribution decision records and summaries
//
// The allocator is synchronous and not safe for concurrent use. Callers that share
// one across goroutines must serialize access themselves.
//
// # Key Interfaces
//
//   - PerformanceScorer: ranks contexts for the spare-register split (inverse-miss-rate, equal-share)
//   - CounterSource: produces a context's cumulative cache-miss and instruction counters for the driver
package sim

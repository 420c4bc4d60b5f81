// Tracks run-wide and per-context allocation metrics such as:
// register-cycles held, share distribution, redistributions and invariant audits.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Distribution captures statistical summary of a context's register share.
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int64   `json:"count"`
}

// ContextStats aggregates what one hardware context received over a run.
// Shares are kept as a histogram because they are bounded by the pool size.
type ContextStats struct {
	ContextID      int
	Label          string
	Samples        int64 // cycles observed while active
	RegisterCycles int64 // sum of the share over observed cycles
	LastRegisters  int
	LastMissRate   float64

	shares map[int]int64 // share → cycles held
}

// Distribution computes nearest-rank percentiles over the observed shares.
// Returns zero-value Distribution when the context was never observed.
func (c *ContextStats) Distribution() Distribution {
	if c.Samples == 0 {
		return Distribution{}
	}
	values := make([]int, 0, len(c.shares))
	for v := range c.shares {
		values = append(values, v)
	}
	sort.Ints(values)

	rank := func(p float64) float64 {
		target := int64(p/100.0*float64(c.Samples-1)) + 1
		var seen int64
		for _, v := range values {
			seen += c.shares[v]
			if seen >= target {
				return float64(v)
			}
		}
		return float64(values[len(values)-1])
	}

	return Distribution{
		Mean:  float64(c.RegisterCycles) / float64(c.Samples),
		P50:   rank(50),
		P95:   rank(95),
		P99:   rank(99),
		Min:   float64(values[0]),
		Max:   float64(values[len(values)-1]),
		Count: c.Samples,
	}
}

// Metrics aggregates statistics about a driver run for final reporting.
type Metrics struct {
	CyclesSimulated       int64
	Redistributions       int // includes those triggered by registration and deregistration
	Registrations         int
	Deregistrations       int
	RejectedRegistrations int
	InvariantViolations   int
	PeakActiveContexts    int

	Contexts map[int]*ContextStats
	order    []int // context IDs in plan order
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Contexts: make(map[int]*ContextStats),
	}
}

// track registers a context for reporting, preserving first-seen order.
func (m *Metrics) track(id int, label string) {
	if _, ok := m.Contexts[id]; ok {
		return
	}
	m.Contexts[id] = &ContextStats{ContextID: id, Label: label, shares: make(map[int]int64)}
	m.order = append(m.order, id)
}

// sample records one cycle of a context's share.
func (m *Metrics) sample(id, registers int, missRate float64) {
	m.track(id, "")
	cs := m.Contexts[id]
	cs.Samples++
	cs.RegisterCycles += int64(registers)
	cs.LastRegisters = registers
	cs.LastMissRate = missRate
	cs.shares[registers]++
}

// Print writes the allocation-state table for the run.
func (m *Metrics) Print(w io.Writer, cfg AllocatorConfig) {
	fmt.Fprintln(w, "=== SMT Register Allocation ===")
	fmt.Fprintf(w, "Total Registers      : %d\n", cfg.TotalRegisters)
	fmt.Fprintf(w, "Min Registers/Context: %d\n", cfg.MinRegistersPerContext)
	fmt.Fprintf(w, "Max Contexts         : %d (peak active %d)\n", cfg.MaxContexts, m.PeakActiveContexts)
	fmt.Fprintf(w, "Cycles Simulated     : %d (interval %d)\n", m.CyclesSimulated, cfg.ReallocationInterval)
	fmt.Fprintf(w, "Redistributions      : %d\n", m.Redistributions)
	fmt.Fprintf(w, "Rejected Contexts    : %d\n", m.RejectedRegistrations)
	fmt.Fprintf(w, "Invariant Violations : %d\n", m.InvariantViolations)

	fmt.Fprintf(w, "\n%-8s %-18s %-10s %-10s %-8s %-8s %-10s\n",
		"Context", "Workload", "Last", "Mean", "Min", "Max", "MissRate")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, id := range m.order {
		cs := m.Contexts[id]
		d := cs.Distribution()
		fmt.Fprintf(w, "%-8d %-18s %-10d %-10.2f %-8.0f %-8.0f %-10.4f\n",
			cs.ContextID, cs.Label, cs.LastRegisters, d.Mean, d.Min, d.Max, cs.LastMissRate)
	}
}

// ContextOutput is the JSON form of ContextStats.
type ContextOutput struct {
	ContextID      int          `json:"context_id"`
	Workload       string       `json:"workload"`
	CyclesActive   int64        `json:"cycles_active"`
	RegisterCycles int64        `json:"register_cycles"`
	LastRegisters  int          `json:"last_registers"`
	LastMissRate   float64      `json:"last_miss_rate"`
	Registers      Distribution `json:"registers"`
}

// MetricsOutput is the JSON document written by SaveResults.
type MetricsOutput struct {
	TotalRegisters        int             `json:"total_registers"`
	MinRegisters          int             `json:"min_registers_per_context"`
	MaxContexts           int             `json:"max_contexts"`
	ReallocationInterval  int64           `json:"reallocation_interval"`
	CyclesSimulated       int64           `json:"cycles_simulated"`
	Redistributions       int             `json:"redistributions"`
	Registrations         int             `json:"registrations"`
	Deregistrations       int             `json:"deregistrations"`
	RejectedRegistrations int             `json:"rejected_registrations"`
	InvariantViolations   int             `json:"invariant_violations"`
	PeakActiveContexts    int             `json:"peak_active_contexts"`
	Contexts              []ContextOutput `json:"contexts"`
}

// Output builds the JSON document for the run.
func (m *Metrics) Output(cfg AllocatorConfig) MetricsOutput {
	out := MetricsOutput{
		TotalRegisters:        cfg.TotalRegisters,
		MinRegisters:          cfg.MinRegistersPerContext,
		MaxContexts:           cfg.MaxContexts,
		ReallocationInterval:  cfg.ReallocationInterval,
		CyclesSimulated:       m.CyclesSimulated,
		Redistributions:       m.Redistributions,
		Registrations:         m.Registrations,
		Deregistrations:       m.Deregistrations,
		RejectedRegistrations: m.RejectedRegistrations,
		InvariantViolations:   m.InvariantViolations,
		PeakActiveContexts:    m.PeakActiveContexts,
		Contexts:              make([]ContextOutput, 0, len(m.order)),
	}
	for _, id := range m.order {
		cs := m.Contexts[id]
		out.Contexts = append(out.Contexts, ContextOutput{
			ContextID:      cs.ContextID,
			Workload:       cs.Label,
			CyclesActive:   cs.Samples,
			RegisterCycles: cs.RegisterCycles,
			LastRegisters:  cs.LastRegisters,
			LastMissRate:   cs.LastMissRate,
			Registers:      cs.Distribution(),
		})
	}
	return out
}

// SaveResults writes the run metrics as indented JSON to path.
func (m *Metrics) SaveResults(path string, cfg AllocatorConfig) error {
	data, err := json.MarshalIndent(m.Output(cfg), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	logrus.Debugf("Successfully wrote metrics to '%s'", path)
	return nil
}

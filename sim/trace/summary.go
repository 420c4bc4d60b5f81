package trace

// ShareStats aggregates the shares one context received across recorded redistributions.
type ShareStats struct {
	Count int
	Min   int
	Max   int
	Mean  float64
}

// TraceSummary aggregates statistics from an AllocationTrace.
type TraceSummary struct {
	TotalReallocations int
	FallbackCount      int
	ByTrigger          map[Trigger]int
	PerContext         map[int]ShareStats // context ID → share statistics
}

// Summarize computes aggregate statistics from an AllocationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(at *AllocationTrace) *TraceSummary {
	summary := &TraceSummary{
		ByTrigger:  make(map[Trigger]int),
		PerContext: make(map[int]ShareStats),
	}
	if at == nil {
		return summary
	}

	summary.TotalReallocations = len(at.Reallocations)
	sums := make(map[int]int)
	for _, r := range at.Reallocations {
		summary.ByTrigger[r.Trigger]++
		if r.Fallback {
			summary.FallbackCount++
		}
		for _, s := range r.Shares {
			stats, seen := summary.PerContext[s.ContextID]
			if !seen || s.Registers < stats.Min {
				stats.Min = s.Registers
			}
			if !seen || s.Registers > stats.Max {
				stats.Max = s.Registers
			}
			stats.Count++
			sums[s.ContextID] += s.Registers
			summary.PerContext[s.ContextID] = stats
		}
	}

	for id, stats := range summary.PerContext {
		stats.Mean = float64(sums[id]) / float64(stats.Count)
		summary.PerContext[id] = stats
	}
	return summary
}

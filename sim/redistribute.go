package sim

import (
	"math"
	"sort"

	"github.com/inference-sim/smt-regalloc/sim/trace"
)

// rankedContext pairs a record with its score for one redistribution pass.
type rankedContext struct {
	record *ContextMetrics
	score  float64
}

// redistribution describes the outcome of one redistribute call.
type redistribution struct {
	available int
	fallback  bool
	records   []*ContextMetrics
	ranked    []rankedContext // best score first; empty when nothing was spare
}

// redistribute repartitions total registers among records in place.
//
// Every record is reset to minRegisters; the remaining pool is shared in proportion
// to score, rounding each share down, and the rounding remainder goes to the best
// ranked context. Equal scores rank by lower miss rate, then registration order. If no context has a
// positive score, the pool is split evenly in registration order instead.
//
// Callers guarantee len(records)*minRegisters <= total.
func redistribute(records []*ContextMetrics, total, minRegisters int, scorer PerformanceScorer) redistribution {
	for _, r := range records {
		r.AllocatedRegisters = minRegisters
	}

	available := total - minRegisters*len(records)
	result := redistribution{available: available, records: records}
	if available <= 0 {
		return result
	}

	ranked := make([]rankedContext, len(records))
	totalScore := 0.0
	for i, r := range records {
		score := sanitizeScore(scorer.Score(r))
		ranked[i] = rankedContext{record: r, score: score}
		totalScore += score
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		// distinct miss rates can round to the same score
		if ranked[i].record.MissRate != ranked[j].record.MissRate {
			return ranked[i].record.MissRate < ranked[j].record.MissRate
		}
		return ranked[i].record.seq < ranked[j].record.seq
	})
	result.ranked = ranked

	if totalScore <= 0 || math.IsInf(totalScore, 0) {
		result.fallback = true
		splitEvenly(ranked, available)
		return result
	}

	remaining := available
	for _, rc := range ranked {
		extra := int(math.Floor(float64(available) * rc.score / totalScore))
		// float rounding must never hand out more than is left
		extra = min(extra, remaining)
		rc.record.AllocatedRegisters += extra
		remaining -= extra
	}
	ranked[0].record.AllocatedRegisters += remaining
	return result
}

// splitEvenly gives each context available/n registers and one more to the first
// available%n contexts in registration order.
func splitEvenly(ranked []rankedContext, available int) {
	byReg := make([]*ContextMetrics, len(ranked))
	for i, rc := range ranked {
		byReg[i] = rc.record
	}
	sort.Slice(byReg, func(i, j int) bool { return byReg[i].seq < byReg[j].seq })

	n := len(byReg)
	each, remainder := available/n, available%n
	for i, r := range byReg {
		r.AllocatedRegisters += each
		if i < remainder {
			r.AllocatedRegisters++
		}
	}
}

// record converts the outcome into a trace record.
func (r redistribution) record(cycle int64, trigger trace.Trigger) trace.ReallocationRecord {
	rec := trace.ReallocationRecord{
		Cycle:     cycle,
		Trigger:   trigger,
		Available: r.available,
		Fallback:  r.fallback,
		Shares:    make([]trace.ShareRecord, 0, len(r.records)),
	}
	ranked := r.ranked
	if len(ranked) == 0 {
		ranked = make([]rankedContext, len(r.records))
		for i, cm := range r.records {
			ranked[i] = rankedContext{record: cm}
		}
	}
	for _, rc := range ranked {
		rec.Shares = append(rec.Shares, trace.ShareRecord{
			ContextID: rc.record.ContextID,
			MissRate:  rc.record.MissRate,
			Score:     rc.score,
			Registers: rc.record.AllocatedRegisters,
		})
	}
	return rec
}

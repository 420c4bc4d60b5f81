package sim

// NotFound is returned by AllocationOf for an identifier that is not active.
const NotFound = -1

// ContextMetrics is the allocator's record for one active hardware context.
// Counters are cumulative and overwritten by each report; AllocatedRegisters is
// owned by redistribution.
type ContextMetrics struct {
	ContextID          int
	CacheMisses        uint64
	Instructions       uint64
	MissRate           float64 // CacheMisses / Instructions, 0 when Instructions == 0
	AllocatedRegisters int

	seq uint64 // registration order, survives swap-and-pop compaction
}

// newContextMetrics seeds a record at the minimum share.
func newContextMetrics(id int, seq uint64, minRegisters int) *ContextMetrics {
	return &ContextMetrics{
		ContextID:          id,
		AllocatedRegisters: minRegisters,
		seq:                seq,
	}
}

// update overwrites the counters and recomputes the miss rate.
func (m *ContextMetrics) update(cacheMisses, instructions uint64) {
	m.CacheMisses = cacheMisses
	m.Instructions = instructions
	m.MissRate = computeMissRate(cacheMisses, instructions)
}

func computeMissRate(cacheMisses, instructions uint64) float64 {
	if instructions == 0 {
		return 0.0
	}
	return float64(cacheMisses) / float64(instructions)
}

package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/smt-regalloc/sim/trace"
)

// constScorer returns a fixed score per context ID (0 when absent).
type constScorer map[int]float64

func (s constScorer) Score(m *ContextMetrics) float64 { return s[m.ContextID] }

func makeRecords(ids ...int) []*ContextMetrics {
	records := make([]*ContextMetrics, len(ids))
	for i, id := range ids {
		records[i] = newContextMetrics(id, uint64(i), 0)
	}
	return records
}

func shares(records []*ContextMetrics) map[int]int {
	out := make(map[int]int, len(records))
	for _, r := range records {
		out[r.ContextID] = r.AllocatedRegisters
	}
	return out
}

func TestRedistribute_ProportionalShares(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		min    int
		scores constScorer
		want   map[int]int
	}{
		{
			name: "even split with remainder to first", total: 64, min: 8,
			scores: constScorer{1: 1, 2: 1, 3: 1},
			want:   map[int]int{1: 22, 2: 21, 3: 21},
		},
		{
			name: "weighted split", total: 40, min: 4,
			scores: constScorer{1: 3, 2: 1},
			want:   map[int]int{1: 28, 2: 12},
		},
		{
			name: "remainder goes to highest score", total: 23, min: 2,
			scores: constScorer{1: 1, 2: 2, 3: 4},
			want:   map[int]int{1: 4, 2: 6, 3: 13},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]int, 0, len(tt.want))
			for id := 1; id <= len(tt.want); id++ {
				ids = append(ids, id)
			}
			records := makeRecords(ids...)

			result := redistribute(records, tt.total, tt.min, tt.scores)

			assert.False(t, result.fallback)
			assert.Equal(t, tt.total-tt.min*len(records), result.available)
			assert.Equal(t, tt.want, shares(records))
		})
	}
}

func TestRedistribute_ResetsPreviousShares(t *testing.T) {
	records := makeRecords(1, 2)
	records[0].AllocatedRegisters = 500
	records[1].AllocatedRegisters = -3

	redistribute(records, 20, 5, constScorer{1: 1, 2: 1})

	assert.Equal(t, map[int]int{1: 10, 2: 10}, shares(records))
}

func TestRedistribute_NoSpareRegisters_AllAtMinimum(t *testing.T) {
	records := makeRecords(1, 2, 3, 4)

	result := redistribute(records, 32, 8, constScorer{1: 9, 2: 1})

	assert.Equal(t, 0, result.available)
	assert.Empty(t, result.ranked)
	assert.Equal(t, map[int]int{1: 8, 2: 8, 3: 8, 4: 8}, shares(records))

	// The trace record still lists every context
	rec := result.record(7, trace.TriggerForced)
	assert.Len(t, rec.Shares, 4)
	assert.Equal(t, int64(7), rec.Cycle)
}

func TestRedistribute_NonPositiveTotalScore_FallsBackToEqualSplit(t *testing.T) {
	tests := []struct {
		name   string
		scores constScorer
	}{
		{"all zero", constScorer{}},
		{"negative", constScorer{1: -1, 2: -5, 3: -2}},
		{"NaN", constScorer{1: math.NaN(), 2: math.NaN(), 3: math.NaN()}},
		{"infinite", constScorer{1: math.Inf(1), 2: math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := makeRecords(1, 2, 3)

			result := redistribute(records, 10, 1, tt.scores)

			// 7 spare over 3 contexts: 2 each, the first registered gets the extra one
			assert.True(t, result.fallback)
			assert.Equal(t, map[int]int{1: 4, 2: 3, 3: 3}, shares(records))
		})
	}
}

func TestRedistribute_InvalidScoreTreatedAsZero(t *testing.T) {
	records := makeRecords(1, 2)

	result := redistribute(records, 20, 2, constScorer{1: math.NaN(), 2: 5})

	assert.False(t, result.fallback)
	assert.Equal(t, map[int]int{1: 2, 2: 18}, shares(records))
}

func TestRedistribute_FallbackUsesRegistrationOrderNotSlotOrder(t *testing.T) {
	// GIVEN records whose slot order differs from registration order
	a := newContextMetrics(10, 5, 0)
	b := newContextMetrics(20, 1, 0)
	c := newContextMetrics(30, 3, 0)
	records := []*ContextMetrics{a, b, c}

	// WHEN the fallback splits 5 spare registers
	redistribute(records, 8, 1, constScorer{})

	// THEN the two extra registers go to the two earliest registrations
	assert.Equal(t, map[int]int{10: 2, 20: 3, 30: 3}, shares(records))
}

func TestRedistribute_EqualScoreTieBreakBySeq(t *testing.T) {
	a := newContextMetrics(1, 9, 0)
	b := newContextMetrics(2, 4, 0)
	records := []*ContextMetrics{a, b}

	result := redistribute(records, 5, 1, constScorer{1: 2, 2: 2})

	require.Len(t, result.ranked, 2)
	assert.Equal(t, 2, result.ranked[0].record.ContextID, "lower seq ranks first")
	assert.Equal(t, map[int]int{1: 2, 2: 3}, shares(records))
}

func TestRedistribute_ExtremeScoreRatio_ConservesPool(t *testing.T) {
	records := makeRecords(1, 2, 3)

	redistribute(records, 1000, 10, constScorer{1: 1e300, 2: 1e-300, 3: 1})

	sum := 0
	for _, r := range records {
		sum += r.AllocatedRegisters
		assert.GreaterOrEqual(t, r.AllocatedRegisters, 10)
	}
	assert.Equal(t, 1000, sum)
	assert.Equal(t, 980, records[0].AllocatedRegisters)
}

func TestRedistribution_Record_SharesInRankOrder(t *testing.T) {
	records := makeRecords(1, 2)
	records[0].update(500, 1000)
	records[1].update(10, 1000)

	result := redistribute(records, 64, 8, &InverseMissRate{})
	rec := result.record(12, trace.TriggerInterval)

	assert.Equal(t, trace.TriggerInterval, rec.Trigger)
	assert.Equal(t, 48, rec.Available)
	assert.False(t, rec.Fallback)
	require.Len(t, rec.Shares, 2)
	assert.Equal(t, 2, rec.Shares[0].ContextID)
	assert.Equal(t, 0.01, rec.Shares[0].MissRate)
	assert.Equal(t, records[1].AllocatedRegisters, rec.Shares[0].Registers)
	assert.Greater(t, rec.Shares[0].Score, rec.Shares[1].Score)
}

func TestRedistribute_EqualScore_LowerMissRateRanksFirst(t *testing.T) {
	// GIVEN two contexts with equal scores, the earlier one missing more often
	a := newContextMetrics(1, 0, 0)
	b := newContextMetrics(2, 1, 0)
	a.update(30, 1000)
	b.update(20, 1000)
	records := []*ContextMetrics{a, b}

	// WHEN one spare register is split
	result := redistribute(records, 3, 1, constScorer{1: 5, 2: 5})

	// THEN the lower miss rate wins the remainder despite registering later
	require.Len(t, result.ranked, 2)
	assert.Equal(t, 2, result.ranked[0].record.ContextID)
	assert.Equal(t, map[int]int{1: 1, 2: 2}, shares(records))
}

func TestAllocator_ScoreCollision_KeepsMonotonicFairness(t *testing.T) {
	// GIVEN counters whose distinct miss rates map to the same inverse score
	a := newTestAllocator(t, 3, 1, 2, 1000, 1, 2)
	require.True(t, a.Report(1, 18750001, 375000035))
	require.True(t, a.Report(2, 20000001, 400000036))
	snap := a.Snapshot()
	require.Less(t, snap[1].MissRate, snap[0].MissRate)

	// WHEN redistribution is forced
	a.Force()

	// THEN the context with the lower miss rate holds at least as many registers
	assert.Equal(t, 1, a.AllocationOf(1))
	assert.Equal(t, 2, a.AllocationOf(2))
}

package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// Same key and context produce the same sequence
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 5; i++ {
		v1 := rng1.ForContext(3).Int63()
		v2 := rng2.ForContext(3).Int63()
		if v1 != v2 {
			t.Errorf("draw %d: got %d and %d, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_ContextIsolation(t *testing.T) {
	// Drawing from context 1 does not shift context 2's stream
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	rngB := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 100; i++ {
		rngA.ForContext(1).Float64()
	}

	assert.Equal(t, rngB.ForContext(2).Float64(), rngA.ForContext(2).Float64())
}

func TestPartitionedRNG_DifferentContextsDiffer(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	assert.NotEqual(t, rng.ForContext(1).Int63(), rng.ForContext(2).Int63())
}

func TestPartitionedRNG_DifferentKeysDiffer(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1))
	b := NewPartitionedRNG(NewSimulationKey(2))
	assert.NotEqual(t, a.ForContext(1).Int63(), b.ForContext(1).Int63())
}

func TestPartitionedRNG_Caching(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	first := rng.ForSubsystem("context_7")
	assert.Same(t, first, rng.ForSubsystem("context_7"))
	assert.Same(t, first, rng.ForContext(7))
	assert.NotNil(t, rng.ForSubsystem(""))
}

func TestPartitionedRNG_Key(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(-17))
	assert.Equal(t, SimulationKey(-17), rng.Key())
}

func TestSubsystemContext_Name(t *testing.T) {
	assert.Equal(t, "context_0", SubsystemContext(0))
	assert.Equal(t, "context_12", SubsystemContext(12))
}

func TestFnv1a64_KnownVectors(t *testing.T) {
	// FNV-1a 64-bit offset basis for the empty string
	assert.Equal(t, int64(-3750763034362895579), fnv1a64(""))
	assert.NotEqual(t, fnv1a64("context_1"), fnv1a64("context_2"))
}

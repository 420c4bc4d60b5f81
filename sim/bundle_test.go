package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/smt-regalloc/sim/internal/testutil"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestLoadAllocatorBundle_ValidYAML(t *testing.T) {
	yaml := `
register_file:
  total_registers: 256
  min_registers_per_context: 32
  max_contexts: 8
  reallocation_interval: 100
scorer: equal-share
trace_level: decisions
`
	path := testutil.WriteTempYAML(t, yaml)
	bundle, err := LoadAllocatorBundle(path)
	require.NoError(t, err)

	rf := bundle.RegisterFile
	require.NotNil(t, rf.TotalRegisters)
	assert.Equal(t, 256, *rf.TotalRegisters)
	require.NotNil(t, rf.MinRegistersPerContext)
	assert.Equal(t, 32, *rf.MinRegistersPerContext)
	require.NotNil(t, rf.MaxContexts)
	assert.Equal(t, 8, *rf.MaxContexts)
	require.NotNil(t, rf.ReallocationInterval)
	assert.Equal(t, int64(100), *rf.ReallocationInterval)
	assert.Equal(t, "equal-share", bundle.Scorer)
	assert.Equal(t, "decisions", bundle.TraceLevel)
	assert.NoError(t, bundle.Validate())
}

func TestLoadAllocatorBundle_ZeroValueIsDistinctFromUnset(t *testing.T) {
	yaml := `
register_file:
  reallocation_interval: 0
`
	path := testutil.WriteTempYAML(t, yaml)
	bundle, err := LoadAllocatorBundle(path)
	require.NoError(t, err)

	// reallocation_interval: 0 is explicitly set (non-nil), not treated as unset
	require.NotNil(t, bundle.RegisterFile.ReallocationInterval)
	assert.Equal(t, int64(0), *bundle.RegisterFile.ReallocationInterval)
	assert.Nil(t, bundle.RegisterFile.TotalRegisters)
	assert.Nil(t, bundle.RegisterFile.MinRegistersPerContext)
	assert.Nil(t, bundle.RegisterFile.MaxContexts)
}

func TestLoadAllocatorBundle_UnknownKey_Rejected(t *testing.T) {
	yaml := `
register_file:
  total_regsiters: 128
`
	path := testutil.WriteTempYAML(t, yaml)
	_, err := LoadAllocatorBundle(path)
	assert.Error(t, err)
}

func TestLoadAllocatorBundle_MissingFile(t *testing.T) {
	_, err := LoadAllocatorBundle("/nonexistent/allocator.yaml")
	assert.Error(t, err)
}

func TestAllocatorBundle_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		bundle AllocatorBundle
	}{
		{"unknown scorer", AllocatorBundle{Scorer: "random"}},
		{"unknown trace level", AllocatorBundle{TraceLevel: "verbose"}},
		{"zero total", AllocatorBundle{RegisterFile: RegisterFileConfig{TotalRegisters: intPtr(0)}}},
		{"negative minimum", AllocatorBundle{RegisterFile: RegisterFileConfig{MinRegistersPerContext: intPtr(-4)}}},
		{"zero contexts", AllocatorBundle{RegisterFile: RegisterFileConfig{MaxContexts: intPtr(0)}}},
		{"negative interval", AllocatorBundle{RegisterFile: RegisterFileConfig{ReallocationInterval: int64Ptr(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.bundle.Validate())
		})
	}
}

func TestAllocatorBundle_Validate_EmptyBundleIsValid(t *testing.T) {
	b := AllocatorBundle{}
	assert.NoError(t, b.Validate())
}

func TestAllocatorBundle_ApplyTo_RespectsOverrides(t *testing.T) {
	// GIVEN a bundle setting every register file field
	bundle := AllocatorBundle{RegisterFile: RegisterFileConfig{
		TotalRegisters:         intPtr(256),
		MinRegistersPerContext: intPtr(32),
		MaxContexts:            intPtr(8),
		ReallocationInterval:   int64Ptr(0),
	}}
	cfg := NewAllocatorConfig(128, 16, 4, 50)

	// WHEN min_registers_per_context was overridden by the caller
	bundle.ApplyTo(&cfg, func(field string) bool { return field == "min_registers_per_context" })

	// THEN every other field comes from the bundle
	assert.Equal(t, NewAllocatorConfig(256, 16, 8, 0), cfg)
}

func TestAllocatorBundle_ApplyTo_UnsetFieldsKeepDefaults(t *testing.T) {
	bundle := AllocatorBundle{RegisterFile: RegisterFileConfig{MaxContexts: intPtr(2)}}
	cfg := NewAllocatorConfig(128, 16, 4, 50)

	bundle.ApplyTo(&cfg, func(string) bool { return false })

	assert.Equal(t, NewAllocatorConfig(128, 16, 2, 50), cfg)
}

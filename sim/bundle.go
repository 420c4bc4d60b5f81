package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/smt-regalloc/sim/trace"
)

// AllocatorBundle holds allocator configuration, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and do not override CLI flags.
// String fields use empty string for "not set".
type AllocatorBundle struct {
	RegisterFile RegisterFileConfig `yaml:"register_file"`
	Scorer       string             `yaml:"scorer"`
	TraceLevel   string             `yaml:"trace_level"`
}

// RegisterFileConfig holds the register pool parameters.
type RegisterFileConfig struct {
	TotalRegisters         *int   `yaml:"total_registers"`
	MinRegistersPerContext *int   `yaml:"min_registers_per_context"`
	MaxContexts            *int   `yaml:"max_contexts"`
	ReallocationInterval   *int64 `yaml:"reallocation_interval"`
}

// LoadAllocatorBundle reads and parses a YAML allocator configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadAllocatorBundle(path string) (*AllocatorBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading allocator config: %w", err)
	}
	var bundle AllocatorBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing allocator config: %w", err)
	}
	return &bundle, nil
}

// Validate checks names and parameter ranges of the fields that are set.
// Cross-field constraints are checked by AllocatorConfig.Validate once the
// bundle has been merged with flag values.
func (b *AllocatorBundle) Validate() error {
	if !IsValidScorer(b.Scorer) {
		return fmt.Errorf("unknown scorer %q", b.Scorer)
	}
	if !trace.IsValidTraceLevel(b.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", b.TraceLevel)
	}
	rf := b.RegisterFile
	if rf.TotalRegisters != nil && *rf.TotalRegisters <= 0 {
		return fmt.Errorf("total_registers must be positive, got %d", *rf.TotalRegisters)
	}
	if rf.MinRegistersPerContext != nil && *rf.MinRegistersPerContext <= 0 {
		return fmt.Errorf("min_registers_per_context must be positive, got %d", *rf.MinRegistersPerContext)
	}
	if rf.MaxContexts != nil && *rf.MaxContexts <= 0 {
		return fmt.Errorf("max_contexts must be positive, got %d", *rf.MaxContexts)
	}
	if rf.ReallocationInterval != nil && *rf.ReallocationInterval < 0 {
		return fmt.Errorf("reallocation_interval must be non-negative, got %d", *rf.ReallocationInterval)
	}
	return nil
}

// ApplyTo overlays the fields set in the bundle onto cfg.
// Fields for which overridden returns true are left untouched.
func (b *AllocatorBundle) ApplyTo(cfg *AllocatorConfig, overridden func(field string) bool) {
	rf := b.RegisterFile
	if rf.TotalRegisters != nil && !overridden("total_registers") {
		cfg.TotalRegisters = *rf.TotalRegisters
	}
	if rf.MinRegistersPerContext != nil && !overridden("min_registers_per_context") {
		cfg.MinRegistersPerContext = *rf.MinRegistersPerContext
	}
	if rf.MaxContexts != nil && !overridden("max_contexts") {
		cfg.MaxContexts = *rf.MaxContexts
	}
	if rf.ReallocationInterval != nil && !overridden("reallocation_interval") {
		cfg.ReallocationInterval = *rf.ReallocationInterval
	}
}

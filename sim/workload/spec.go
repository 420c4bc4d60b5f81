package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultReportEvery is the number of cycles between counter reports when the
// spec leaves report_every unset.
const DefaultReportEvery int64 = 10

// Defaults applied when a context leaves the corresponding field unset.
const (
	defaultVariation       = 0.2
	defaultMinInstructions = 800
	defaultMaxInstructions = 1200
)

// baseMissRates are the per-instruction cache-miss rates of the built-in context types.
var baseMissRates = map[string]float64{
	"compute-intensive": 0.005,
	"memory-intensive":  0.15,
	"mixed":             0.05,
	"cache-friendly":    0.02,
}

// validContextTypes lists recognized context types; "custom" requires miss_rate.
var validContextTypes = map[string]bool{
	"compute-intensive": true,
	"memory-intensive":  true,
	"mixed":             true,
	"cache-friendly":    true,
	"custom":            true,
}

// WorkloadSpec is the top-level workload configuration.
// Loaded from YAML via LoadWorkloadSpec(path).
type WorkloadSpec struct {
	Version     string        `yaml:"version"`
	Seed        int64         `yaml:"seed"`
	ReportEvery int64         `yaml:"report_every,omitempty"` // 0 = DefaultReportEvery
	Contexts    []ContextSpec `yaml:"contexts"`
}

// ContextSpec defines a single hardware context's behavior.
type ContextSpec struct {
	ID           int               `yaml:"id"`
	Type         string            `yaml:"type"`
	MissRate     *float64          `yaml:"miss_rate,omitempty"`    // overrides the type's base rate
	Variation    *float64          `yaml:"variation,omitempty"`    // relative per-cycle jitter of the miss rate
	Instructions *InstructionRange `yaml:"instructions,omitempty"` // per-cycle instruction count bounds
	StartCycle   int64             `yaml:"start_cycle,omitempty"`
	EndCycle     int64             `yaml:"end_cycle,omitempty"` // 0 = runs to the horizon
}

// InstructionRange bounds the uniformly drawn per-cycle instruction count.
type InstructionRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// LoadWorkloadSpec reads and parses a YAML workload specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = "1"
	}
	return &spec, nil
}

// MarshalWorkloadSpec renders spec as YAML.
func MarshalWorkloadSpec(spec *WorkloadSpec) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(spec); err != nil {
		return nil, fmt.Errorf("encoding workload spec: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding workload spec: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportInterval returns the effective cycles between counter reports.
func (s *WorkloadSpec) ReportInterval() int64 {
	if s.ReportEvery == 0 {
		return DefaultReportEvery
	}
	return s.ReportEvery
}

// Validate checks that all fields in the spec are valid.
func (s *WorkloadSpec) Validate() error {
	if s.ReportEvery < 0 {
		return fmt.Errorf("report_every must be non-negative, got %d", s.ReportEvery)
	}
	if len(s.Contexts) == 0 {
		return fmt.Errorf("at least one context required")
	}
	seen := make(map[int]bool, len(s.Contexts))
	for i := range s.Contexts {
		c := &s.Contexts[i]
		if seen[c.ID] {
			return fmt.Errorf("context[%d]: duplicate id %d", i, c.ID)
		}
		seen[c.ID] = true
		if err := validateContext(c, i); err != nil {
			return err
		}
	}
	return nil
}

func validateContext(c *ContextSpec, idx int) error {
	prefix := fmt.Sprintf("context[%d]", idx)
	if !validContextTypes[c.Type] {
		return fmt.Errorf("%s: unknown type %q; valid: %v", prefix, c.Type, ValidContextTypes())
	}
	if c.Type == "custom" && c.MissRate == nil {
		return fmt.Errorf("%s: type custom requires miss_rate", prefix)
	}
	if c.MissRate != nil {
		if err := validateUnitInterval(prefix+".miss_rate", *c.MissRate); err != nil {
			return err
		}
	}
	if c.Variation != nil {
		if err := validateUnitInterval(prefix+".variation", *c.Variation); err != nil {
			return err
		}
	}
	if c.Instructions != nil {
		if c.Instructions.Min < 1 {
			return fmt.Errorf("%s.instructions.min must be at least 1, got %d", prefix, c.Instructions.Min)
		}
		if c.Instructions.Max < c.Instructions.Min {
			return fmt.Errorf("%s.instructions.max (%d) must be >= min (%d)", prefix, c.Instructions.Max, c.Instructions.Min)
		}
	}
	if c.StartCycle < 0 {
		return fmt.Errorf("%s: start_cycle must be non-negative, got %d", prefix, c.StartCycle)
	}
	if c.EndCycle != 0 && c.EndCycle <= c.StartCycle {
		return fmt.Errorf("%s: end_cycle (%d) must be after start_cycle (%d)", prefix, c.EndCycle, c.StartCycle)
	}
	return nil
}

func validateUnitInterval(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 || val > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %f", name, val)
	}
	return nil
}

// ValidContextTypes returns the recognized context type names, sorted.
func ValidContextTypes() []string {
	names := make([]string, 0, len(validContextTypes))
	for name := range validContextTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BaseMissRate returns the miss rate a context draws around: its override if set,
// otherwise the base rate of its type.
func (c *ContextSpec) BaseMissRate() float64 {
	if c.MissRate != nil {
		return *c.MissRate
	}
	return baseMissRates[c.Type]
}

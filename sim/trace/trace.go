package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every redistribution decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// AllocationTrace collects redistribution records during a simulation.
type AllocationTrace struct {
	Config        TraceConfig
	Reallocations []ReallocationRecord
}

// NewAllocationTrace creates an AllocationTrace ready for recording.
func NewAllocationTrace(config TraceConfig) *AllocationTrace {
	return &AllocationTrace{
		Config:        config,
		Reallocations: make([]ReallocationRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on nil.
func (at *AllocationTrace) Enabled() bool {
	return at != nil && at.Config.Level == TraceLevelDecisions
}

// RecordReallocation appends a redistribution record.
func (at *AllocationTrace) RecordReallocation(record ReallocationRecord) {
	at.Reallocations = append(at.Reallocations, record)
}

// Package trace provides decision-trace recording for register redistribution analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// Trigger names what caused a redistribution.
type Trigger string

const (
	TriggerRegister   Trigger = "register"
	TriggerDeregister Trigger = "deregister"
	TriggerInterval   Trigger = "interval"
	TriggerForced     Trigger = "forced"
)

// ShareRecord captures one context's inputs and outcome in a redistribution.
type ShareRecord struct {
	ContextID int
	MissRate  float64
	Score     float64
	Registers int
}

// ReallocationRecord captures a single redistribution decision.
// Shares are ordered best score first, as the algorithm visited them.
type ReallocationRecord struct {
	Cycle     int64
	Trigger   Trigger
	Available int  // registers above the reserved minimums
	Fallback  bool // equal split was used because no context had a positive score
	Shares    []ShareRecord
}
